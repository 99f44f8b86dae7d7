package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/pgnvault/internal/db"
	"github.com/vytor/pgnvault/internal/errors"
	"github.com/vytor/pgnvault/internal/jobs"
	"github.com/vytor/pgnvault/internal/logger"
	"github.com/vytor/pgnvault/internal/services"
	"github.com/vytor/pgnvault/internal/source"
)

type Server struct {
	DB             *db.DB
	ParseService   services.ParseService
	ImportService  services.ImportService
	GameService    services.GameService
	JobQueue       jobs.JobQueue
	MaxUploadBytes int64
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response: %v", err)
	}
}

// readPGN returns the request body as text, decompressing zstd bodies.
func (s *Server) readPGN(r *http.Request) (string, error) {
	body, err := source.Sniff(r.Body)
	if err != nil {
		return "", s.bodyError(err)
	}
	defer body.Close()

	var rd io.Reader = body
	if s.MaxUploadBytes > 0 {
		// bounds the decompressed size too
		rd = io.LimitReader(body, s.MaxUploadBytes+1)
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return "", s.bodyError(err)
	}
	if s.MaxUploadBytes > 0 && int64(len(data)) > s.MaxUploadBytes {
		return "", errors.NewPayloadTooLargeError(s.MaxUploadBytes)
	}
	return string(data), nil
}

func (s *Server) bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.NewPayloadTooLargeError(tooLarge.Limit)
	}
	return errors.NewBadRequestError("unreadable request body: " + err.Error())
}

func parseID(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewBadRequestError("invalid game id: " + idStr)
	}
	return id, nil
}
