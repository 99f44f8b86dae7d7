package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/vytor/pgnvault/internal/errors"
	"github.com/vytor/pgnvault/internal/logger"
)

var errNoDatabase = stderrors.New("no database configured")

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady returns 200 once the catalog answers a ping, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if err := s.checkDatabase(ctx); err != nil {
		log.Warn("readiness check failed - database: %v", err)
		handleError(w, r, errors.NewUnavailableError("database unavailable", err))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func (s *Server) checkDatabase(ctx context.Context) error {
	if s.DB == nil {
		return errNoDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.DB.PingContext(ctx)
}
