package api

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/pgnvault/internal/errors"
	"github.com/vytor/pgnvault/internal/logger"
	"github.com/vytor/pgnvault/internal/models"
	"github.com/vytor/pgnvault/internal/worker"
)

type gamesResponse struct {
	Games  []models.Game `json:"games"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type enqueueResponse struct {
	ID        string `json:"id"`
	StatusURL string `json:"status_url"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	text, err := s.readPGN(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	summary, err := s.ImportService.Import(r.Context(), text)
	if err != nil {
		handleError(w, r, err)
		return
	}
	summary.Source = r.URL.Query().Get("label")
	writeJSON(w, r, http.StatusCreated, summary)
}

func (s *Server) handleImportAsync(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	text, err := s.readPGN(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	label := r.URL.Query().Get("label")
	id, err := s.JobQueue.EnqueueImport(label, text)
	if err != nil {
		if stderrors.Is(err, worker.ErrQueueFull) || stderrors.Is(err, worker.ErrPoolStopped) {
			handleError(w, r, errors.NewUnavailableError("import queue cannot accept work", err))
			return
		}
		handleError(w, r, err)
		return
	}

	log.Info("import job queued: id=%s label=%q", id, label)
	statusURL := "/api/import/jobs/" + id
	w.Header().Set("Location", statusURL)
	writeJSON(w, r, http.StatusAccepted, enqueueResponse{ID: id, StatusURL: statusURL})
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, ok := s.JobQueue.Status(id)
	if !ok {
		handleError(w, r, errors.NewNotFoundError("import job", id))
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.GameFilter{
		Event:  q.Get("event"),
		White:  q.Get("white"),
		Black:  q.Get("black"),
		Result: q.Get("result"),
		Player: q.Get("player"),
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		handleError(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		handleError(w, r, err)
		return
	}

	games, total, err := s.GameService.ListGames(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if games == nil {
		games = []models.Game{}
	}
	writeJSON(w, r, http.StatusOK, gamesResponse{
		Games:  games,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (s *Server) handleGameDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	game, err := s.GameService.GetGame(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, game)
}

func (s *Server) handleGamePGN(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	game, err := s.GameService.GetGame(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-chess-pgn")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(game.Extracted().PGN()))
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.GameService.DeleteGame(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("deleted game: id=%d", id)
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(name, "must be an integer")
	}
	return n, nil
}
