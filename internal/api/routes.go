package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(bodyLimitMiddleware(s.MaxUploadBytes))
			r.Post("/parse", s.handleParse)
			r.Post("/tags", s.handleTags)
			r.Post("/moves", s.handleMoves)
			r.Post("/result", s.handleResult)
			r.Post("/import", s.handleImport)
			r.Post("/import/async", s.handleImportAsync)
		})
		r.Get("/import/jobs/{id}", s.handleImportStatus)

		r.Get("/games", s.handleGames)
		r.Get("/games/{id}", s.handleGameDetail)
		r.Get("/games/{id}/pgn", s.handleGamePGN)
		r.Delete("/games/{id}", s.handleDeleteGame)
	})
	return r
}
