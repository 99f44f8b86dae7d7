package api

import (
	"net/http"

	"github.com/vytor/pgnvault/internal/logger"
	"github.com/vytor/pgnvault/internal/pgn"
)

type tagsResponse struct {
	Tags []pgn.Tag `json:"tags"`
}

type tagDiagnosticsResponse struct {
	Tags    []pgn.Tag         `json:"tags"`
	Skipped []pgn.SkippedLine `json:"skipped"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	text, err := s.readPGN(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	games, err := s.ParseService.Parse(r.Context(), text)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Debug("parsed %d games", len(games))
	writeJSON(w, r, http.StatusOK, games)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	text, err := s.readPGN(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if !queryFlag(r, "diagnostics") {
		writeJSON(w, r, http.StatusOK, tagsResponse{Tags: s.ParseService.ExtractTags(r.Context(), text)})
		return
	}

	tags, skipped := s.ParseService.ExtractTagsWithDiagnostics(r.Context(), text)
	if skipped == nil {
		skipped = []pgn.SkippedLine{}
	}
	writeJSON(w, r, http.StatusOK, tagDiagnosticsResponse{Tags: tags, Skipped: skipped})
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	text, err := s.readPGN(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.ParseService.ExtractMoves(r.Context(), text))
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	text, err := s.readPGN(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.ParseService.ExtractResult(r.Context(), text))
}

func queryFlag(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}
