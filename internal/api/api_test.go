package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/pgnvault/internal/db"
	"github.com/vytor/pgnvault/internal/jobs"
	"github.com/vytor/pgnvault/internal/pgn"
	"github.com/vytor/pgnvault/internal/repository/sqlite"
	"github.com/vytor/pgnvault/internal/services"
	"github.com/vytor/pgnvault/internal/testutil"
	"github.com/vytor/pgnvault/internal/worker"
)

func newTestServer(t *testing.T, maxUpload int64) (*Server, http.Handler) {
	t.Helper()
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { testutil.MustClose(t, database) })

	patterns, err := pgn.Compile()
	require.NoError(t, err)

	repo := sqlite.NewGameRepository(database.DB)
	parse := services.NewParseService(patterns)
	imports := services.NewImportService(parse, repo)

	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	s := &Server{
		DB:             database,
		ParseService:   parse,
		ImportService:  imports,
		GameService:    services.NewGameService(repo),
		JobQueue:       jobs.NewWorkerQueue(pool, imports),
		MaxUploadBytes: maxUpload,
	}
	return s, s.Routes()
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	_, h := newTestServer(t, 0)

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady_NoDatabase(t *testing.T) {
	s := &Server{}
	rec := do(t, s.Routes(), http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "UNAVAILABLE", decode[errorBody](t, rec).Error.Code)
}

func TestParse(t *testing.T) {
	_, h := newTestServer(t, 0)

	rec := do(t, h, http.MethodPost, "/api/parse", []byte(testutil.SampleBatch(3)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	games := decode[[]pgn.Game](t, rec)
	require.Len(t, games, 3)
	assert.Equal(t, pgn.NewTag("Event", "Game 1"), games[0].Tags[0])
	assert.Equal(t, "1. e4 e5 2. Nf3 Nc6", games[0].Moves.Value)
	assert.Equal(t, "0-1", games[1].Result.Value)
	assert.Equal(t, "1/2-1/2", games[2].Result.Value)
}

func TestParse_Empty(t *testing.T) {
	_, h := newTestServer(t, 0)

	rec := do(t, h, http.MethodPost, "/api/parse", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestParse_Zstd(t *testing.T) {
	_, h := newTestServer(t, 0)

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	body := enc.EncodeAll([]byte(testutil.SampleBatch(5)), nil)
	require.NoError(t, enc.Close())

	rec := do(t, h, http.MethodPost, "/api/parse", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]pgn.Game](t, rec), 5)
}

func TestParse_TooLarge(t *testing.T) {
	_, h := newTestServer(t, 64)

	rec := do(t, h, http.MethodPost, "/api/parse", []byte(testutil.SampleBatch(2)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decode[errorBody](t, rec).Error.Code)
}

func TestParse_TooLargeWithoutContentLength(t *testing.T) {
	_, h := newTestServer(t, 64)

	req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(testutil.SampleBatch(2)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestExtractorEndpoints(t *testing.T) {
	_, h := newTestServer(t, 0)
	game := []byte("[Event \"E\"]\n[Broken]\n[White \"W\"]\n\n1. d4 {solid} d5 2. c4 0-1")

	rec := do(t, h, http.MethodPost, "/api/tags", game)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tags":[{"name":"Event","value":"E"},{"name":"White","value":"W"}]}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/tags?diagnostics=1", game)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tags":[{"name":"Event","value":"E"},{"name":"White","value":"W"}],
		"skipped":[{"line":2,"text":"[Broken]"}]}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/moves", game)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"Moves","value":"1. d4 d5 2. c4"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/result", game)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"Result","value":"0-1"}`, rec.Body.String())
}

func TestTagsDiagnostics_NothingSkipped(t *testing.T) {
	_, h := newTestServer(t, 0)

	rec := do(t, h, http.MethodPost, "/api/tags?diagnostics=true", []byte(`[Event "E"]`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tags":[{"name":"Event","value":"E"}],"skipped":[]}`, rec.Body.String())
}

func TestImportAndCatalog(t *testing.T) {
	_, h := newTestServer(t, 0)

	rec := do(t, h, http.MethodPost, "/api/import?label=batch", []byte(testutil.SampleBatch(4)))
	require.Equal(t, http.StatusCreated, rec.Code)
	summary := decode[services.ImportSummary](t, rec)
	assert.Equal(t, "batch", summary.Source)
	assert.Equal(t, 4, summary.Games)
	require.Len(t, summary.IDs, 4)

	rec = do(t, h, http.MethodGet, "/api/games?player=White%200&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[gamesResponse](t, rec)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Games, 1)
	assert.Equal(t, "Game 1", list.Games[0].Event)

	id := summary.IDs[1]
	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/games/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Game 2", decode[gamesResponse](t, do(t, h, http.MethodGet, "/api/games?event=Game%202", nil)).Games[0].Event)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/games/%d/pgn", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-chess-pgn", rec.Header().Get("Content-Type"))
	parsed := pgn.Parse(rec.Body.String())
	assert.Equal(t, "0-1", parsed.Result.Value)
	assert.Equal(t, "1. e4 e5 2. Nf3 Nc6", parsed.Moves.Value)

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/api/games/%d", id), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/games/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorBody](t, rec).Error.Code)
}

func TestGames_BadInput(t *testing.T) {
	_, h := newTestServer(t, 0)

	for _, target := range []string{"/api/games?limit=abc", "/api/games?limit=5000", "/api/games?offset=-1"} {
		rec := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec := do(t, h, http.MethodGet, "/api/games/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode[errorBody](t, rec).Error.Code)
}

func TestGames_EmptyCatalog(t *testing.T) {
	_, h := newTestServer(t, 0)

	rec := do(t, h, http.MethodGet, "/api/games", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"games":[],"total":0,"limit":0,"offset":0}`, rec.Body.String())
}

func TestImportAsync(t *testing.T) {
	_, h := newTestServer(t, 0)

	rec := do(t, h, http.MethodPost, "/api/import/async?label=bg", []byte(testutil.SampleBatch(3)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	queued := decode[enqueueResponse](t, rec)
	require.NotEmpty(t, queued.ID)
	assert.Equal(t, queued.StatusURL, rec.Header().Get("Location"))

	var status jobs.Status
	require.Eventually(t, func() bool {
		status = decode[jobs.Status](t, do(t, h, http.MethodGet, queued.StatusURL, nil))
		return status.State != jobs.StatePending
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, jobs.StateCompleted, status.State)
	require.NotNil(t, status.Summary)
	assert.Equal(t, 3, status.Summary.Games)
	assert.Equal(t, "bg", status.Summary.Source)

	list := decode[gamesResponse](t, do(t, h, http.MethodGet, "/api/games", nil))
	assert.Equal(t, 3, list.Total)
}

func TestImportAsync_PoolStopped(t *testing.T) {
	s, h := newTestServer(t, 0)
	pool := worker.NewPool(1, 1)
	pool.Stop()
	s.JobQueue = jobs.NewWorkerQueue(pool, s.ImportService)

	rec := do(t, h, http.MethodPost, "/api/import/async", []byte(testutil.SampleBatch(1)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestImportStatus_Unknown(t *testing.T) {
	_, h := newTestServer(t, 0)

	rec := do(t, h, http.MethodGet, "/api/import/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode[errorBody](t, rec).Error.Code)
}

func TestLoggingMiddleware_KeepsRequestID(t *testing.T) {
	h := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "abc123", rec.Header().Get("X-Request-ID"))
}
