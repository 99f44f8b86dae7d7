package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vytor/pgnvault/internal/errors"
	"github.com/vytor/pgnvault/internal/models"
	"github.com/vytor/pgnvault/internal/pgn"
	"github.com/vytor/pgnvault/internal/repository/sqlite"
	"github.com/vytor/pgnvault/internal/services"
	"github.com/vytor/pgnvault/internal/testutil"
)

type fixture struct {
	parse   services.ParseService
	imports services.ImportService
	games   services.GameService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, database) })

	patterns, err := pgn.Compile()
	require.NoError(t, err)

	repo := sqlite.NewGameRepository(database)
	parse := services.NewParseService(patterns)
	return fixture{
		parse:   parse,
		imports: services.NewImportService(parse, repo),
		games:   services.NewGameService(repo),
	}
}

func TestParseService_Parse(t *testing.T) {
	f := newFixture(t)

	games, err := f.parse.Parse(context.Background(), testutil.SampleBatch(4))
	require.NoError(t, err)
	require.Len(t, games, 4)

	results := []string{}
	for _, g := range games {
		results = append(results, g.Result.Value)
		assert.Equal(t, "1. e4 e5 2. Nf3 Nc6", g.Moves.Value)
	}
	assert.Equal(t, []string{"1-0", "0-1", "1/2-1/2", "1-0"}, results)
}

func TestParseService_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.parse.Parse(ctx, testutil.SampleBatch(1))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = f.parse.Segment(ctx, testutil.SampleBatch(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseService_Extractors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	game := "[Event \"E\"]\n[Broken]\n\n1. d4 {solid} d5 0-1"

	assert.Equal(t, []pgn.Tag{{Name: "Event", Value: "E"}}, f.parse.ExtractTags(ctx, game))
	_, skipped := f.parse.ExtractTagsWithDiagnostics(ctx, game)
	assert.Equal(t, []pgn.SkippedLine{{Line: 2, Text: "[Broken]"}}, skipped)
	assert.Equal(t, pgn.NewTag("Moves", "1. d4 d5"), f.parse.ExtractMoves(ctx, game))
	assert.Equal(t, pgn.NewTag("Result", "0-1"), f.parse.ExtractResult(ctx, game))
}

func TestImportService_Import(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	summary, err := f.imports.Import(ctx, testutil.SampleBatch(6))
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Games)
	assert.Len(t, summary.IDs, 6)
	assert.Equal(t, map[string]int{"1-0": 2, "0-1": 2, "1/2-1/2": 2}, summary.Results)

	games, total, err := f.games.ListGames(ctx, models.GameFilter{})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, games, 6)
	assert.Equal(t, "Game 1", games[0].Event)
	assert.NotEmpty(t, games[0].UID)
	assert.NotEqual(t, games[0].UID, games[1].UID)
}

func TestImportService_ImportEmpty(t *testing.T) {
	f := newFixture(t)

	summary, err := f.imports.Import(context.Background(), "no games here")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Games)
	assert.Empty(t, summary.IDs)
}

func TestImportService_ImportFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir := t.TempDir()

	var paths []string
	for i, n := range []int{2, 3, 1} {
		p := filepath.Join(dir, "batch"+string(rune('a'+i))+".pgn")
		require.NoError(t, os.WriteFile(p, []byte(testutil.SampleBatch(n)), 0o644))
		paths = append(paths, p)
	}

	summaries, err := f.imports.ImportFiles(ctx, paths, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	for i, n := range []int{2, 3, 1} {
		assert.Equal(t, paths[i], summaries[i].Source)
		assert.Equal(t, n, summaries[i].Games)
	}

	_, total, err := f.games.ListGames(ctx, models.GameFilter{})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
}

func TestImportService_ImportFilesMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.imports.ImportFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing.pgn")}, 1)
	assert.Error(t, err)
}

func TestGameService_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.games.GetGame(ctx, 404)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.As(err).Code)

	err = f.games.DeleteGame(ctx, 404)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.As(err).Code)
}

func TestGameService_ListValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, filter := range []models.GameFilter{{Limit: -1}, {Limit: 5000}, {Offset: -3}} {
		_, _, err := f.games.ListGames(ctx, filter)
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.As(err).Code)
	}
}

func TestGameService_GetAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	summary, err := f.imports.Import(ctx, testutil.SampleBatch(1))
	require.NoError(t, err)
	id := summary.IDs[0]

	game, err := f.games.GetGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Game 1", game.Event)
	assert.Equal(t, pgn.Parse(game.PGN), game.Extracted())

	require.NoError(t, f.games.DeleteGame(ctx, id))
	_, err = f.games.GetGame(ctx, id)
	assert.Error(t, err)
}
