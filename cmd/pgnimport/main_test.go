package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/pgnvault/internal/services"
	"github.com/vytor/pgnvault/internal/source"
	"github.com/vytor/pgnvault/internal/testutil"
)

func writeFiles(t *testing.T) (plain, compressed string) {
	t.Helper()
	dir := t.TempDir()

	plain = filepath.Join(dir, "a.pgn")
	require.NoError(t, os.WriteFile(plain, []byte(testutil.SampleBatch(2)), 0o644))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed = filepath.Join(dir, "b.pgn.zst")
	require.NoError(t, os.WriteFile(compressed, enc.EncodeAll([]byte(testutil.SampleBatch(3)), nil), 0o644))
	require.NoError(t, enc.Close())
	return plain, compressed
}

func lines[T any](t *testing.T, out *bytes.Buffer) []T {
	t.Helper()
	var res []T
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var v T
		require.NoError(t, json.Unmarshal(sc.Bytes(), &v))
		res = append(res, v)
	}
	require.NoError(t, sc.Err())
	return res
}

func TestRun_DryRun(t *testing.T) {
	plain, compressed := writeFiles(t)

	var out bytes.Buffer
	err := run(context.Background(), options{dryRun: true, files: []string{plain, compressed}}, &out)
	require.NoError(t, err)

	games := lines[dryRunLine](t, &out)
	require.Len(t, games, 5)
	assert.Equal(t, plain, games[0].Source)
	assert.Equal(t, compressed, games[4].Source)
	assert.Equal(t, "1-0", games[0].Result.Value)
	assert.Equal(t, "1/2-1/2", games[4].Result.Value)
	assert.Equal(t, "1. e4 e5 2. Nf3 Nc6", games[2].Moves.Value)
}

func TestRun_Import(t *testing.T) {
	plain, compressed := writeFiles(t)
	dbPath := "file:" + filepath.Join(t.TempDir(), "catalog.db")

	var out bytes.Buffer
	err := run(context.Background(), options{dbPath: dbPath, readers: 2, files: []string{plain, compressed}}, &out)
	require.NoError(t, err)

	summaries := lines[services.ImportSummary](t, &out)
	require.Len(t, summaries, 2)
	assert.Equal(t, plain, summaries[0].Source)
	assert.Equal(t, 2, summaries[0].Games)
	assert.Equal(t, 3, summaries[1].Games)
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{dryRun: true, files: []string{filepath.Join(t.TempDir(), "nope.pgn")}}, &out)
	assert.Error(t, err)
	assert.Zero(t, out.Len())
}

func TestOptions_Sources(t *testing.T) {
	opts := options{lichess: "2021-09, 2020-12", files: []string{"local.pgn"}}
	paths, err := opts.sources()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://database.lichess.org/standard/lichess_db_standard_rated_2021-09.pgn.zst",
		"https://database.lichess.org/standard/lichess_db_standard_rated_2020-12.pgn.zst",
		"local.pgn",
	}, paths)

	_, err = options{lichess: "2021-9"}.sources()
	assert.Error(t, err)
}

func TestRun_RemoteDryRunWithLimit(t *testing.T) {
	original := source.DefaultClient
	t.Cleanup(func() { source.DefaultClient = original })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testutil.SampleBatch(4)))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := run(context.Background(), options{dryRun: true, files: []string{srv.URL + "/games.pgn"}}, &out)
	require.NoError(t, err)
	assert.Len(t, lines[dryRunLine](t, &out), 4)

	out.Reset()
	err = run(context.Background(), options{dryRun: true, maxBytes: 64, files: []string{srv.URL + "/games.pgn"}}, &out)
	assert.ErrorIs(t, err, source.ErrTooLarge)
}

// Lichess dumps place a Result tag before the movetext; its value ends the
// game, which is what the usage text warns about.
func TestRun_DryRunResultTagDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lichess.pgn")
	dump := "[Event \"Rated Blitz game\"]\n[White \"a\"]\n[Result \"1-0\"]\n[WhiteElo \"1500\"]\n\n1. e4 e5 2. Qh5 1-0\n"
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{dryRun: true, files: []string{path}}, &out))

	games := lines[dryRunLine](t, &out)
	require.Len(t, games, 1)
	assert.Len(t, games[0].Tags, 2)
	assert.Empty(t, games[0].Moves.Value)
	// the block ends at `"1-0`, which has no whitespace before the token
	assert.Equal(t, "*", games[0].Result.Value)
}
