package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/vytor/pgnvault/internal/config"
	"github.com/vytor/pgnvault/internal/db"
	"github.com/vytor/pgnvault/internal/logger"
	"github.com/vytor/pgnvault/internal/pgn"
	"github.com/vytor/pgnvault/internal/repository/sqlite"
	"github.com/vytor/pgnvault/internal/services"
	"github.com/vytor/pgnvault/internal/source"
)

type options struct {
	dbPath   string
	dryRun   bool
	readers  int
	lichess  string
	maxBytes int64
	files    []string
}

// dryRunLine is one game printed by -dry-run.
type dryRunLine struct {
	Source string `json:"source"`
	pgn.Game
}

func main() {
	cfg := config.Load()
	logger.SetDefault(logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(false),
	))
	pgn.SetMaxWorkers(cfg.ParseConcurrency)

	var opts options
	flag.StringVar(&opts.dbPath, "db", cfg.DBPath, "SQLite catalog to import into")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "print extracted games as JSON lines instead of storing them")
	flag.IntVar(&opts.readers, "readers", 2, "files read and decompressed concurrently")
	flag.StringVar(&opts.lichess, "lichess", "", "comma-separated YYYY-MM months of the lichess rated standard dump to download")
	flag.Int64Var(&opts.maxBytes, "max-bytes", 0, "cap on the decompressed size of a downloaded source, 0 for none")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options] FILE|URL...\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\nImport PGN files (plain or .zst, local or http(s)) into the game catalog.\n")
		fmt.Fprintf(os.Stderr, "\nA game runs from its [Event tag to the first 1-0, 0-1 or 1/2-1/2 in the text.\n")
		fmt.Fprintf(os.Stderr, "In dumps that carry a [Result \"...\"] tag (lichess does) that tag value ends\n")
		fmt.Fprintf(os.Stderr, "the game: only the tags before it are kept, movetext and result are lost.\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	opts.files = flag.Args()

	if len(opts.files) == 0 && opts.lichess == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// sources returns the inputs to read, lichess months first.
func (o options) sources() ([]string, error) {
	var paths []string
	if o.lichess != "" {
		for _, month := range strings.Split(o.lichess, ",") {
			url, err := source.ParseLichessMonth(strings.TrimSpace(month))
			if err != nil {
				return nil, err
			}
			paths = append(paths, url)
		}
	}
	return append(paths, o.files...), nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	paths, err := opts.sources()
	if err != nil {
		return err
	}
	if opts.maxBytes > 0 {
		source.DefaultClient = source.NewClient(source.WithMaxBytes(opts.maxBytes))
	}

	patterns, err := pgn.Default()
	if err != nil {
		return err
	}
	parser := services.NewParseService(patterns)

	if opts.dryRun {
		return dryRun(ctx, parser, paths, out)
	}

	database, err := db.Open(opts.dbPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer database.Close()

	importer := services.NewImportService(parser, sqlite.NewGameRepository(database.DB))
	summaries, err := importer.ImportFiles(ctx, paths, opts.readers)

	enc := json.NewEncoder(out)
	for _, s := range summaries {
		if encErr := enc.Encode(s); encErr != nil {
			return encErr
		}
	}
	return err
}

func dryRun(ctx context.Context, parser services.ParseService, files []string, out io.Writer) error {
	enc := json.NewEncoder(out)
	for _, path := range files {
		text, err := source.ReadAll(ctx, path)
		if err != nil {
			return err
		}
		games, err := parser.Parse(ctx, text)
		if err != nil {
			return err
		}
		for _, g := range games {
			if err := enc.Encode(dryRunLine{Source: path, Game: g}); err != nil {
				return err
			}
		}
		logger.Info("%s: %d games", path, len(games))
	}
	return nil
}
