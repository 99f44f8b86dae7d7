package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vytor/pgnvault/internal/logger"
	"github.com/vytor/pgnvault/internal/models"
	"github.com/vytor/pgnvault/internal/repository"
	"github.com/vytor/pgnvault/internal/source"
)

// ImportSummary describes one finished import.
type ImportSummary struct {
	Source   string         `json:"source,omitempty"`
	Games    int            `json:"games"`
	IDs      []int64        `json:"ids"`
	Results  map[string]int `json:"results"`
	Duration time.Duration  `json:"duration_ns"`
}

// ImportService parses PGN text and stores the games in the catalog.
type ImportService interface {
	Import(ctx context.Context, text string) (ImportSummary, error)
	ImportFile(ctx context.Context, path string) (ImportSummary, error)
	ImportFiles(ctx context.Context, paths []string, readers int) ([]ImportSummary, error)
}

type importService struct {
	parser ParseService
	games  repository.GameRepository
	newUID func() string
}

// NewImportService creates a new ImportService
func NewImportService(parser ParseService, games repository.GameRepository) ImportService {
	return &importService{parser: parser, games: games, newUID: uuid.NewString}
}

func (s *importService) Import(ctx context.Context, text string) (ImportSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("import")
	start := time.Now()

	parsed, err := s.parser.Parse(ctx, text)
	if err != nil {
		return ImportSummary{}, err
	}

	summary := ImportSummary{
		Games:   len(parsed),
		IDs:     make([]int64, 0, len(parsed)),
		Results: map[string]int{},
	}
	records := make([]models.Game, 0, len(parsed))
	for _, g := range parsed {
		records = append(records, models.NewGame(s.newUID(), g))
		summary.Results[g.Result.Value]++
	}

	// One transaction for the whole text: a failed import stores nothing.
	ids, err := s.games.InsertBatch(ctx, records)
	if err != nil {
		log.Error("failed to store %d games: %v", len(records), err)
		return ImportSummary{}, err
	}
	summary.IDs = append(summary.IDs, ids...)

	summary.Duration = time.Since(start)
	log.Info("imported %d games in %v", summary.Games, summary.Duration)
	return summary, nil
}

func (s *importService) ImportFile(ctx context.Context, path string) (ImportSummary, error) {
	text, err := source.ReadAll(ctx, path)
	if err != nil {
		return ImportSummary{}, err
	}
	summary, err := s.Import(ctx, text)
	summary.Source = path
	return summary, err
}

// ImportFiles reads up to readers files at once and stores them one file at a
// time, in the order given. The first failure cancels the remaining reads.
func (s *importService) ImportFiles(ctx context.Context, paths []string, readers int) ([]ImportSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("import")
	if readers <= 0 {
		readers = 1
	}

	texts := make([]chan string, len(paths))
	for i := range texts {
		texts[i] = make(chan string, 1)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(readers + 1)

	summaries := make([]ImportSummary, 0, len(paths))
	g.Go(func() error {
		for i, path := range paths {
			var text string
			select {
			case <-ctx.Done():
				return ctx.Err()
			case text = <-texts[i]:
			}
			summary, err := s.Import(ctx, text)
			if err != nil {
				return err
			}
			summary.Source = path
			summaries = append(summaries, summary)
		}
		return nil
	})

	for i, path := range paths {
		g.Go(func() error {
			text, err := source.ReadAll(ctx, path)
			if err != nil {
				return err
			}
			texts[i] <- text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("import of %d files stopped: %v", len(paths), err)
		return summaries, err
	}
	return summaries, nil
}
