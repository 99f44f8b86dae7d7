package worker

import (
	"context"

	"github.com/vytor/pgnvault/internal/logger"
	"github.com/vytor/pgnvault/internal/services"
)

// ImportJob parses and stores one PGN upload in the background.
type ImportJob struct {
	ImportService services.ImportService
	Label         string
	Text          string
	// OnDone, when set, receives the outcome after Run finishes.
	OnDone func(services.ImportSummary, error)
}

func (j *ImportJob) Name() string { return "import_pgn" }

func (j *ImportJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"label": j.Label,
		"bytes": len(j.Text),
	})
	log.Info("starting background import")

	summary, err := j.ImportService.Import(ctx, j.Text)
	summary.Source = j.Label
	if j.OnDone != nil {
		j.OnDone(summary, err)
	}
	if err != nil {
		return err
	}
	log.Info("background import stored %d games", summary.Games)
	return nil
}
