package repository

import (
	"context"

	"github.com/vytor/pgnvault/internal/models"
)

// GameRepository handles game catalog access. Get and Delete return
// sql.ErrNoRows when the game does not exist.
type GameRepository interface {
	Get(ctx context.Context, id int64) (*models.Game, error)
	List(ctx context.Context, filter models.GameFilter) ([]models.Game, error)
	Count(ctx context.Context, filter models.GameFilter) (int, error)
	Insert(ctx context.Context, game models.Game) (int64, error)
	InsertBatch(ctx context.Context, games []models.Game) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}
