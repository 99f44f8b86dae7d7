package services

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/vytor/pgnvault/internal/errors"
	"github.com/vytor/pgnvault/internal/logger"
	"github.com/vytor/pgnvault/internal/models"
	"github.com/vytor/pgnvault/internal/repository"
)

// maxPageSize caps GameFilter.Limit for catalog listings.
const maxPageSize = 1000

// GameService handles catalog reads and deletes.
type GameService interface {
	GetGame(ctx context.Context, id int64) (*models.Game, error)
	ListGames(ctx context.Context, filter models.GameFilter) ([]models.Game, int, error)
	DeleteGame(ctx context.Context, id int64) error
}

type gameService struct {
	gameRepo repository.GameRepository
}

// NewGameService creates a new GameService
func NewGameService(gameRepo repository.GameRepository) GameService {
	return &gameService{gameRepo: gameRepo}
}

func (s *gameService) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting game: id=%d", id)

	game, err := s.gameRepo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("game", id)
		}
		log.Error("failed to get game: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if game == nil {
		return nil, errors.NewNotFoundError("game", id)
	}
	return game, nil
}

func (s *gameService) ListGames(ctx context.Context, filter models.GameFilter) ([]models.Game, int, error) {
	log := logger.FromContext(ctx)

	if filter.Limit < 0 {
		return nil, 0, errors.NewValidationError("limit", "must not be negative")
	}
	if filter.Limit > maxPageSize {
		return nil, 0, errors.NewValidationError("limit", "must not exceed 1000")
	}
	if filter.Offset < 0 {
		return nil, 0, errors.NewValidationError("offset", "must not be negative")
	}

	games, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list games: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.gameRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count games: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	log.Debug("listed %d of %d games", len(games), total)
	return games, total, nil
}

func (s *gameService) DeleteGame(ctx context.Context, id int64) error {
	if err := s.gameRepo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFoundError("game", id)
		}
		logger.FromContext(ctx).Error("failed to delete game: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}
