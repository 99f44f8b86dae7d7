package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/pgnvault/internal/logger"
	"github.com/vytor/pgnvault/internal/models"
	"github.com/vytor/pgnvault/internal/pgn"
	"github.com/vytor/pgnvault/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var gameColumns = []string{
	"id", "game_uid", "event", "site", "white", "black", "result", "moves", "pgn", "created_at",
}

const (
	insertGameSQL = `
INSERT INTO games (game_uid, event, site, white, black, result, moves, pgn)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`
	insertTagSQL = `INSERT INTO game_tags (game_id, position, name, value) VALUES (?, ?, ?, ?)`
)

type gameRepository struct {
	db *sql.DB
}

// NewGameRepository creates a new GameRepository implementation
func NewGameRepository(db *sql.DB) repository.GameRepository {
	return &gameRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (models.Game, error) {
	var g models.Game
	err := row.Scan(&g.ID, &g.UID, &g.Event, &g.Site, &g.White, &g.Black, &g.Result, &g.Moves, &g.PGN, &g.CreatedAt)
	return g, err
}

func (r *gameRepository) Get(ctx context.Context, id int64) (*models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("getting game: id=%d", id)

	query, args, err := sqlBuilder.Select(gameColumns...).From("games").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	g, err := scanGame(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("game not found: id=%d", id)
		} else {
			log.Error("failed to get game: %v", err)
		}
		return nil, err
	}

	tags, err := r.loadTags(ctx, []int64{g.ID})
	if err != nil {
		return nil, err
	}
	g.Tags = tags[g.ID]
	log.Debug("game found: white=%s, black=%s, result=%s", g.White, g.Black, g.Result)
	return &g, nil
}

func applyFilter(query squirrel.SelectBuilder, filter models.GameFilter) squirrel.SelectBuilder {
	if filter.Event != "" {
		query = query.Where(squirrel.Eq{"event": filter.Event})
	}
	if filter.White != "" {
		query = query.Where(squirrel.Eq{"white": filter.White})
	}
	if filter.Black != "" {
		query = query.Where(squirrel.Eq{"black": filter.Black})
	}
	if filter.Result != "" {
		query = query.Where(squirrel.Eq{"result": filter.Result})
	}
	if filter.Player != "" {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"white": filter.Player},
			squirrel.Eq{"black": filter.Player},
		})
	}
	return query
}

func (r *gameRepository) List(ctx context.Context, filter models.GameFilter) ([]models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("listing games with filter: event=%s, white=%s, black=%s, result=%s, player=%s",
		filter.Event, filter.White, filter.Black, filter.Result, filter.Player)

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := max(filter.Offset, 0)

	query, args, err := applyFilter(sqlBuilder.Select(gameColumns...).From("games"), filter).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	games, err := r.queryGames(ctx, query, args)
	if err != nil {
		log.Error("failed to list games: %v", err)
		return nil, err
	}
	if len(games) == 0 {
		return games, nil
	}

	ids := make([]int64, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	tags, err := r.loadTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range games {
		games[i].Tags = tags[games[i].ID]
	}

	log.Debug("found %d games", len(games))
	return games, nil
}

// queryGames drains and closes the result set before returning, so the
// single catalog connection is free for follow-up queries.
func (r *gameRepository) queryGames(ctx context.Context, query string, args []any) ([]models.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (r *gameRepository) loadTags(ctx context.Context, ids []int64) (map[int64][]pgn.Tag, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	query, args, err := sqlBuilder.Select("game_id", "name", "value").
		From("game_tags").
		Where(squirrel.Eq{"game_id": ids}).
		OrderBy("game_id", "position").
		ToSql()
	if err != nil {
		log.Error("failed to build tag query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to load tags: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]pgn.Tag, len(ids))
	for _, id := range ids {
		out[id] = []pgn.Tag{}
	}
	for rows.Next() {
		var (
			id  int64
			tag pgn.Tag
		)
		if err := rows.Scan(&id, &tag.Name, &tag.Value); err != nil {
			log.Error("failed to scan tag row: %v", err)
			return nil, err
		}
		out[id] = append(out[id], tag)
	}
	return out, rows.Err()
}

func (r *gameRepository) Count(ctx context.Context, filter models.GameFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	query, args, err := applyFilter(sqlBuilder.Select("COUNT(*)").From("games"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Error("failed to count games: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *gameRepository) Insert(ctx context.Context, g models.Game) (int64, error) {
	ids, err := r.InsertBatch(ctx, []models.Game{g})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func (r *gameRepository) InsertBatch(ctx context.Context, games []models.Game) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("batch inserting %d games", len(games))

	if len(games) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(games))
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		gameStmt, err := tx.PrepareContext(ctx, insertGameSQL)
		if err != nil {
			log.Error("failed to prepare game insert: %v", err)
			return err
		}
		defer gameStmt.Close()

		tagStmt, err := tx.PrepareContext(ctx, insertTagSQL)
		if err != nil {
			log.Error("failed to prepare tag insert: %v", err)
			return err
		}
		defer tagStmt.Close()

		for _, g := range games {
			res, err := gameStmt.ExecContext(ctx, g.UID, g.Event, g.Site, g.White, g.Black, g.Result, g.Moves, g.PGN)
			if err != nil {
				log.Error("failed to insert game uid=%s: %v", g.UID, err)
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for pos, tag := range g.Tags {
				if _, err := tagStmt.ExecContext(ctx, id, pos, tag.Name, tag.Value); err != nil {
					log.Error("failed to insert tag %s for game id=%d: %v", tag.Name, id, err)
					return err
				}
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("batch insert completed, %d games inserted", len(ids))
	return ids, nil
}

func (r *gameRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("deleting game: id=%d", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete game: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
