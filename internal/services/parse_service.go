package services

import (
	"context"
	"time"

	"github.com/vytor/pgnvault/internal/logger"
	"github.com/vytor/pgnvault/internal/pgn"
)

// ParseService exposes the extractors to the transport layer.
type ParseService interface {
	Parse(ctx context.Context, text string) ([]pgn.Game, error)
	Segment(ctx context.Context, text string) ([]string, error)
	ExtractTags(ctx context.Context, game string) []pgn.Tag
	ExtractTagsWithDiagnostics(ctx context.Context, game string) ([]pgn.Tag, []pgn.SkippedLine)
	ExtractMoves(ctx context.Context, game string) pgn.Tag
	ExtractResult(ctx context.Context, game string) pgn.Tag
}

// parseChunkSize is how many games are parsed between cancellation checks.
const parseChunkSize = 4096

type parseService struct {
	patterns *pgn.Patterns
}

// NewParseService creates a ParseService over compiled patterns.
func NewParseService(patterns *pgn.Patterns) ParseService {
	return &parseService{patterns: patterns}
}

// Parse segments text and parses every game. ctx is checked before
// segmenting and between chunks of parseChunkSize games, so a cancelled
// import of a large dump stops within one chunk.
func (s *parseService) Parse(ctx context.Context, text string) ([]pgn.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).WithPrefix("parse")
	start := time.Now()

	blocks := s.patterns.Segment(text)
	games := make([]pgn.Game, 0, len(blocks))
	for lo := 0; lo < len(blocks); lo += parseChunkSize {
		if err := ctx.Err(); err != nil {
			log.Warn("parse cancelled after %d of %d games", len(games), len(blocks))
			return nil, err
		}
		hi := min(lo+parseChunkSize, len(blocks))
		games = append(games, s.patterns.ParseBlocks(blocks[lo:hi])...)
	}

	log.Debug("parsed %d games from %d bytes in %v", len(games), len(text), time.Since(start))
	return games, nil
}

func (s *parseService) Segment(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blocks := s.patterns.Segment(text)
	logger.FromContext(ctx).WithPrefix("parse").Debug("segmented %d games from %d bytes", len(blocks), len(text))
	return blocks, nil
}

func (s *parseService) ExtractTags(ctx context.Context, game string) []pgn.Tag {
	return s.patterns.ExtractTags(game)
}

func (s *parseService) ExtractTagsWithDiagnostics(ctx context.Context, game string) ([]pgn.Tag, []pgn.SkippedLine) {
	tags, skipped := s.patterns.ExtractTagsWithDiagnostics(game)
	if len(skipped) > 0 {
		logger.FromContext(ctx).WithPrefix("parse").Debug("skipped %d malformed tag lines", len(skipped))
	}
	return tags, skipped
}

func (s *parseService) ExtractMoves(ctx context.Context, game string) pgn.Tag {
	return s.patterns.ExtractMoves(game)
}

func (s *parseService) ExtractResult(ctx context.Context, game string) pgn.Tag {
	return s.patterns.ExtractResult(game)
}
