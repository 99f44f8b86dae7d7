package models

import (
	"time"

	"github.com/vytor/pgnvault/internal/pgn"
)

// Game is a parsed game as stored in the catalog. The columns Event, Site,
// White and Black are copies of the matching tags kept for filtering.
type Game struct {
	ID        int64     `json:"id"`
	UID       string    `json:"uid"`
	Event     string    `json:"event"`
	Site      string    `json:"site"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Result    string    `json:"result"`
	Moves     string    `json:"moves"`
	PGN       string    `json:"pgn"`
	Tags      []pgn.Tag `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

type GameFilter struct {
	Event  string
	White  string
	Black  string
	Result string
	Player string // either colour
	Limit  int
	Offset int
}

// NewGame builds a catalog record from an extracted game.
func NewGame(uid string, g pgn.Game) Game {
	tag := func(name string) string {
		v, _ := g.Tag(name)
		return v
	}
	return Game{
		UID:    uid,
		Event:  tag("Event"),
		Site:   tag("Site"),
		White:  tag("White"),
		Black:  tag("Black"),
		Result: g.Result.Value,
		Moves:  g.Moves.Value,
		PGN:    g.PGN(),
		Tags:   g.Tags,
	}
}

// Extracted converts the record back into the extractor's shape.
func (g Game) Extracted() pgn.Game {
	tags := g.Tags
	if tags == nil {
		tags = []pgn.Tag{}
	}
	return pgn.Game{
		Tags:   tags,
		Moves:  pgn.NewTag(pgn.MovesTagName, g.Moves),
		Result: pgn.NewTag(pgn.ResultTagName, g.Result),
	}
}
