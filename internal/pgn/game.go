package pgn

import (
	"strings"
)

// Game is one game block split into its parts.
type Game struct {
	Tags   []Tag `json:"tags"`
	Moves  Tag   `json:"moves"`
	Result Tag   `json:"result"`
}

// Tag returns the value of the first tag called name.
func (g Game) Tag(name string) (string, bool) {
	for _, t := range g.Tags {
		if t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}

// PGN writes the game back out: tag lines, a blank line, then the movetext
// followed by the result token.
func (g Game) PGN() string {
	var sb strings.Builder
	for _, t := range g.Tags {
		sb.WriteString(t.String())
		sb.WriteByte('\n')
	}
	if len(g.Tags) > 0 {
		sb.WriteByte('\n')
	}
	if g.Moves.Value != "" {
		sb.WriteString(g.Moves.Value)
		sb.WriteByte(' ')
	}
	result := g.Result.Value
	if result == "" {
		result = ResultUnknown
	}
	sb.WriteString(result)
	sb.WriteByte('\n')
	return sb.String()
}

// Parse runs the tag, move and result extractors over one game block.
func Parse(game string) Game {
	p, err := Default()
	if err != nil {
		return Game{
			Tags:   []Tag{},
			Moves:  NewTag(MovesTagName, ""),
			Result: NewTag(ResultTagName, ResultUnknown),
		}
	}
	return p.Parse(game)
}

// Parse is the package-level Parse using p.
func (p *Patterns) Parse(game string) Game {
	return Game{
		Tags:   p.ExtractTags(game),
		Moves:  p.ExtractMoves(game),
		Result: p.ExtractResult(game),
	}
}

// ParseAll segments data and parses every game, keeping source order.
func ParseAll(data string) ([]Game, error) {
	p, err := Default()
	if err != nil {
		return nil, err
	}
	return p.ParseAll(data), nil
}

// ParseAll is the package-level ParseAll using p.
func (p *Patterns) ParseAll(data string) []Game {
	return p.ParseBlocks(p.Segment(data))
}

// ParseBlocks parses already segmented game blocks in parallel, keeping
// their order.
func (p *Patterns) ParseBlocks(blocks []string) []Game {
	return parallelMap(blocks, p.Parse)
}
