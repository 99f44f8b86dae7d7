package pgn

import (
	"slices"
	"strings"
	"unicode"
)

// MovesTagName is the fixed name of the tag returned by ExtractMoves.
const MovesTagName = "Moves"

// ExtractMoves returns the movetext of game as a single line.
//
// Tag lines and blank lines are dropped and the rest joined with spaces, so
// movetext wrapped over several lines becomes one. Brace comments are
// removed, whitespace is collapsed and a trailing result token is cut.
// Parenthesized variations are kept as they are.
func ExtractMoves(game string) Tag {
	p, err := Default()
	if err != nil {
		return NewTag(MovesTagName, "")
	}
	return p.ExtractMoves(game)
}

// ExtractMoves is the package-level ExtractMoves using p.
func (p *Patterns) ExtractMoves(game string) Tag {
	var lines []string
	for _, line := range strings.Split(game, "\n") {
		if strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), "[") {
			continue
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	text := strings.Join(lines, " ")

	text = p.comment.ReplaceAllString(text, "")
	text = strings.TrimSpace(p.whitespace.ReplaceAllString(text, " "))

	tokens := strings.Fields(text)
	if n := len(tokens); n > 0 && isResultToken(tokens[n-1]) {
		text = strings.Join(tokens[:n-1], " ")
	}
	return NewTag(MovesTagName, strings.TrimSpace(text))
}

var resultTokens = []string{ResultWhiteWin, ResultBlackWin, ResultDraw, ResultUnknown}

func isResultToken(s string) bool {
	return slices.Contains(resultTokens, s)
}
