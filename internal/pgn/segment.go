package pgn

import (
	"regexp"
	"strings"
)

// Segment returns every complete game found in data, in source order.
//
// A game runs from an [Event marker to the nearest following decisive result
// (1-0, 0-1 or 1/2-1/2). The undecided token "*" never ends a game, and a
// trailing game without a decisive result is dropped. Each returned string is
// an owned copy, so data can be released once Segment returns.
func Segment(data string, re *regexp.Regexp) []string {
	spans := re.FindAllStringIndex(data, -1)
	return parallelMap(spans, func(span []int) string {
		return strings.Clone(data[span[0]:span[1]])
	})
}

// Segment splits data with the game pattern held by p.
func (p *Patterns) Segment(data string) []string {
	return Segment(data, p.game)
}
