package pgn

// ResultTagName is the fixed name of the tag returned by ExtractResult.
const ResultTagName = "Result"

// Result tokens.
const (
	ResultWhiteWin = "1-0"
	ResultBlackWin = "0-1"
	ResultDraw     = "1/2-1/2"
	ResultUnknown  = "*"
)

// ExtractResult returns the last decisive result token in game that follows
// whitespace, or "*" when there is none. A result inside a tag value such as
// [Result "1-0"] is preceded by a quote and is not counted.
func ExtractResult(game string) Tag {
	p, err := Default()
	if err != nil {
		return NewTag(ResultTagName, ResultUnknown)
	}
	return p.ExtractResult(game)
}

// ExtractResult is the package-level ExtractResult using p.
func (p *Patterns) ExtractResult(game string) Tag {
	matches := p.result.FindAllStringSubmatch(game, -1)
	if len(matches) == 0 {
		return NewTag(ResultTagName, ResultUnknown)
	}
	return NewTag(ResultTagName, matches[len(matches)-1][1])
}
