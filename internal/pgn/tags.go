package pgn

import (
	"strings"
)

// Tag is one [Name "Value"] pair. Moves and Result records reuse it with a
// fixed name.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewTag returns a tag with the given name and value.
func NewTag(name, value string) Tag {
	return Tag{Name: name, Value: value}
}

func (t Tag) String() string {
	return "[" + t.Name + ` "` + t.Value + `"]`
}

// SkippedLine is a bracket line that produced no tag.
type SkippedLine struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// ExtractTags returns the tags of game in source order. Lines that look like
// tags but do not match [Name "Value"] are ignored.
func ExtractTags(game string) []Tag {
	p, err := Default()
	if err != nil {
		return []Tag{}
	}
	return p.ExtractTags(game)
}

// ExtractTags is the package-level ExtractTags using p.
func (p *Patterns) ExtractTags(game string) []Tag {
	matches := p.tag.FindAllStringSubmatch(game, -1)
	return parallelMap(matches, func(m []string) Tag {
		return Tag{Name: m[1], Value: m[2]}
	})
}

// ExtractTagsWithDiagnostics behaves like ExtractTags and also reports every
// line starting with '[' that did not yield a tag.
func ExtractTagsWithDiagnostics(game string) ([]Tag, []SkippedLine) {
	p, err := Default()
	if err != nil {
		return []Tag{}, nil
	}
	return p.ExtractTagsWithDiagnostics(game)
}

// ExtractTagsWithDiagnostics is the package-level variant using p.
func (p *Patterns) ExtractTagsWithDiagnostics(game string) ([]Tag, []SkippedLine) {
	tags := p.ExtractTags(game)

	var skipped []SkippedLine
	for i, line := range strings.Split(game, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "[") {
			continue
		}
		if !p.tag.MatchString(trimmed) {
			skipped = append(skipped, SkippedLine{Line: i + 1, Text: trimmed})
		}
	}
	return tags, skipped
}
