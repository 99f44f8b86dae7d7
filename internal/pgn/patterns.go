package pgn

import (
	"fmt"
	"regexp"
	"sync"
)

// Pattern sources. They are static and covered by tests, so compiling them
// can only fail if one of these strings is edited.
const (
	// space matches exactly the runes unicode.IsSpace accepts. RE2's \s is
	// ASCII only.
	space = `[\s\v\x{85}\p{Z}]`

	gamePattern       = `(?s)\[Event.*?(?:1-0|0-1|1/2-1/2)`
	tagPattern        = `\[(\w+)` + space + `+"(.*?)"\]`
	commentPattern    = `\{[^}]*\}`
	whitespacePattern = space + `+`
	resultPattern     = space + `(1-0|0-1|1/2-1/2)`
)

// CompileError reports a pattern that failed to compile.
type CompileError struct {
	Name    string
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s pattern %q: %v", e.Name, e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Patterns holds every compiled expression used by the extractors.
// A *Patterns is immutable once built and safe for concurrent use.
type Patterns struct {
	game       *regexp.Regexp
	tag        *regexp.Regexp
	comment    *regexp.Regexp
	whitespace *regexp.Regexp
	result     *regexp.Regexp
}

// CompileGamePattern compiles the expression that delimits one game, from
// its [Event tag to the nearest decisive result token. Compile it once and
// pass it to every Segment call.
func CompileGamePattern() (*regexp.Regexp, error) {
	return compile("game", gamePattern)
}

// Compile builds a fresh set of patterns.
func Compile() (*Patterns, error) {
	var (
		p   Patterns
		err error
	)
	for _, c := range []struct {
		name string
		src  string
		dst  **regexp.Regexp
	}{
		{"game", gamePattern, &p.game},
		{"tag", tagPattern, &p.tag},
		{"comment", commentPattern, &p.comment},
		{"whitespace", whitespacePattern, &p.whitespace},
		{"result", resultPattern, &p.result},
	} {
		if *c.dst, err = compile(c.name, c.src); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func compile(name, src string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, &CompileError{Name: name, Pattern: src, Err: err}
	}
	return re, nil
}

var shared = sync.OnceValues(Compile)

// Default returns the process-wide patterns, compiling them on first use.
func Default() (*Patterns, error) {
	return shared()
}

// GamePattern returns the compiled segmenter expression.
func (p *Patterns) GamePattern() *regexp.Regexp {
	return p.game
}
