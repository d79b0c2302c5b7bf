package query

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Mode tells how a Pattern tests file names.
type Mode int

const (
	// ModeNone matches nothing; compiled from empty input.
	ModeNone Mode = iota
	// ModeLiteral is a plain prefix test on the (folded) file name.
	ModeLiteral
	// ModeGlob is a compiled glob supporting *, ?, [...] and {a,b}.
	ModeGlob
)

func (m Mode) String() string {
	switch m {
	case ModeLiteral:
		return "literal"
	case ModeGlob:
		return "glob"
	default:
		return "none"
	}
}

// Pattern is the compiled form of the user's input: the input text followed by an
// implicit trailing wildcard, case-folded unless case-sensitive matching was asked for.
type Pattern struct {
	Input         string // text as typed
	Expr          string // glob expression actually matched, including the trailing *
	CaseSensitive bool
	Mode          Mode

	literal string // folded input, used by ModeLiteral
}

// Compile builds the pattern for input. Input without glob metacharacters becomes a
// cheap prefix test; input with them is compiled as a glob. A backslash is always
// taken literally. Input that is not a valid glob (an unclosed [ or {) falls back to
// the prefix test on its literal text.
func Compile(input string, caseSensitive bool) Pattern {
	p := Pattern{Input: input, CaseSensitive: caseSensitive}
	if input == "" {
		return p
	}

	text := input
	if !caseSensitive {
		text = strings.ToLower(text)
	}
	p.literal = text
	p.Expr = escapeBackslash(text) + "*"

	if strings.ContainsAny(text, "*?[]{}") && doublestar.ValidatePattern(p.Expr) {
		p.Mode = ModeGlob
	} else {
		p.Mode = ModeLiteral
	}
	return p
}

// MatchName reports whether fileName matches the pattern.
func (p Pattern) MatchName(fileName string) bool {
	if !p.CaseSensitive {
		fileName = strings.ToLower(fileName)
	}
	switch p.Mode {
	case ModeLiteral:
		return strings.HasPrefix(fileName, p.literal)
	case ModeGlob:
		matched, err := doublestar.Match(p.Expr, fileName)
		return err == nil && matched
	default:
		return false
	}
}

// Empty reports whether the pattern was compiled from empty input.
func (p Pattern) Empty() bool {
	return p.Mode == ModeNone
}

// Narrows reports whether every name matched by p is also matched by prev, which
// lets a result set computed for prev be filtered down instead of recomputed.
// That holds when p's input extends prev's, both use the same case policy, and
// both were compiled the same way.
func (p Pattern) Narrows(prev Pattern) bool {
	if p.Empty() || prev.Empty() {
		return false
	}
	return p.CaseSensitive == prev.CaseSensitive &&
		p.Mode == prev.Mode &&
		strings.HasPrefix(p.Input, prev.Input)
}

func escapeBackslash(s string) string {
	return strings.ReplaceAll(s, `\`, `\\`)
}
