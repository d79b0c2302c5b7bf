// Package session holds the interactive state of one file search surface: the
// current input, its compiled pattern, the result list and the selection cursor.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexandro/filesearch-mcp/index"
	"github.com/lexandro/filesearch-mcp/query"
)

// State is the state the session entered on the last input change.
type State int

const (
	// StateEmpty: no input, no results.
	StateEmpty State = iota
	// StateTyping: input too short to query; results pending.
	StateTyping
	// StateRefining: the previous results were narrowed without reading the index.
	StateRefining
	// StateRebuilding: the results were recomputed from the index.
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateTyping:
		return "typing"
	case StateRefining:
		return "refining"
	case StateRebuilding:
		return "rebuilding"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultMinQueryLength is the shortest input that triggers an index read.
const DefaultMinQueryLength = 2

// ErrNothingSelected is returned by Activate when the result list is empty.
var ErrNothingSelected = errors.New("no file selected")

// Loader supplies the full record set of the group being searched.
// It returns index.ErrNotIndexed when the group has no index yet.
type Loader interface {
	Load() ([]index.Record, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func() ([]index.Record, error)

// Load calls f.
func (f LoaderFunc) Load() ([]index.Record, error) { return f() }

// Opener opens a file in the editor.
type Opener interface {
	Open(filePath string) error
}

// Options configures a session.
type Options struct {
	CaseSensitive  bool
	MinQueryLength int // inputs shorter than this don't read the index (default 2)
}

// Session mediates between input events and the query layer. It is not safe for
// concurrent use; it belongs to the interactive goroutine.
type Session struct {
	loader  Loader
	opener  Opener
	options Options
	logger  *slog.Logger

	state   State
	input   string
	pattern query.Pattern
	results []index.Record
	cursor  int
	visible bool
}

// New creates a session reading records from loader and opening files with opener.
func New(loader Loader, opener Opener, options Options, logger *slog.Logger) *Session {
	if options.MinQueryLength <= 0 {
		options.MinQueryLength = DefaultMinQueryLength
	}
	return &Session{
		loader:  loader,
		opener:  opener,
		options: options,
		logger:  logger,
	}
}

// SetInput applies the full current input text and updates the results.
// It returns an error wrapping index.ErrNotIndexed when the index has to be read
// but doesn't exist; every other read problem leaves the results empty and is
// only logged.
func (s *Session) SetInput(text string) error {
	prevInput := s.input
	prevPattern := s.pattern
	s.input = text

	switch {
	case text == "":
		s.enter(StateEmpty, query.Pattern{}, nil)
		return nil

	case len([]rune(text)) < s.options.MinQueryLength:
		s.enter(StateTyping, query.Compile(text, s.options.CaseSensitive), nil)
		return nil
	}

	pattern := query.Compile(text, s.options.CaseSensitive)

	if len(s.results) > 0 && strings.HasPrefix(text, prevInput) {
		if refined, ok := query.Refine(s.results, prevPattern, pattern); ok {
			s.enter(StateRefining, pattern, refined)
			return nil
		}
	}

	return s.rebuild(pattern)
}

// Refresh recomputes the results for the current input from the index, for
// example after the index was rebuilt.
func (s *Session) Refresh() error {
	if len([]rune(s.input)) < s.options.MinQueryLength {
		return nil
	}
	return s.rebuild(query.Compile(s.input, s.options.CaseSensitive))
}

func (s *Session) rebuild(pattern query.Pattern) error {
	records, err := s.loader.Load()
	if err != nil {
		s.enter(StateRebuilding, pattern, nil)
		if errors.Is(err, index.ErrNotIndexed) {
			return err
		}
		s.logger.Warn("index unreadable, showing no results", "error", err)
		return nil
	}
	s.enter(StateRebuilding, pattern, query.Query(records, pattern))
	return nil
}

func (s *Session) enter(state State, pattern query.Pattern, results []index.Record) {
	s.state = state
	s.pattern = pattern
	s.results = results
	s.cursor = 0
}

// State returns the state entered on the last input change.
func (s *Session) State() State { return s.state }

// Input returns the current input text.
func (s *Session) Input() string { return s.input }

// Pattern returns the pattern compiled from the current input.
func (s *Session) Pattern() query.Pattern { return s.pattern }

// Results returns the current result list. Callers must not modify it.
func (s *Session) Results() []index.Record { return s.results }

// Cursor returns the index of the selected result.
func (s *Session) Cursor() int { return s.cursor }

// Selected returns the record under the cursor.
func (s *Session) Selected() (index.Record, bool) {
	if s.cursor < 0 || s.cursor >= len(s.results) {
		return index.Record{}, false
	}
	return s.results[s.cursor], true
}

// MoveUp moves the cursor one result up, stopping at the first result.
func (s *Session) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// MoveDown moves the cursor one result down, stopping at the last result.
func (s *Session) MoveDown() {
	if s.cursor < len(s.results)-1 {
		s.cursor++
	}
}

// Select places the cursor on result i, clamped to the result list.
func (s *Session) Select(i int) {
	s.cursor = max(0, min(i, len(s.results)-1))
}

// Activate opens the selected file and hides the session. Input and results are
// kept for the next time the session is shown.
func (s *Session) Activate() (index.Record, error) {
	record, ok := s.Selected()
	if !ok {
		return index.Record{}, ErrNothingSelected
	}
	if err := s.opener.Open(record.FilePath); err != nil {
		return record, fmt.Errorf("opening %s: %w", record.FilePath, err)
	}
	s.Hide()
	return record, nil
}

// Show marks the search surface visible.
func (s *Session) Show() { s.visible = true }

// Hide marks the search surface hidden without discarding any state.
func (s *Session) Hide() { s.visible = false }

// Visible reports whether the search surface is shown.
func (s *Session) Visible() bool { return s.visible }
