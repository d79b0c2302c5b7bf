package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lexandro/filesearch-mcp/index"
)

// ProgressMsg reports that an indexing task started or finished. Err is set when
// a finished task failed.
type ProgressMsg struct {
	Label   string
	Running bool
	Err     error
}

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Progress forwards indexing progress to another Progress and, once attached,
// to the terminal program as ProgressMsg values.
type Progress struct {
	inner index.Progress

	mu     sync.Mutex
	sender Sender
	labels map[index.Token]string
}

// NewProgress wraps inner.
func NewProgress(inner index.Progress) *Progress {
	return &Progress{inner: inner, labels: make(map[index.Token]string)}
}

// Attach starts forwarding to sender.
func (p *Progress) Attach(sender Sender) {
	p.mu.Lock()
	p.sender = sender
	p.mu.Unlock()
}

// Begin implements index.Progress.
func (p *Progress) Begin(label string) index.Token {
	token := p.inner.Begin(label)

	p.mu.Lock()
	p.labels[token] = label
	sender := p.sender
	p.mu.Unlock()

	if sender != nil {
		sender.Send(ProgressMsg{Label: label, Running: true})
	}
	return token
}

// End implements index.Progress.
func (p *Progress) End(token index.Token, err error) {
	p.inner.End(token, err)

	p.mu.Lock()
	label := p.labels[token]
	delete(p.labels, token)
	sender := p.sender
	p.mu.Unlock()

	if sender != nil {
		sender.Send(ProgressMsg{Label: label, Running: false, Err: err})
	}
}
