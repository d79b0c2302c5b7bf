package watcher

import (
	"sync"
	"time"
)

// DebouncedEvent is a name-level change under a watched root.
type DebouncedEvent struct {
	Path string
	Op   EventOp
}

// EventOp is the kind of change. Content writes are reported only for a root's
// ignore file: other writes never change a file's name or location.
type EventOp int

const (
	OpCreate EventOp = iota
	OpRemove
	OpRename
	OpWrite
)

func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	case OpWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Debouncer collects events and emits them as one batch once no new event has
// arrived for the quiet interval. Repeated events for a path keep the latest op.
type Debouncer struct {
	interval time.Duration
	events   map[string]EventOp
	order    []string
	mu       sync.Mutex
	timer    *time.Timer
	output   chan []DebouncedEvent
}

// NewDebouncer creates a debouncer with the specified quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		events:   make(map[string]EventOp),
		output:   make(chan []DebouncedEvent, 16),
	}
}

// Output returns the channel that receives batched events.
func (d *Debouncer) Output() <-chan []DebouncedEvent {
	return d.output
}

// Add records an event and restarts the quiet interval.
func (d *Debouncer) Add(path string, op EventOp) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, seen := d.events[path]; !seen {
		d.order = append(d.order, path)
	}
	d.events[path] = op

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// flush emits the pending events in first-seen order. A batch is dropped when the
// consumer is too far behind: the next batch triggers the same full rebuild.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.events) == 0 {
		return
	}

	batch := make([]DebouncedEvent, 0, len(d.order))
	for _, path := range d.order {
		batch = append(batch, DebouncedEvent{Path: path, Op: d.events[path]})
	}
	d.events = make(map[string]EventOp)
	d.order = nil

	select {
	case d.output <- batch:
	default:
	}
}
