package index

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Token identifies one running task reported to a Progress.
type Token string

// Progress receives start/stop notifications for background indexing.
// End is called exactly once for every Begin, whatever way the task exits, with
// the error the task failed with or nil.
type Progress interface {
	Begin(label string) Token
	End(token Token, err error)
}

// LogProgress reports indexing activity to a logger and keeps track of the tasks
// that are still running.
type LogProgress struct {
	mu      sync.Mutex
	logger  *slog.Logger
	running map[Token]runningTask
}

type runningTask struct {
	label   string
	started time.Time
}

// NewLogProgress creates a progress reporter that logs to logger.
func NewLogProgress(logger *slog.Logger) *LogProgress {
	return &LogProgress{
		logger:  logger,
		running: make(map[Token]runningTask),
	}
}

// Begin records the start of a task and returns its token.
func (p *LogProgress) Begin(label string) Token {
	token := Token(uuid.NewString())

	p.mu.Lock()
	p.running[token] = runningTask{label: label, started: time.Now()}
	p.mu.Unlock()

	p.logger.Info("task started", "task", label, "token", token)
	return token
}

// End records the end of the task identified by token.
func (p *LogProgress) End(token Token, err error) {
	p.mu.Lock()
	task, ok := p.running[token]
	delete(p.running, token)
	p.mu.Unlock()

	if !ok {
		p.logger.Warn("end of unknown task", "token", token)
		return
	}
	if err != nil {
		p.logger.Warn("task failed", "task", task.label, "elapsed", time.Since(task.started), "error", err)
		return
	}
	p.logger.Info("task finished", "task", task.label, "elapsed", time.Since(task.started))
}

// Running returns the labels of tasks that have begun but not ended.
func (p *LogProgress) Running() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	labels := make([]string, 0, len(p.running))
	for _, task := range p.running {
		labels = append(labels, task.label)
	}
	return labels
}
