package turntable

import (
	"context"
	"sync"
	"time"

	"github.com/ivlev/phasekit/internal/pose"
)

// Loader owns at most one vinyl run. Starting a new run supersedes the
// previous one: its context is cancelled, its frames are discarded and its
// callbacks are never invoked.
type Loader struct {
	mu     sync.Mutex
	active *Run
}

func NewLoader() *Loader { return &Loader{} }

// Start begins a new run at now, replacing any run in flight.
func (l *Loader) Start(ctx context.Context, req Request, now time.Time) (*Run, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	run, err := newRun(ctx, req, now)
	if err != nil {
		return nil, err
	}
	if l.active != nil {
		l.active.supersede()
	}
	l.active = run
	return run, nil
}

// Active returns the run in flight, or nil.
func (l *Loader) Active() *Run {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Busy reports whether a run is in flight.
func (l *Loader) Busy() bool { return l.Active() != nil }

// Cancel abandons the run in flight without invoking its callbacks.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active != nil {
		l.active.supersede()
		l.active = nil
	}
}

// Step advances the active run. When the run finishes it is dropped and
// its callback fires, outside the lock, exactly once.
func (l *Loader) Step(now time.Time) (pose.Frame, Status, bool) {
	l.mu.Lock()
	run := l.active
	if run == nil {
		l.mu.Unlock()
		return nil, StatusComplete, false
	}
	frame, status := run.Step(now)
	if status.Finished() {
		l.active = nil
	}
	l.mu.Unlock()

	switch status {
	case StatusComplete:
		if run.req.OnComplete != nil {
			run.req.OnComplete()
		}
	case StatusFailed:
		if run.req.OnError != nil {
			run.req.OnError(run.Err())
		}
	}
	return frame, status, frame != nil
}
