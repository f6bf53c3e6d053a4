// Package driver runs the per-frame update: poll every stage for its
// object states, merge them and hand the result to a renderer.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivlev/phasekit/internal/pose"
)

// StageStatus is what one stage reports about the frame it produced.
type StageStatus struct {
	Name     string
	Phase    string
	LocalT   float64
	Progress float64
	Ready    bool
}

// Snapshot is everything a renderer needs for one frame.
type Snapshot struct {
	Index  int
	Time   time.Time
	States pose.Frame
	Stages []StageStatus
}

// Stage produces object states for one animated assembly. A stage that is
// not ready returns no states and its objects stay at rest.
type Stage interface {
	Update(now time.Time) (pose.Frame, StageStatus)
}

// Renderer consumes one snapshot per frame.
type Renderer interface {
	Apply(s Snapshot) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Snapshot) error

func (f RendererFunc) Apply(s Snapshot) error { return f(s) }

// Loop owns the stages of one scene. It is not safe for concurrent use;
// Tick and Run are meant to be called from the render goroutine.
type Loop struct {
	stages   []Stage
	renderer Renderer
	index    int
	last     Snapshot
}

func NewLoop(r Renderer, stages ...Stage) *Loop {
	return &Loop{stages: stages, renderer: r}
}

// AddStage appends a stage; it is polled from the next tick on.
func (l *Loop) AddStage(s Stage) { l.stages = append(l.stages, s) }

// Tick builds and applies one frame. Later stages override earlier ones
// for the same object.
func (l *Loop) Tick(now time.Time) (Snapshot, error) {
	snap := Snapshot{Index: l.index, Time: now, Stages: make([]StageStatus, 0, len(l.stages))}
	for _, s := range l.stages {
		frame, st := s.Update(now)
		snap.Stages = append(snap.Stages, st)
		if len(frame) > 0 {
			snap.States = snap.States.Merge(frame)
		}
	}
	l.index++
	l.last = snap

	if l.renderer == nil {
		return snap, nil
	}
	if err := l.renderer.Apply(snap); err != nil {
		return snap, fmt.Errorf("render frame %d: %w", snap.Index, err)
	}
	return snap, nil
}

// Last returns the most recent snapshot.
func (l *Loop) Last() Snapshot { return l.last }

// Frames returns how many frames were ticked.
func (l *Loop) Frames() int { return l.index }

// Run ticks at fps until ctx is done or the renderer fails.
func (l *Loop) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		return errors.New("fps must be positive")
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if _, err := l.Tick(now); err != nil {
				return err
			}
		}
	}
}
