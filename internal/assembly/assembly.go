// Package assembly implements the scroll-driven cartridge load/eject
// animation of the two-part device viewer: key poses derived from the
// loaded geometry, the declarative phase table, and the per-phase pose
// functions.
package assembly

import (
	"fmt"

	"github.com/ivlev/phasekit/internal/pose"
	"github.com/ivlev/phasekit/internal/timeline"
)

// Assembly is one animated device. It has no table until its geometry has
// loaded; until then every evaluation reports not ready.
type Assembly struct {
	spec  timeline.Spec
	rig   *Rig
	table *timeline.Table
	err   error
}

// New creates an assembly that will bind the given timeline once loaded.
func New(spec timeline.Spec) *Assembly {
	return &Assembly{spec: spec}
}

// OnLoaded builds the rig and the phase table from the parsed geometry.
// Either both succeed or the assembly stays un-animated.
func (a *Assembly) OnLoaded(g Geometry) error {
	rig, err := NewRig(g)
	if err != nil {
		a.err = err
		return err
	}
	table, err := rig.NewTable(a.spec)
	if err != nil {
		a.err = fmt.Errorf("bind device timeline: %w", err)
		return a.err
	}
	a.rig, a.table, a.err = rig, table, nil
	return nil
}

// OnError records a terminal asset failure. The assembly is never animated.
func (a *Assembly) OnError(cause error) {
	a.rig, a.table = nil, nil
	a.err = cause
}

// Ready reports whether a complete table exists.
func (a *Assembly) Ready() bool { return a.table != nil }

// Err returns the failure that prevented the assembly from animating.
func (a *Assembly) Err() error { return a.err }

func (a *Assembly) Rig() *Rig { return a.rig }

func (a *Assembly) Table() *timeline.Table { return a.table }

// Evaluate computes the frame at the given timeline position (cycle, not
// scroll progress). ok is false while the assembly is not ready.
func (a *Assembly) Evaluate(cycle float64) (pose.Frame, timeline.Resolution, bool) {
	return a.table.Evaluate(cycle)
}

// EvaluateProgress maps device progress (1 open, 0 closed) to the timeline
// and evaluates it.
func (a *Assembly) EvaluateProgress(progress float64) (pose.Frame, timeline.Resolution, bool) {
	return a.Evaluate(CycleFromProgress(progress))
}
