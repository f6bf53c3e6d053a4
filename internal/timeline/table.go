// Package timeline partitions the [0, 1] progress domain into an ordered,
// contiguous list of named phases and resolves a global progress value to
// the active phase and its local progress.
package timeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/phasekit/internal/easing"
	"github.com/ivlev/phasekit/internal/pose"
)

// boundaryEpsilon absorbs float noise when checking that phases meet.
const boundaryEpsilon = 1e-9

var (
	ErrEmptyTable      = errors.New("timeline has no phases")
	ErrGap             = errors.New("phases are not contiguous")
	ErrCoverage        = errors.New("phases do not cover [0, 1]")
	ErrDegeneratePhase = errors.New("phase has non-positive length")
	ErrNoCompute       = errors.New("phase has no transform function")
)

// Phase is a named half-open interval [Start, End) of global progress plus
// the pure function computing every tracked object's state from local t.
// The last phase of a table also owns progress == End.
type Phase struct {
	Name    string
	Start   float64
	End     float64
	Compute func(localT float64) pose.Frame
}

// Length returns End - Start.
func (p Phase) Length() float64 { return p.End - p.Start }

// Table is an immutable ordered sequence of phases covering exactly [0, 1].
type Table struct {
	phases []Phase
}

// NewTable validates and freezes the given phases. A table is either
// complete or not built at all.
func NewTable(phases []Phase) (*Table, error) {
	if len(phases) == 0 {
		return nil, ErrEmptyTable
	}
	if err := validate(phases); err != nil {
		return nil, err
	}

	frozen := make([]Phase, len(phases))
	copy(frozen, phases)
	// Snap shared boundaries so lookups never fall into float cracks.
	frozen[0].Start = 0
	frozen[len(frozen)-1].End = 1
	for i := 1; i < len(frozen); i++ {
		frozen[i].Start = frozen[i-1].End
	}
	return &Table{phases: frozen}, nil
}

func validate(phases []Phase) error {
	if math.Abs(phases[0].Start) > boundaryEpsilon {
		return fmt.Errorf("%w: first phase %q starts at %v", ErrCoverage, phases[0].Name, phases[0].Start)
	}
	last := phases[len(phases)-1]
	if math.Abs(last.End-1) > boundaryEpsilon {
		return fmt.Errorf("%w: last phase %q ends at %v", ErrCoverage, last.Name, last.End)
	}
	for i, p := range phases {
		if !(p.End > p.Start) {
			return fmt.Errorf("%w: %q [%v, %v)", ErrDegeneratePhase, p.Name, p.Start, p.End)
		}
		if p.Compute == nil {
			return fmt.Errorf("%w: %q", ErrNoCompute, p.Name)
		}
		if i > 0 {
			prev := phases[i-1]
			if math.Abs(prev.End-p.Start) > boundaryEpsilon {
				return fmt.Errorf("%w: %q ends at %v, %q starts at %v", ErrGap, prev.Name, prev.End, p.Name, p.Start)
			}
		}
	}
	return nil
}

// Len returns the number of phases. A nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.phases)
}

// Phase returns the i-th phase.
func (t *Table) Phase(i int) Phase { return t.phases[i] }

// Phases returns a copy of the phase list.
func (t *Table) Phases() []Phase {
	if t == nil {
		return nil
	}
	out := make([]Phase, len(t.phases))
	copy(out, t.phases)
	return out
}

// Resolution is the outcome of resolving a global progress value.
type Resolution struct {
	Index    int
	Phase    Phase
	LocalT   float64
	Progress float64
}

// NotReady is returned when no table exists yet. Callers skip transform
// application and leave objects at rest pose.
var NotReady = Resolution{Index: -1}

// Ready reports whether the resolution refers to a real phase.
func (r Resolution) Ready() bool { return r.Index >= 0 }

// Resolve finds the phase containing progress (clamped to [0, 1]) by
// linear scan. A boundary shared by two phases belongs to the later one;
// progress == 1 selects the last phase with local t = 1.
func (t *Table) Resolve(progress float64) Resolution {
	if t == nil || len(t.phases) == 0 {
		return NotReady
	}
	progress = easing.Clamp01(progress)

	last := len(t.phases) - 1
	if progress >= 1 {
		return Resolution{Index: last, Phase: t.phases[last], LocalT: 1, Progress: progress}
	}
	for i, p := range t.phases {
		if progress >= p.Start && progress < p.End {
			localT := easing.Clamp01((progress - p.Start) / p.Length())
			return Resolution{Index: i, Phase: p, LocalT: localT, Progress: progress}
		}
	}
	// Unreachable for a validated table.
	return NotReady
}

// Evaluate resolves progress and computes the resulting frame. ok is false
// when the table is not built yet.
func (t *Table) Evaluate(progress float64) (frame pose.Frame, res Resolution, ok bool) {
	res = t.Resolve(progress)
	if !res.Ready() {
		return nil, res, false
	}
	return res.Phase.Compute(res.LocalT), res, true
}
