package timeline

import (
	"fmt"
	"time"

	"github.com/ivlev/phasekit/internal/pose"
)

// Span is a phase with an absolute duration, used by wall-clock animators.
type Span struct {
	Name     string
	Duration time.Duration
	Compute  func(localT float64) pose.Frame
}

// FromDurations builds a table whose phase proportions follow the given
// absolute durations. It also returns the total duration.
func FromDurations(spans []Span) (*Table, time.Duration, error) {
	if len(spans) == 0 {
		return nil, 0, ErrEmptyTable
	}

	var total time.Duration
	for _, s := range spans {
		if s.Duration <= 0 {
			return nil, 0, fmt.Errorf("%w: %q lasts %v", ErrDegeneratePhase, s.Name, s.Duration)
		}
		total += s.Duration
	}

	phases := make([]Phase, len(spans))
	var elapsed time.Duration
	for i, s := range spans {
		phases[i] = Phase{
			Name:    s.Name,
			Start:   float64(elapsed) / float64(total),
			End:     float64(elapsed+s.Duration) / float64(total),
			Compute: s.Compute,
		}
		elapsed += s.Duration
	}

	table, err := NewTable(phases)
	if err != nil {
		return nil, 0, err
	}
	return table, total, nil
}
