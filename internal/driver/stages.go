package driver

import (
	"time"

	"github.com/ivlev/phasekit/internal/assembly"
	"github.com/ivlev/phasekit/internal/pose"
	"github.com/ivlev/phasekit/internal/progress"
	"github.com/ivlev/phasekit/internal/turntable"
)

// AssemblyStage drives a device assembly from a progress source. By
// default the source reports device progress (1 open, 0 closed); with
// Direct set its value is the timeline position itself.
type AssemblyStage struct {
	Name     string
	Assembly *assembly.Assembly
	Source   progress.Source
	Direct   bool
}

func (s *AssemblyStage) Update(now time.Time) (pose.Frame, StageStatus) {
	st := StageStatus{Name: s.Name}
	p := s.Source.Progress(now)
	st.Progress = p

	cycle := assembly.CycleFromProgress(p)
	if s.Direct {
		cycle = p
	}
	frame, res, ok := s.Assembly.Evaluate(cycle)
	if !ok {
		return nil, st
	}
	st.Phase = res.Phase.Name
	st.LocalT = res.LocalT
	st.Ready = true
	return frame, st
}

// DeckStage drives the turntable model and its vinyl loader.
type DeckStage struct {
	Name string
	Deck *turntable.Deck
}

func (s *DeckStage) Update(now time.Time) (pose.Frame, StageStatus) {
	frame, ds := s.Deck.Step(now)
	st := StageStatus{
		Name:     s.Name,
		Phase:    ds.Phase,
		Progress: ds.Progress,
		Ready:    ds.Ready,
	}
	if !ds.Loading {
		st.Phase = "idle"
		st.Progress = ds.Explosion
	}
	return frame, st
}
