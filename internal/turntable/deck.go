package turntable

import (
	"context"
	"time"

	"github.com/ivlev/phasekit/internal/pose"
)

// Deck couples the exploded model with its vinyl loader: loading a record
// collapses the model while the record descends onto the moving platter.
type Deck struct {
	Model  *Model
	Loader *Loader
}

func NewDeck(m *Model) *Deck {
	return &Deck{Model: m, Loader: NewLoader()}
}

// LoadOptions carries the optional parts of a vinyl load.
type LoadOptions struct {
	Prepare    func(ctx context.Context) error
	OnComplete func()
	OnError    func(error)
}

// Load collapses the model and starts a vinyl run, superseding any run
// already in flight.
func (d *Deck) Load(ctx context.Context, now time.Time, opts LoadOptions) (*Run, error) {
	req := Request{
		Scene:      d.Model,
		Platter:    PlatterID,
		Prepare:    opts.Prepare,
		OnComplete: opts.OnComplete,
		OnError:    opts.OnError,
	}
	if lid, ok := d.Model.Component(LidID); ok {
		req.Lid, req.LidOrder = lid.ID, lid.Order
	}
	run, err := d.Loader.Start(ctx, req, now)
	if err != nil {
		return nil, err
	}
	d.Model.Explode(false)
	return run, nil
}

// DeckStatus describes the deck after a step.
type DeckStatus struct {
	Explosion float64
	Run       Status
	Phase     string
	Progress  float64
	Ready     bool
	Loading   bool
}

// Step advances the model one frame, then the vinyl run on top of it. Run
// states replace model states of the same object.
func (d *Deck) Step(now time.Time) (pose.Frame, DeckStatus) {
	d.Model.Step()
	frame := d.Model.Frame()
	st := DeckStatus{Explosion: d.Model.Progress()}

	run := d.Loader.Active()
	vinyl, status, ok := d.Loader.Step(now)
	st.Run = status
	if run != nil {
		st.Phase = run.Phase()
		st.Ready = run.Ready()
		st.Progress = run.clock.Progress(now)
		st.Loading = !status.Finished()
	}
	if ok {
		frame = frame.Merge(vinyl)
	}
	return frame, st
}
