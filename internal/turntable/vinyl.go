package turntable

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ivlev/phasekit/internal/easing"
	"github.com/ivlev/phasekit/internal/pose"
	"github.com/ivlev/phasekit/internal/progress"
	"github.com/ivlev/phasekit/internal/timeline"
)

const VinylID pose.ObjectID = "vinyl"

// Vinyl load phases. Completion follows spin-hold instantly and has no
// interval of its own.
const (
	PhaseDescend  = "descend"
	PhaseLidClose = "lid-close"
	PhaseSpinHold = "spin-hold"
)

const (
	DescendDuration  = 1500 * time.Millisecond
	LidCloseDuration = 1000 * time.Millisecond
	SpinHoldDuration = 2000 * time.Millisecond

	// StartHeight is the Y the record drops from.
	StartHeight = 200.0
	// SpinPerFrame is the record's constant angular step in radians.
	SpinPerFrame = 0.05
	// recordRadius is the modelled radius of the record at scale 1.
	recordRadius = 25.0
	// restGap lifts the record just above the platter surface.
	restGap = 1.0
)

var (
	ErrSuperseded = errors.New("vinyl load superseded by a newer run")
	ErrNoPlatter  = errors.New("platter bounds unavailable")
)

// Scene exposes the live world bounds of the objects a run tracks.
type Scene interface {
	Bounds(id pose.ObjectID) (pose.Box, bool)
}

// Request describes one vinyl load.
type Request struct {
	Scene   Scene
	Platter pose.ObjectID

	// Lid is held exploded at LidOrder layers up while the record drops,
	// then lowered to its collapsed position. An empty Lid skips it.
	Lid      pose.ObjectID
	LidOrder float64

	// Prepare fetches whatever the revealed content needs. It runs in its
	// own goroutine and is cancelled when the run is superseded.
	Prepare func(ctx context.Context) error

	// OnComplete is called exactly once when the run finishes normally.
	OnComplete func()
	// OnError is called instead of OnComplete when Prepare fails.
	OnError func(error)
}

// Status is the lifecycle position of a run.
type Status int

const (
	StatusRunning Status = iota
	// StatusWaiting: the sequence has played out but Prepare is still busy.
	StatusWaiting
	StatusComplete
	StatusFailed
	StatusSuperseded
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusWaiting:
		return "waiting"
	case StatusComplete:
		return "complete"
	case StatusFailed:
		return "failed"
	case StatusSuperseded:
		return "superseded"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Finished reports whether the run will never produce another frame.
func (s Status) Finished() bool { return s >= StatusComplete }

// Spin is the record's continuous rotation. It advances every frame no
// matter which phase is active.
type Spin struct {
	Angle float64
	Step  float64
}

func (s *Spin) Advance() float64 {
	s.Angle += s.Step
	return s.Angle
}

// Run is one live vinyl load. It is created by Loader.Start and stepped
// once per frame until it finishes.
type Run struct {
	req    Request
	ctx    context.Context
	cancel context.CancelCauseFunc

	clock *progress.Clock
	table *timeline.Table
	spin  Spin
	scale float64

	target pose.Vec3

	prepared chan error
	prepDone bool
	prepErr  error

	status Status
	phase  string
	ready  bool
	last   pose.Frame
}

func newRun(parent context.Context, req Request, now time.Time) (*Run, error) {
	if req.Scene == nil {
		return nil, errors.New("vinyl load needs a scene")
	}
	platter, ok := req.Scene.Bounds(req.Platter)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoPlatter, req.Platter)
	}

	ctx, cancel := context.WithCancelCause(parent)
	r := &Run{
		req:      req,
		ctx:      ctx,
		cancel:   cancel,
		spin:     Spin{Step: SpinPerFrame},
		prepared: make(chan error, 1),
		target:   platterTarget(platter),
	}

	size := platter.Size()
	r.scale = math.Max(size.X, size.Z) / 2 / recordRadius

	table, total, err := timeline.FromDurations([]timeline.Span{
		{Name: PhaseDescend, Duration: DescendDuration, Compute: r.descend},
		{Name: PhaseLidClose, Duration: LidCloseDuration, Compute: r.lidClose},
		{Name: PhaseSpinHold, Duration: SpinHoldDuration, Compute: r.spinHold},
	})
	if err != nil {
		cancel(err)
		return nil, err
	}
	r.table = table
	r.clock = progress.NewClock(now, total)

	if req.Prepare != nil {
		go func() { r.prepared <- req.Prepare(ctx) }()
	} else {
		r.prepDone = true
	}
	return r, nil
}

// platterTarget is where the record rests: centred on the platter, just
// above its top face.
func platterTarget(b pose.Box) pose.Vec3 {
	c := b.Center()
	return pose.V(c.X, b.Max.Y+restGap, c.Z)
}

// track re-reads the platter position. The platter may itself be moving
// while the model collapses; if it disappears the last target is kept.
func (r *Run) track() pose.Vec3 {
	if b, ok := r.req.Scene.Bounds(r.req.Platter); ok {
		r.target = platterTarget(b)
	}
	return r.target
}

func (r *Run) record(pos pose.Vec3) pose.State {
	s := pose.At(VinylID, pose.Transform{Position: pos}, 1)
	s.Scale = r.scale
	return s
}

func (r *Run) lid(offset float64) pose.Frame {
	if r.req.Lid == "" {
		return nil
	}
	return pose.Frame{pose.At(r.req.Lid, pose.Transform{Position: pose.V(0, offset, 0)}, 1)}
}

func (r *Run) exploded() float64 { return r.req.LidOrder * ExplosionDistance }

func (r *Run) descend(localT float64) pose.Frame {
	target := r.track()
	start := pose.V(target.X, StartHeight, target.Z)
	pos := pose.Lerp(start, target, easing.Smoothstep(localT))
	return append(pose.Frame{r.record(pos)}, r.lid(r.exploded())...)
}

func (r *Run) lidClose(localT float64) pose.Frame {
	offset := easing.Lerp(r.exploded(), 0, easing.Smoothstep(localT))
	return append(pose.Frame{r.record(r.track())}, r.lid(offset)...)
}

func (r *Run) spinHold(float64) pose.Frame {
	return append(pose.Frame{r.record(r.track())}, r.lid(0)...)
}

func (r *Run) Status() Status { return r.status }

// Phase is the name of the phase produced by the last Step.
func (r *Run) Phase() string { return r.phase }

// Ready reports whether the record has settled and is spinning on the
// closed turntable.
func (r *Run) Ready() bool { return r.ready }

// Context is cancelled when the run finishes or is superseded.
func (r *Run) Context() context.Context { return r.ctx }

// Err returns the reason the run ended early, if any.
func (r *Run) Err() error {
	switch r.status {
	case StatusSuperseded:
		return ErrSuperseded
	case StatusFailed:
		return r.prepErr
	}
	return nil
}

// Last returns the most recent frame.
func (r *Run) Last() pose.Frame { return r.last }

func (r *Run) pollPrepare() {
	if r.prepDone {
		return
	}
	select {
	case err := <-r.prepared:
		r.prepDone, r.prepErr = true, err
	default:
	}
}

// Step computes the frame at now. The spin is applied on top of the phase
// pose. Once the sequence has played out and Prepare has finished, the
// run completes and returns no frame.
func (r *Run) Step(now time.Time) (pose.Frame, Status) {
	if r.status.Finished() {
		return nil, r.status
	}
	r.pollPrepare()
	if r.prepDone && r.prepErr != nil {
		r.finish(StatusFailed, r.prepErr)
		return nil, r.status
	}

	p := r.clock.Progress(now)
	if p >= 1 && r.prepDone {
		r.finish(StatusComplete, nil)
		return nil, r.status
	}

	frame, res, ok := r.table.Evaluate(p)
	if !ok {
		return r.last, r.status
	}
	angle := r.spin.Advance()
	for i := range frame {
		if frame[i].ID == VinylID {
			frame[i].Rotation.Y = angle
		}
	}

	r.phase = res.Phase.Name
	r.ready = r.phase == PhaseSpinHold
	if p >= 1 {
		r.status = StatusWaiting
	}
	r.last = frame
	return frame, r.status
}

func (r *Run) finish(s Status, cause error) {
	r.status = s
	r.ready = false
	r.last = nil
	if cause == nil {
		cause = context.Canceled
	}
	r.cancel(cause)
}

// supersede stops the run without invoking any callback.
func (r *Run) supersede() {
	if r.status.Finished() {
		return
	}
	r.finish(StatusSuperseded, ErrSuperseded)
}
