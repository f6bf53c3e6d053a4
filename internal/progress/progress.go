// Package progress provides the scalar inputs that drive phase tables:
// page scroll (optionally spring-smoothed), wall-clock runs and a
// free-running oscillator.
package progress

import (
	"math"
	"time"

	"github.com/ivlev/phasekit/internal/easing"
)

// Source yields a progress value for the frame being built at now.
// Implementations are polled once per rendered frame.
type Source interface {
	Progress(now time.Time) float64
}

// Func adapts a plain function to Source.
type Func func(now time.Time) float64

func (f Func) Progress(now time.Time) float64 { return f(now) }

// Fixed is a constant progress value.
type Fixed float64

func (f Fixed) Progress(time.Time) float64 { return easing.Clamp01(float64(f)) }

// FromScroll maps a page scroll offset over a spacer of the given height to
// device progress: 1 at the top of the page, 0 once the spacer is scrolled
// past. A page without a spacer is either at the top or past it.
func FromScroll(scrollY, spacerHeight float64) float64 {
	if !(spacerHeight > 0) {
		if scrollY > 0 {
			return 0
		}
		return 1
	}
	return easing.Clamp01(1 - scrollY/spacerHeight)
}

// Clock measures a fixed-duration run against the wall clock.
type Clock struct {
	start    time.Time
	duration time.Duration
}

func NewClock(start time.Time, d time.Duration) *Clock {
	return &Clock{start: start, duration: d}
}

func (c *Clock) Start() time.Time { return c.start }

func (c *Clock) Duration() time.Duration { return c.duration }

// Elapsed never goes negative, even if now precedes the start.
func (c *Clock) Elapsed(now time.Time) time.Duration {
	if e := now.Sub(c.start); e > 0 {
		return e
	}
	return 0
}

// Progress returns elapsed / duration clamped to [0, 1].
func (c *Clock) Progress(now time.Time) float64 {
	if c.duration <= 0 {
		return 1
	}
	return easing.Clamp01(float64(c.Elapsed(now)) / float64(c.duration))
}

func (c *Clock) Done(now time.Time) bool { return c.Progress(now) >= 1 }

// Oscillator cycles the whole table back and forth independent of user
// input. Animation time advances Step per frame at FPS frames per second;
// progress is sin(time * Rate) * 0.5 + 0.5.
type Oscillator struct {
	start time.Time
	Step  float64
	FPS   float64
	Rate  float64
}

func NewOscillator(start time.Time) *Oscillator {
	return &Oscillator{start: start, Step: 0.01, FPS: 60, Rate: 0.15}
}

// Progress samples the oscillator by wall-clock time.
func (o *Oscillator) Progress(now time.Time) float64 {
	frames := now.Sub(o.start).Seconds() * o.FPS
	return o.at(frames * o.Step)
}

// FrameProgress samples the oscillator at a frame index, for offline
// rendering where frames are not produced in real time.
func (o *Oscillator) FrameProgress(frame int) float64 {
	return o.at(float64(frame) * o.Step)
}

// AtFPS returns a copy that advances once per frame at fps while keeping
// the same oscillation speed in wall-clock time.
func (o *Oscillator) AtFPS(fps int) *Oscillator {
	out := *o
	if fps <= 0 || o.FPS <= 0 {
		return &out
	}
	out.Step = o.Step * o.FPS / float64(fps)
	out.FPS = float64(fps)
	return &out
}

// Period is the wall-clock time of one full oscillation.
func (o *Oscillator) Period() time.Duration {
	perSecond := o.Step * o.FPS * o.Rate
	if perSecond <= 0 {
		return 0
	}
	return time.Duration(2 * math.Pi / perSecond * float64(time.Second))
}

func (o *Oscillator) at(animTime float64) float64 {
	return easing.Clamp01(math.Sin(animTime*o.Rate)*0.5 + 0.5)
}
