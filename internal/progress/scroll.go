package progress

import (
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/harmonica"
)

// Profile is one smoothing band of the scroll spring.
type Profile struct {
	Name      string
	Frequency float64
	Damping   float64
}

// Smoothing bands selected by scroll velocity in px/ms. Fast flicks get a
// softer spring so the animation cannot outrun the eye.
var (
	ProfileNormal   = Profile{Name: "normal", Frequency: 6, Damping: 1}
	ProfileSoft     = Profile{Name: "soft", Frequency: 3.6, Damping: 1}
	ProfileVerySoft = Profile{Name: "very-soft", Frequency: 2.4, Damping: 1}
)

const (
	softVelocity     = 1.0
	verySoftVelocity = 2.0
	// settled is the distance in px below which the spring snaps to target.
	settled = 0.01
)

// ProfileFor picks the smoothing band for a scroll velocity.
func ProfileFor(velocity float64) Profile {
	switch {
	case velocity > verySoftVelocity:
		return ProfileVerySoft
	case velocity > softVelocity:
		return ProfileSoft
	default:
		return ProfileNormal
	}
}

// Scroll turns observed scroll offsets into device progress. With fps > 0
// the offset is chased by a critically damped spring, stepped once per
// Progress call; otherwise progress follows the raw offset.
type Scroll struct {
	mu sync.Mutex

	spacer float64
	fps    int

	target   float64
	pos      float64
	vel      float64
	velocity float64 // px/ms
	lastAt   time.Time

	profile Profile
	spring  harmonica.Spring
}

// NewScroll creates a scroll source over a spacer of the given height.
func NewScroll(spacerHeight float64, fps int) *Scroll {
	s := &Scroll{spacer: spacerHeight, fps: fps}
	s.setProfile(ProfileNormal)
	return s
}

func (s *Scroll) setProfile(p Profile) {
	if p == s.profile {
		return
	}
	s.profile = p
	if s.fps <= 0 {
		return
	}
	s.spring = harmonica.NewSpring(harmonica.FPS(s.fps), p.Frequency, p.Damping)
}

// Observe records a scroll offset reported at time at.
func (s *Scroll) Observe(scrollY float64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastAt.IsZero() {
		if dt := at.Sub(s.lastAt).Seconds() * 1000; dt > 0 {
			s.velocity = math.Abs(scrollY-s.target) / dt
		}
	}
	s.lastAt = at
	s.target = scrollY
	s.setProfile(ProfileFor(s.velocity))
	if s.fps <= 0 {
		s.pos = scrollY
	}
}

// Jump moves to scrollY with no smoothing.
func (s *Scroll) Jump(scrollY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target, s.pos, s.vel, s.velocity = scrollY, scrollY, 0, 0
}

// Progress advances the spring one frame and returns the smoothed progress.
func (s *Scroll) Progress(time.Time) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fps > 0 {
		s.pos, s.vel = s.spring.Update(s.pos, s.vel, s.target)
		if math.Abs(s.pos-s.target) < settled && math.Abs(s.vel) < settled {
			s.pos, s.vel = s.target, 0
		}
	}
	return FromScroll(s.pos, s.spacer)
}

// Raw returns progress at the last observed offset, ignoring smoothing.
func (s *Scroll) Raw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FromScroll(s.target, s.spacer)
}

// Offset returns the target scroll offset.
func (s *Scroll) Offset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Velocity returns the last measured scroll speed in px/ms.
func (s *Scroll) Velocity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.velocity
}

func (s *Scroll) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// SetSpacer updates the spacer height after a layout change.
func (s *Scroll) SetSpacer(h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spacer = h
}

func (s *Scroll) Spacer() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spacer
}
