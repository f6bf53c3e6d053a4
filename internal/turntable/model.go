// Package turntable animates the exploded turntable model and the vinyl
// load sequence that runs on top of it.
package turntable

import (
	"fmt"

	"github.com/ivlev/phasekit/internal/pose"
)

const (
	// ExplosionDistance is the vertical gap between neighbouring layers of
	// the fully exploded model.
	ExplosionDistance = 50.0
	// CollapseRate is the per-frame fraction of the remaining distance the
	// explosion covers toward its target.
	CollapseRate = 0.05
	// settleEpsilon snaps the explosion once it is visually at rest.
	settleEpsilon = 1e-4
)

// Well-known component IDs of the default model.
const (
	CaseID    pose.ObjectID = "case"
	BaseID    pose.ObjectID = "platter-base"
	PlatterID pose.ObjectID = "platter"
	SpindleID pose.ObjectID = "spindle"
	TonearmID pose.ObjectID = "tonearm"
	LidID     pose.ObjectID = "lid"
)

// Component is one rigid part of the model. Base is its collapsed world
// bounding box; Order is the layer it rises to when exploded.
type Component struct {
	ID    pose.ObjectID
	Order float64
	Base  pose.Box
}

// Model is the exploded-view turntable. The explosion eases toward its
// target by a fixed fraction every frame.
type Model struct {
	components []Component
	index      map[pose.ObjectID]int
	progress   float64
	target     float64
}

// NewModel creates a collapsed model.
func NewModel(components []Component) (*Model, error) {
	m := &Model{index: make(map[pose.ObjectID]int, len(components))}
	for _, c := range components {
		if c.Base.Empty() {
			return nil, fmt.Errorf("component %q has no geometry", c.ID)
		}
		if _, dup := m.index[c.ID]; dup {
			return nil, fmt.Errorf("component %q listed twice", c.ID)
		}
		m.index[c.ID] = len(m.components)
		m.components = append(m.components, c)
	}
	return m, nil
}

// DefaultComponents is a procedural turntable used when no model file is
// given. Units match the vinyl record (radius 25).
func DefaultComponents() []Component {
	return []Component{
		{ID: CaseID, Order: 0, Base: pose.NewBox(pose.V(-60, 0, -45), pose.V(60, 20, 45))},
		{ID: BaseID, Order: 2, Base: pose.NewBox(pose.V(-32, 20, -32), pose.V(32, 24, 32))},
		{ID: PlatterID, Order: 3, Base: pose.NewBox(pose.V(-30, 24, -30), pose.V(30, 27, 30))},
		{ID: SpindleID, Order: 4, Base: pose.NewBox(pose.V(-1, 27, -1), pose.V(1, 32, 1))},
		{ID: TonearmID, Order: 6, Base: pose.NewBox(pose.V(38, 24, -30), pose.V(44, 30, 25))},
		{ID: LidID, Order: 7, Base: pose.NewBox(pose.V(-60, 20, -45), pose.V(60, 45, 45))},
	}
}

// Explode sets the explosion target: true to fan the layers out, false to
// collapse them.
func (m *Model) Explode(on bool) {
	if on {
		m.target = 1
	} else {
		m.target = 0
	}
}

func (m *Model) Exploded() bool { return m.target == 1 }

// Step advances the explosion by one frame.
func (m *Model) Step() {
	m.progress += (m.target - m.progress) * CollapseRate
	if d := m.target - m.progress; d < settleEpsilon && d > -settleEpsilon {
		m.progress = m.target
	}
}

// Progress is the current explosion amount, 0 collapsed to 1 exploded.
func (m *Model) Progress() float64 { return m.progress }

// SetProgress jumps the explosion to p and makes it the target.
func (m *Model) SetProgress(p float64) {
	m.progress, m.target = p, p
}

func (m *Model) Component(id pose.ObjectID) (Component, bool) {
	i, ok := m.index[id]
	if !ok {
		return Component{}, false
	}
	return m.components[i], true
}

func (m *Model) offset(c Component) pose.Vec3 {
	return pose.V(0, c.Order*ExplosionDistance*m.progress, 0)
}

// Bounds returns the live world bounding box of a component.
func (m *Model) Bounds(id pose.ObjectID) (pose.Box, bool) {
	c, ok := m.Component(id)
	if !ok {
		return pose.Box{}, false
	}
	return c.Base.Translate(m.offset(c)), true
}

// Frame returns the state of every component at the current explosion.
func (m *Model) Frame() pose.Frame {
	f := make(pose.Frame, 0, len(m.components))
	for _, c := range m.components {
		f = append(f, pose.At(c.ID, pose.Transform{Position: m.offset(c)}, 1))
	}
	return f
}

// Extent is the union of all component boxes with the model fully exploded.
func (m *Model) Extent() pose.Box {
	var b pose.Box
	for _, c := range m.components {
		b = b.Union(c.Base)
		b = b.Union(c.Base.Translate(pose.V(0, c.Order*ExplosionDistance, 0)))
	}
	return b
}
