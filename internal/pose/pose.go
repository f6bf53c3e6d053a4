// Package pose holds the transform vocabulary shared by the animators and
// their renderers: vectors, bounding boxes, tracked objects with named key
// poses, and the per-frame object states a renderer consumes.
package pose

import (
	"fmt"
	"math"
	"sort"

	"github.com/ivlev/phasekit/internal/easing"
)

// Vec3 is a point or Euler rotation (radians) in assembly-local space.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func V(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Lerp returns a + (b - a) * t for every component.
func Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{
		X: easing.Lerp(a.X, b.X, t),
		Y: easing.Lerp(a.Y, b.Y, t),
		Z: easing.Lerp(a.Z, b.Z, t),
	}
}

// Transform is a position plus Euler rotation.
type Transform struct {
	Position Vec3
	Rotation Vec3
}

// LerpTransform interpolates position and rotation independently.
func LerpTransform(a, b Transform, t float64) Transform {
	return Transform{
		Position: Lerp(a.Position, b.Position, t),
		Rotation: Lerp(a.Rotation, b.Rotation, t),
	}
}

// Box is an axis-aligned bounding box. The zero value is an empty box.
type Box struct {
	Min   Vec3
	Max   Vec3
	valid bool
}

// NewBox builds a box from two corners in any order.
func NewBox(a, b Vec3) Box {
	return Box{
		Min:   Vec3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)},
		Max:   Vec3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)},
		valid: true,
	}
}

// Empty reports whether no point was ever added to the box.
func (b Box) Empty() bool { return !b.valid }

// Extend grows the box to include p.
func (b Box) Extend(p Vec3) Box {
	if !b.valid {
		return Box{Min: p, Max: p, valid: true}
	}
	b.Min = Vec3{math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)}
	b.Max = Vec3{math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)}
	return b
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	if !o.valid {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

func (b Box) Size() Vec3 { return b.Max.Sub(b.Min) }

func (b Box) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

// Translate returns the box moved by d.
func (b Box) Translate(d Vec3) Box {
	if !b.valid {
		return b
	}
	return Box{Min: b.Min.Add(d), Max: b.Max.Add(d), valid: true}
}

func (b Box) String() string {
	if !b.valid {
		return "Box(empty)"
	}
	return fmt.Sprintf("Box(%.2f,%.2f,%.2f → %.2f,%.2f,%.2f)",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

// ObjectID names a tracked object within one assembly.
type ObjectID string

// TrackedObject owns a rest transform and named key poses expressed relative
// to the assembly origin. Key poses are computed once from loaded geometry.
type TrackedObject struct {
	ID    ObjectID
	Rest  Transform
	Poses map[string]Transform
}

// NewTrackedObject creates an object with the given rest transform.
func NewTrackedObject(id ObjectID, rest Transform) *TrackedObject {
	return &TrackedObject{ID: id, Rest: rest, Poses: make(map[string]Transform)}
}

// SetPose registers or replaces a key pose.
func (o *TrackedObject) SetPose(name string, t Transform) {
	if o.Poses == nil {
		o.Poses = make(map[string]Transform)
	}
	o.Poses[name] = t
}

// Pose returns the named key pose.
func (o *TrackedObject) Pose(name string) (Transform, error) {
	t, ok := o.Poses[name]
	if !ok {
		return Transform{}, fmt.Errorf("object %s has no key pose %q", o.ID, name)
	}
	return t, nil
}

// PoseNames returns the registered key pose names in sorted order.
func (o *TrackedObject) PoseNames() []string {
	names := make([]string, 0, len(o.Poses))
	for name := range o.Poses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// State is one object's fully specified render state for a single frame.
type State struct {
	ID       ObjectID
	Position Vec3
	Rotation Vec3
	Scale    float64
	Opacity  float64
	Visible  bool
}

// At builds a visible, unit-scale state at the given transform.
func At(id ObjectID, t Transform, opacity float64) State {
	return State{
		ID:       id,
		Position: t.Position,
		Rotation: t.Rotation,
		Scale:    1,
		Opacity:  opacity,
		Visible:  true,
	}
}

// Hidden builds a non-rendered state at the given transform with zero opacity.
func Hidden(id ObjectID, t Transform) State {
	s := At(id, t, 0)
	s.Visible = false
	return s
}

// Frame is the set of object states produced for one rendered frame.
type Frame []State

// Find returns the state of the given object.
func (f Frame) Find(id ObjectID) (State, bool) {
	for _, s := range f {
		if s.ID == id {
			return s, true
		}
	}
	return State{}, false
}

// Merge returns f with states from o appended or replacing same-ID entries.
func (f Frame) Merge(o Frame) Frame {
	out := make(Frame, len(f), len(f)+len(o))
	copy(out, f)
	for _, s := range o {
		replaced := false
		for i := range out {
			if out[i].ID == s.ID {
				out[i] = s
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, s)
		}
	}
	return out
}
