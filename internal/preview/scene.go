// Package preview draws animation frames offscreen: an orthographic view
// of every tracked object, a text overlay with the phase readout and an
// optional QR stamp carrying the same data in machine-readable form.
package preview

import (
	"image/color"

	"github.com/ivlev/phasekit/internal/assembly"
	"github.com/ivlev/phasekit/internal/pose"
	"github.com/ivlev/phasekit/internal/turntable"
)

// Shape is the drawable extent of one object, in the object's own frame.
type Shape struct {
	Box   pose.Box
	Color color.RGBA
	// Outline draws only the projected border.
	Outline bool
}

// Scene maps tracked objects to shapes. Static shapes are drawn every
// frame at their own coordinates.
type Scene struct {
	Shapes map[pose.ObjectID]Shape
	Static []Shape
	Bounds pose.Box
}

var (
	shellColor     = color.RGBA{R: 0x55, G: 0x5b, B: 0x66, A: 0xff}
	innerColor     = color.RGBA{R: 0xe0, G: 0x8a, B: 0x2e, A: 0xff}
	cartridgeColor = color.RGBA{R: 0x3d, G: 0x8b, B: 0xd9, A: 0xff}
	vinylColor     = color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}
)

// DeviceScene builds the scene of a device rig. The shell is static and
// centred on the origin like the loaded geometry.
func DeviceScene(r *assembly.Rig, g assembly.Geometry) Scene {
	shell := g.Outer.Translate(g.Outer.Center().Scale(-1))
	inner := g.Inner.Translate(g.Inner.Center().Scale(-1))

	half := r.CartridgeLength / 2
	cart := pose.NewBox(
		pose.V(-r.CartridgeRadius, -r.CartridgeRadius, -half),
		pose.V(r.CartridgeRadius, r.CartridgeRadius, half),
	)

	bounds := r.Bounds.Union(shell)
	for _, p := range r.Inner.Poses {
		bounds = bounds.Union(inner.Translate(p.Position))
	}
	for _, p := range r.Cartridge.Poses {
		bounds = bounds.Union(cart.Translate(p.Position))
	}

	return Scene{
		Shapes: map[pose.ObjectID]Shape{
			assembly.InnerID:     {Box: inner, Color: innerColor},
			assembly.CartridgeID: {Box: cart, Color: cartridgeColor},
		},
		Static: []Shape{{Box: shell, Color: shellColor, Outline: true}},
		Bounds: bounds,
	}
}

// DeckScene builds the scene of the turntable model. Components are drawn
// at their collapsed boxes shifted by the frame offset.
func DeckScene(m *turntable.Model, ids []pose.ObjectID) Scene {
	s := Scene{Shapes: make(map[pose.ObjectID]Shape, len(ids)+1)}
	palette := []color.RGBA{
		{R: 0x8d, G: 0x6e, B: 0x63, A: 0xff},
		{R: 0xa1, G: 0x88, B: 0x7f, A: 0xff},
		{R: 0xbc, G: 0xaa, B: 0xa4, A: 0xff},
		{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff},
		{R: 0x60, G: 0x7d, B: 0x8b, A: 0xff},
	}
	for i, id := range ids {
		c, ok := m.Component(id)
		if !ok {
			continue
		}
		shape := Shape{Box: c.Base, Color: palette[i%len(palette)]}
		if id == turntable.LidID {
			shape.Outline = true
		}
		s.Shapes[id] = shape
	}

	const r = 25.0
	s.Shapes[turntable.VinylID] = Shape{
		Box:   pose.NewBox(pose.V(-r, -0.5, -r), pose.V(r, 0.5, r)),
		Color: vinylColor,
	}
	s.Bounds = m.Extent().Extend(pose.V(0, turntable.StartHeight+r, 0))
	return s
}
