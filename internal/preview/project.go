package preview

import (
	"math"

	"github.com/ivlev/phasekit/internal/pose"
)

// Projector maps scene points to pixels with a fixed three-quarter view.
type Projector struct {
	yawSin, yawCos     float64
	pitchSin, pitchCos float64
	scale              float64
	offX, offY         float64
}

const (
	defaultYaw   = -math.Pi / 6
	defaultPitch = math.Pi / 8
)

// NewProjector fits bounds into a w x h image leaving margin (fraction of
// the smaller side) on every edge.
func NewProjector(bounds pose.Box, w, h int, margin float64) Projector {
	p := Projector{
		yawSin: math.Sin(defaultYaw), yawCos: math.Cos(defaultYaw),
		pitchSin: math.Sin(defaultPitch), pitchCos: math.Cos(defaultPitch),
		scale: 1,
	}
	if bounds.Empty() {
		p.offX, p.offY = float64(w)/2, float64(h)/2
		return p
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners(bounds) {
		x, y, _ := p.view(c)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	pad := margin * math.Min(float64(w), float64(h))
	availW, availH := float64(w)-2*pad, float64(h)-2*pad
	spanX, spanY := maxX-minX, maxY-minY
	if spanX > 0 && spanY > 0 && availW > 0 && availH > 0 {
		p.scale = math.Min(availW/spanX, availH/spanY)
	}
	p.offX = float64(w)/2 - (minX+maxX)/2*p.scale
	p.offY = float64(h)/2 + (minY+maxY)/2*p.scale
	return p
}

// view rotates a point into camera space: x right, y up, depth away.
func (p Projector) view(v pose.Vec3) (x, y, depth float64) {
	x = v.X*p.yawCos + v.Z*p.yawSin
	z := -v.X*p.yawSin + v.Z*p.yawCos
	y = v.Y*p.pitchCos - z*p.pitchSin
	depth = v.Y*p.pitchSin + z*p.pitchCos
	return x, y, -depth
}

// Project returns pixel coordinates and a depth for painter's ordering.
func (p Projector) Project(v pose.Vec3) (px, py, depth float64) {
	x, y, d := p.view(v)
	return p.offX + x*p.scale, p.offY - y*p.scale, d
}

func corners(b pose.Box) [8]pose.Vec3 {
	var out [8]pose.Vec3
	for i := range out {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out[i] = c
	}
	return out
}

// rotate applies Euler angles in X, Y, Z order.
func rotate(v, r pose.Vec3) pose.Vec3 {
	if r.X != 0 {
		s, c := math.Sincos(r.X)
		v = pose.V(v.X, v.Y*c-v.Z*s, v.Y*s+v.Z*c)
	}
	if r.Y != 0 {
		s, c := math.Sincos(r.Y)
		v = pose.V(v.X*c+v.Z*s, v.Y, -v.X*s+v.Z*c)
	}
	if r.Z != 0 {
		s, c := math.Sincos(r.Z)
		v = pose.V(v.X*c-v.Y*s, v.X*s+v.Y*c, v.Z)
	}
	return v
}

// placed returns the box corners of shape s under state st.
func placed(b pose.Box, st pose.State) [8]pose.Vec3 {
	cs := corners(b)
	scale := st.Scale
	if scale == 0 {
		scale = 1
	}
	for i, c := range cs {
		cs[i] = rotate(c.Scale(scale), st.Rotation).Add(st.Position)
	}
	return cs
}
