package assembly

import (
	"fmt"
	"math"

	"github.com/ivlev/phasekit/internal/pose"
)

const (
	InnerID     pose.ObjectID = "inner"
	CartridgeID pose.ObjectID = "cartridge"
)

// Key pose names.
const (
	PoseUp   = "up"
	PoseDown = "down"
	PoseIn   = "in"
	PoseOut  = "out"
)

// CartridgeOpacity is the cartridge's fully visible opacity; the shell is
// rendered translucent so the inner part stays readable behind it.
const CartridgeOpacity = 0.6

// Geometry is what the asset loader delivers: the bounding boxes of the two
// parsed STL parts.
type Geometry struct {
	Outer pose.Box
	Inner pose.Box
}

// Rig owns the tracked objects of one device and the key poses computed
// from its geometry.
type Rig struct {
	Inner     *pose.TrackedObject
	Cartridge *pose.TrackedObject

	// Cartridge body dimensions, used by renderers.
	CartridgeRadius float64
	CartridgeLength float64

	Bounds pose.Box
}

// NewRig derives key poses from the loaded bounding boxes.
//
// Inner part: the button travels along +Z inside its slot, starting at 32%
// of the part height and moving 29% of it.
// Cartridge: the IN pose sits in the loading opening below the device
// centre rotated 90°, the OUT pose is far out toward the viewer.
func NewRig(g Geometry) (*Rig, error) {
	if g.Outer.Empty() || g.Inner.Empty() {
		return nil, fmt.Errorf("device geometry incomplete: outer %v, inner %v", g.Outer, g.Inner)
	}
	outer := g.Outer.Size()
	inner := g.Inner.Size()
	if outer.Y <= 0 || outer.Z <= 0 || inner.Z <= 0 {
		return nil, fmt.Errorf("device geometry has zero extent: outer %+v, inner %+v", outer, inner)
	}

	startOffset := inner.Z * 0.32
	travel := inner.Z * 0.29
	down := pose.Transform{Position: pose.V(0, 0, startOffset)}
	up := pose.Transform{Position: pose.V(0, 0, startOffset+travel)}

	innerObj := pose.NewTrackedObject(InnerID, down)
	innerObj.SetPose(PoseUp, up)
	innerObj.SetPose(PoseDown, down)

	openingY := -outer.Y * 0.9
	openingZ := -outer.Z * 0.1
	in := pose.Transform{
		Position: pose.V(0, openingY+20, openingZ),
		Rotation: pose.V(0, math.Pi/2, 0),
	}
	out := pose.Transform{
		Position: pose.V(outer.Z*0.6, openingY, outer.Z*3.5),
	}

	cart := pose.NewTrackedObject(CartridgeID, out)
	cart.SetPose(PoseIn, in)
	cart.SetPose(PoseOut, out)

	// geometry is centred on load, so the shell box is re-expressed around the origin
	bounds := g.Outer.Translate(g.Outer.Center().Scale(-1))
	bounds = bounds.Extend(up.Position).Extend(down.Position).Extend(in.Position).Extend(out.Position)

	return &Rig{
		Inner:           innerObj,
		Cartridge:       cart,
		CartridgeRadius: outer.Y * 0.33,
		CartridgeLength: outer.Y * 0.7,
		Bounds:          bounds,
	}, nil
}
