package assembly

import (
	"github.com/ivlev/phasekit/internal/easing"
	"github.com/ivlev/phasekit/internal/pose"
	"github.com/ivlev/phasekit/internal/timeline"
)

// Phase names of the cartridge load/eject sequence.
const (
	PhaseLoad       = "load"
	PhaseHoldTop    = "hold-top"
	PhasePress      = "press"
	PhaseHoldBottom = "hold-bottom"
	PhaseRelease    = "release"
	PhaseEject      = "eject"
)

// CloseSpan is the part of the cycle the scroll gesture covers: scrolling
// from open to closed plays load, hold-top and press.
const CloseSpan = 0.4

// Release-phase cartridge reveal window in local t.
const (
	revealStart = 0.05
	revealEnd   = 0.95
)

// DefaultSpec is the hand-tuned device timeline. Proportions and easing
// choices are part of the look; release is linear on purpose.
func DefaultSpec() timeline.Spec {
	return timeline.Spec{
		Version: "1.0",
		Name:    "device",
		Phases: []timeline.PhaseSpec{
			{Name: PhaseLoad, Start: 0, End: 0.1, Easing: "smoothstep", Note: "cartridge slides in and turns 90°"},
			{Name: PhaseHoldTop, Start: 0.1, End: 0.2, Note: "pause, inner up"},
			{Name: PhasePress, Start: 0.2, End: 0.4, Easing: "smoothstep", Note: "inner down, cartridge fades with raw t"},
			{Name: PhaseHoldBottom, Start: 0.4, End: 0.75, Note: "pause, cartridge hidden"},
			{Name: PhaseRelease, Start: 0.75, End: 0.9, Easing: "linear", Note: "inner up, delayed cartridge reveal"},
			{Name: PhaseEject, Start: 0.9, End: 1, Easing: "smoothstep", Note: "cartridge slides out and turns back"},
		},
	}
}

// Behaviors returns the pose function of every device phase. Each one
// specifies both tracked objects completely.
func (r *Rig) Behaviors() map[string]timeline.Behavior {
	up, down := r.Inner.Poses[PoseUp], r.Inner.Poses[PoseDown]
	in, out := r.Cartridge.Poses[PoseIn], r.Cartridge.Poses[PoseOut]

	return map[string]timeline.Behavior{
		PhaseLoad: func(eased, _ float64) pose.Frame {
			return pose.Frame{
				pose.At(InnerID, up, 1),
				pose.At(CartridgeID, pose.LerpTransform(out, in, eased), CartridgeOpacity),
			}
		},
		PhaseHoldTop: func(_, _ float64) pose.Frame {
			return pose.Frame{
				pose.At(InnerID, up, 1),
				pose.At(CartridgeID, in, CartridgeOpacity),
			}
		},
		PhasePress: func(eased, localT float64) pose.Frame {
			// opacity follows raw t so the fade tracks the press exactly
			return pose.Frame{
				pose.At(InnerID, pose.LerpTransform(up, down, eased), 1),
				pose.At(CartridgeID, in, CartridgeOpacity*(1-localT)),
			}
		},
		PhaseHoldBottom: func(_, _ float64) pose.Frame {
			return pose.Frame{
				pose.At(InnerID, down, 1),
				pose.Hidden(CartridgeID, in),
			}
		},
		PhaseRelease: func(eased, localT float64) pose.Frame {
			return pose.Frame{
				pose.At(InnerID, pose.LerpTransform(down, up, eased), 1),
				releaseCartridge(in, localT),
			}
		},
		PhaseEject: func(eased, _ float64) pose.Frame {
			return pose.Frame{
				pose.At(InnerID, up, 1),
				pose.At(CartridgeID, pose.LerpTransform(in, out, eased), CartridgeOpacity),
			}
		},
	}
}

// releaseCartridge keeps the cartridge hidden for the first 5% of the
// release, then fades it in as the inner part uncovers it.
func releaseCartridge(in pose.Transform, localT float64) pose.State {
	switch {
	case localT < revealStart:
		return pose.Hidden(CartridgeID, in)
	case localT < revealEnd:
		fade := (localT - revealStart) / (revealEnd - revealStart)
		return pose.At(CartridgeID, in, CartridgeOpacity*fade)
	default:
		return pose.At(CartridgeID, in, CartridgeOpacity)
	}
}

// NewTable binds a timeline spec to this rig.
func (r *Rig) NewTable(spec timeline.Spec) (*timeline.Table, error) {
	return timeline.Bind(spec, r.Behaviors())
}

// CycleFromProgress maps device progress to a position on the timeline.
func CycleFromProgress(progress float64) float64 {
	return (1 - easing.Clamp01(progress)) * CloseSpan
}
