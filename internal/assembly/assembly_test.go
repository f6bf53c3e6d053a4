package assembly

import (
	"errors"
	"math"
	"testing"

	"github.com/ivlev/phasekit/internal/pose"
)

func testGeometry() Geometry {
	return Geometry{
		Outer: pose.NewBox(pose.V(-50, -40, -30), pose.V(50, 40, 30)),
		Inner: pose.NewBox(pose.V(-10, -10, 0), pose.V(10, 10, 100)),
	}
}

func loaded(t *testing.T) *Assembly {
	t.Helper()
	a := New(DefaultSpec())
	if err := a.OnLoaded(testGeometry()); err != nil {
		t.Fatalf("OnLoaded: %v", err)
	}
	return a
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func state(t *testing.T, f pose.Frame, id pose.ObjectID) pose.State {
	t.Helper()
	s, ok := f.Find(id)
	if !ok {
		t.Fatalf("frame has no %q state: %+v", id, f)
	}
	return s
}

func TestNotReadyBeforeLoad(t *testing.T) {
	a := New(DefaultSpec())
	if a.Ready() {
		t.Fatal("assembly ready before geometry loaded")
	}
	if _, res, ok := a.EvaluateProgress(0.5); ok || res.Ready() {
		t.Fatalf("expected NotReady, got %+v", res)
	}
}

func TestOnErrorLeavesAssemblyUnanimated(t *testing.T) {
	a := New(DefaultSpec())
	cause := errors.New("outer.stl: no such file")
	a.OnError(cause)
	if a.Ready() {
		t.Fatal("assembly ready after load failure")
	}
	if !errors.Is(a.Err(), cause) {
		t.Fatalf("Err() = %v, want %v", a.Err(), cause)
	}
}

func TestOnLoadedRejectsEmptyGeometry(t *testing.T) {
	a := New(DefaultSpec())
	if err := a.OnLoaded(Geometry{Outer: testGeometry().Outer}); err == nil {
		t.Fatal("expected error for missing inner geometry")
	}
	if a.Ready() || a.Table() != nil {
		t.Fatal("partial table built")
	}
}

func TestKeyPoses(t *testing.T) {
	r, err := NewRig(testGeometry())
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Inner.Poses[PoseDown].Position.Z; !near(got, 32) {
		t.Errorf("inner down z = %v, want 32", got)
	}
	if got := r.Inner.Poses[PoseUp].Position.Z; !near(got, 61) {
		t.Errorf("inner up z = %v, want 61", got)
	}
	in := r.Cartridge.Poses[PoseIn]
	if !near(in.Position.Y, -72+20) || !near(in.Position.Z, -6) || !near(in.Rotation.Y, math.Pi/2) {
		t.Errorf("cartridge in = %+v", in)
	}
	out := r.Cartridge.Poses[PoseOut]
	if !near(out.Position.X, 36) || !near(out.Position.Y, -72) || !near(out.Position.Z, 210) || out.Rotation.Y != 0 {
		t.Errorf("cartridge out = %+v", out)
	}
	if !near(r.CartridgeRadius, 80*0.33) || !near(r.CartridgeLength, 80*0.7) {
		t.Errorf("cartridge dims = %v x %v", r.CartridgeRadius, r.CartridgeLength)
	}
}

func TestScrollEndToEnd(t *testing.T) {
	a := loaded(t)
	r := a.Rig()

	// fully open: cartridge out, visible
	f, res, ok := a.EvaluateProgress(1)
	if !ok || res.Phase.Name != PhaseLoad || res.LocalT != 0 {
		t.Fatalf("progress 1 resolved to %+v", res)
	}
	cart := state(t, f, CartridgeID)
	if cart.Position != r.Cartridge.Poses[PoseOut].Position || !near(cart.Opacity, CartridgeOpacity) || !cart.Visible {
		t.Errorf("open cartridge = %+v", cart)
	}

	// fully closed: hold-bottom, inner down, cartridge hidden
	f, res, _ = a.EvaluateProgress(0)
	if res.Phase.Name != PhaseHoldBottom {
		t.Fatalf("progress 0 resolved to %q", res.Phase.Name)
	}
	if s := state(t, f, InnerID); s.Position != r.Inner.Poses[PoseDown].Position {
		t.Errorf("closed inner = %+v", s)
	}
	if s := state(t, f, CartridgeID); s.Visible || s.Opacity != 0 {
		t.Errorf("closed cartridge = %+v", s)
	}

	// quarter scroll: halfway through press
	f, res, _ = a.EvaluateProgress(0.25)
	if res.Phase.Name != PhasePress || !near(res.LocalT, 0.5) {
		t.Fatalf("progress 0.25 resolved to %q t=%v", res.Phase.Name, res.LocalT)
	}
	mid := (r.Inner.Poses[PoseUp].Position.Z + r.Inner.Poses[PoseDown].Position.Z) / 2
	if s := state(t, f, InnerID); !near(s.Position.Z, mid) {
		t.Errorf("inner z = %v, want %v", s.Position.Z, mid)
	}
	if s := state(t, f, CartridgeID); !near(s.Opacity, 0.3) {
		t.Errorf("cartridge opacity = %v, want 0.3", s.Opacity)
	}
}

func TestReleaseReveal(t *testing.T) {
	a := loaded(t)
	tests := []struct {
		localT  float64
		visible bool
		opacity float64
	}{
		{0, false, 0},
		{0.04, false, 0},
		{0.06, true, CartridgeOpacity * 0.01 / 0.9},
		{0.5, true, CartridgeOpacity * 0.5},
		{0.95, true, CartridgeOpacity},
		{0.99, true, CartridgeOpacity},
	}
	for _, tt := range tests {
		cycle := 0.75 + tt.localT*0.15
		f, res, _ := a.Evaluate(cycle)
		if res.Phase.Name != PhaseRelease {
			t.Fatalf("cycle %v resolved to %q", cycle, res.Phase.Name)
		}
		s := state(t, f, CartridgeID)
		if s.Visible != tt.visible || math.Abs(s.Opacity-tt.opacity) > 1e-6 {
			t.Errorf("release t=%v: visible=%v opacity=%v, want %v %v", tt.localT, s.Visible, s.Opacity, tt.visible, tt.opacity)
		}
	}
}

func TestEjectRotation(t *testing.T) {
	a := loaded(t)
	f, res, _ := a.Evaluate(1)
	if res.Phase.Name != PhaseEject || res.LocalT != 1 {
		t.Fatalf("cycle 1 resolved to %+v", res)
	}
	if s := state(t, f, CartridgeID); s.Rotation.Y != 0 {
		t.Errorf("ejected rotation = %v, want 0", s.Rotation.Y)
	}
	f, _, _ = a.Evaluate(0.9)
	if s := state(t, f, CartridgeID); !near(s.Rotation.Y, math.Pi/2) {
		t.Errorf("eject start rotation = %v, want pi/2", s.Rotation.Y)
	}
}

func TestEveryPhaseSpecifiesBothObjects(t *testing.T) {
	a := loaded(t)
	for _, p := range a.Table().Phases() {
		for _, lt := range []float64{0, 0.5, 1} {
			f := p.Compute(lt)
			for _, id := range []pose.ObjectID{InnerID, CartridgeID} {
				s, ok := f.Find(id)
				if !ok {
					t.Errorf("phase %q t=%v omits %q", p.Name, lt, id)
					continue
				}
				if s.Scale != 1 {
					t.Errorf("phase %q t=%v %q scale = %v", p.Name, lt, id, s.Scale)
				}
			}
		}
	}
}

func TestCycleFromProgress(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{1, 0},
		{0, CloseSpan},
		{0.5, 0.2},
		{-3, CloseSpan},
		{math.NaN(), CloseSpan},
	}
	for _, tt := range tests {
		if got := CycleFromProgress(tt.in); !near(got, tt.want) {
			t.Errorf("CycleFromProgress(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
