package preview

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/ivlev/phasekit/internal/assembly"
	"github.com/ivlev/phasekit/internal/driver"
	"github.com/ivlev/phasekit/internal/pose"
	"github.com/ivlev/phasekit/internal/turntable"
)

func testRig(t *testing.T) (*assembly.Rig, assembly.Geometry) {
	t.Helper()
	g := assembly.Geometry{
		Outer: pose.NewBox(pose.V(-60, -45, -25), pose.V(60, 45, 25)),
		Inner: pose.NewBox(pose.V(-12, -12, 0), pose.V(12, 12, 40)),
	}
	r, err := assembly.NewRig(g)
	if err != nil {
		t.Fatal(err)
	}
	return r, g
}

func TestProjectorFitsBounds(t *testing.T) {
	b := pose.NewBox(pose.V(-10, -10, -10), pose.V(10, 10, 10))
	p := NewProjector(b, 200, 100, 0.1)
	for _, c := range corners(b) {
		x, y, _ := p.Project(c)
		if x < 9.99 || x > 190.01 || y < 9.99 || y > 90.01 {
			t.Errorf("corner %+v projected outside the margin: (%v, %v)", c, x, y)
		}
	}
	cx, cy, _ := p.Project(b.Center())
	if cx < 99 || cx > 101 || cy < 49 || cy > 51 {
		t.Errorf("centre projected to (%v, %v)", cx, cy)
	}
}

func countColor(img *image.RGBA, r image.Rectangle, want color.RGBA) int {
	n := 0
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == want {
				n++
			}
		}
	}
	return n
}

func TestRenderHonoursVisibility(t *testing.T) {
	rig, g := testRig(t)
	opts := DefaultOptions()
	opts.HUD = false
	c := NewCanvas(320, 240, DeviceScene(rig, g), opts, nil)

	out := rig.Cartridge.Poses[assembly.PoseOut]
	visible := driver.Snapshot{States: pose.Frame{pose.At(assembly.CartridgeID, out, 1)}}
	img, err := c.Render(visible)
	if err != nil {
		t.Fatal(err)
	}
	if countColor(img, img.Bounds(), cartridgeColor) == 0 {
		t.Error("opaque cartridge not drawn")
	}
	c.Release(img)

	hidden := driver.Snapshot{States: pose.Frame{pose.Hidden(assembly.CartridgeID, out)}}
	img, err = c.Render(hidden)
	if err != nil {
		t.Fatal(err)
	}
	if n := countColor(img, img.Bounds(), cartridgeColor); n != 0 {
		t.Errorf("hidden cartridge drew %d pixels", n)
	}
}

func TestHUDLines(t *testing.T) {
	s := driver.Snapshot{
		Index: 12,
		Stages: []driver.StageStatus{
			{Name: "device", Phase: assembly.PhasePress, LocalT: 0.5, Progress: 0.25, Ready: true},
			{Name: "other"},
		},
	}
	lines := HUDLines("demo", s)
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"demo", "frame 12", "device: press t=0.50 p=0.250", "other: not ready"} {
		if !strings.Contains(joined, want) {
			t.Errorf("HUD missing %q:\n%s", want, joined)
		}
	}
}

func TestQRStamp(t *testing.T) {
	m, err := turntable.NewModel(turntable.DefaultComponents())
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.QRSize = 64
	c := NewCanvas(200, 200, DeckScene(m, []pose.ObjectID{turntable.CaseID, turntable.PlatterID}), opts, nil)

	s := driver.Snapshot{Index: 3, States: m.Frame(), Stages: []driver.StageStatus{{Name: "turntable", Phase: "idle"}}}
	if got := QRPayload(s); got != "f=3;turntable=idle@0.0000" {
		t.Errorf("payload = %q", got)
	}
	img, err := c.Render(s)
	if err != nil {
		t.Fatal(err)
	}
	stamp := image.Rect(200-64-10, 200-64-10, 190, 190)
	if countColor(img, stamp, color.RGBA{A: 0xff}) == 0 {
		t.Error("QR stamp has no dark modules")
	}
}
