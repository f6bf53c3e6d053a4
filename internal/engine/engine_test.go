package engine

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/phasekit/internal/assembly"
	"github.com/ivlev/phasekit/internal/config"
	"github.com/ivlev/phasekit/internal/driver"
	"github.com/ivlev/phasekit/internal/turntable"
	"github.com/ivlev/phasekit/internal/video"
)

type fakeEncoder struct {
	mu       sync.Mutex
	bytes    map[int]int
	segments []config.SegmentParams
	concat   []string
	final    config.SegmentParams
}

func (f *fakeEncoder) EncodeSegment(_ context.Context, path string, p config.SegmentParams, write video.FrameWriter) error {
	n, err := io.Copy(io.Discard, readerFrom(write))
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bytes == nil {
		f.bytes = make(map[int]int)
	}
	f.bytes[p.Index] = int(n)
	f.segments = append(f.segments, p)
	return nil
}

func (f *fakeEncoder) Concatenate(_ context.Context, paths []string, _, _ string, p config.SegmentParams) error {
	f.concat = paths
	f.final = p
	return nil
}

func readerFrom(write video.FrameWriter) io.Reader {
	pr, pw := io.Pipe()
	go func() { pw.CloseWithError(write(pw)) }()
	return pr
}

func testConfig(t *testing.T, mode string) *config.Config {
	cfg := config.Default()
	cfg.Mode = mode
	cfg.Procedural = true
	cfg.Width, cfg.Height = 64, 48
	cfg.FPS = 10
	cfg.TotalDuration = 5
	cfg.Workers = 2
	cfg.OutputVideo = filepath.Join(t.TempDir(), "out.mp4")
	return &cfg
}

func snapsWithPhases(phases ...string) []driver.Snapshot {
	out := make([]driver.Snapshot, len(phases))
	for i, p := range phases {
		out[i] = driver.Snapshot{Index: i, Stages: []driver.StageStatus{{Name: "s", Phase: p}}}
	}
	return out
}

func TestPlanSegments(t *testing.T) {
	snaps := snapsWithPhases("a", "a", "a", "b", "b", "a", "a", "a", "a", "a")
	segs := PlanSegments(snaps, 3, config.SegmentParams{FPS: 10})

	want := []struct {
		phase         string
		first, frames int
	}{
		{"a", 0, 3},
		{"b", 3, 2},
		{"a", 5, 3},
		{"a", 8, 2},
	}
	if len(segs) != len(want) {
		t.Fatalf("got %d segments: %+v", len(segs), segs)
	}
	total := 0
	for i, w := range want {
		s := segs[i]
		if s.Index != i || s.Phase != w.phase || s.FirstFrame != w.first || s.Frames != w.frames {
			t.Errorf("segment %d = %+v, want %+v", i, s, w)
		}
		total += s.Frames
	}
	if total != len(snaps) {
		t.Errorf("segments cover %d frames, want %d", total, len(snaps))
	}
}

func TestSimulateScroll(t *testing.T) {
	cfg := testConfig(t, config.ModeScroll)
	start := time.Unix(0, 0)
	sc, err := NewScenario(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	p := NewPreviewProject(cfg, sc, &fakeEncoder{})
	snaps, err := p.Simulate(context.Background(), start)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != cfg.TotalFrames() {
		t.Fatalf("simulated %d frames", len(snaps))
	}
	if got := snaps[0].Stages[0].Phase; got != assembly.PhaseLoad {
		t.Errorf("first frame phase = %q, want load", got)
	}
	if got := snaps[len(snaps)-1].Stages[0].Phase; got != assembly.PhaseHoldBottom && got != assembly.PhasePress {
		t.Errorf("last frame phase = %q, want the closed end of the sweep", got)
	}
}

func TestSimulateVinylCompletes(t *testing.T) {
	cfg := testConfig(t, config.ModeVinyl)
	start := time.Unix(0, 0)
	sc, err := NewScenario(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	snaps, err := NewPreviewProject(cfg, sc, &fakeEncoder{}).Simulate(context.Background(), start)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, s := range snaps {
		seen[s.Stages[0].Phase] = true
	}
	for _, ph := range []string{turntable.PhaseDescend, turntable.PhaseLidClose, turntable.PhaseSpinHold} {
		if !seen[ph] {
			t.Errorf("phase %q never rendered", ph)
		}
	}
}

func TestSimulateOscillateIsFrameIndexed(t *testing.T) {
	cfg := testConfig(t, config.ModeOscillate)
	simulate := func(start time.Time) []driver.Snapshot {
		sc, err := NewScenario(context.Background(), cfg)
		if err != nil {
			t.Fatal(err)
		}
		snaps, err := NewPreviewProject(cfg, sc, &fakeEncoder{}).Simulate(context.Background(), start)
		if err != nil {
			t.Fatal(err)
		}
		return snaps
	}

	a := simulate(time.Unix(0, 0))
	b := simulate(time.Unix(1700000000, 123456789))
	if got := a[0].Stages[0].Progress; got != 0.5 {
		t.Errorf("frame 0 progress = %v, want 0.5", got)
	}
	for i := range a {
		if a[i].Stages[0].Progress != b[i].Stages[0].Progress {
			t.Fatalf("frame %d: progress %v vs %v for different start times", i, a[i].Stages[0].Progress, b[i].Stages[0].Progress)
		}
	}
	if a[1].Stages[0].Progress <= 0.5 {
		t.Errorf("frame 1 progress = %v, want the sine to rise", a[1].Stages[0].Progress)
	}
}

func TestSimulateVinylIsDeterministic(t *testing.T) {
	cfg := testConfig(t, config.ModeVinyl)
	phases := func() []string {
		sc, err := NewScenario(context.Background(), cfg)
		if err != nil {
			t.Fatal(err)
		}
		snaps, err := NewPreviewProject(cfg, sc, &fakeEncoder{}).Simulate(context.Background(), time.Unix(0, 0))
		if err != nil {
			t.Fatal(err)
		}
		out := make([]string, len(snaps))
		for i, s := range snaps {
			out[i] = s.Stages[0].Phase
		}
		return out
	}

	first := phases()
	// descend 1.5s + lid close 1s + spin hold 2s at 10 fps
	if first[0] != turntable.PhaseDescend {
		t.Errorf("frame 0 phase = %q, want %q", first[0], turntable.PhaseDescend)
	}
	for i := 0; i < 44; i++ {
		if first[i] == "idle" {
			t.Fatalf("frame %d idle before the run finished", i)
		}
	}
	for i := 46; i < len(first); i++ {
		if first[i] != "idle" {
			t.Fatalf("frame %d phase = %q after the run finished", i, first[i])
		}
	}

	for n := 0; n < 3; n++ {
		again := phases()
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("run %d frame %d: phase %q, want %q", n, i, again[i], first[i])
			}
		}
	}
}

func TestRunEncodesEverySegment(t *testing.T) {
	for _, mode := range []string{config.ModeScroll, config.ModeOscillate, config.ModeVinyl} {
		t.Run(mode, func(t *testing.T) {
			cfg := testConfig(t, mode)
			sc, err := NewScenario(context.Background(), cfg)
			if err != nil {
				t.Fatal(err)
			}
			enc := &fakeEncoder{}
			if err := NewPreviewProject(cfg, sc, enc).Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(enc.concat) != len(enc.segments) || len(enc.concat) == 0 {
				t.Fatalf("concatenated %d of %d segments", len(enc.concat), len(enc.segments))
			}
			frameBytes := cfg.Width * cfg.Height * 4
			frames := 0
			for _, s := range enc.segments {
				if enc.bytes[s.Index] != s.Frames*frameBytes {
					t.Errorf("segment %d wrote %d bytes for %d frames", s.Index, enc.bytes[s.Index], s.Frames)
				}
				frames += s.Frames
			}
			if frames != cfg.TotalFrames() {
				t.Errorf("encoded %d frames, want %d", frames, cfg.TotalFrames())
			}
		})
	}
}

func TestNewScenarioUnknownMode(t *testing.T) {
	cfg := testConfig(t, "spiral")
	if _, err := NewScenario(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestRunAppliesFadeOnConcat(t *testing.T) {
	cfg := testConfig(t, config.ModeOscillate)
	cfg.TotalDuration = 2
	sc, err := NewScenario(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	enc := &fakeEncoder{}
	if err := NewPreviewProject(cfg, sc, enc).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if enc.final.Filter != "" {
		t.Errorf("no fade configured, got filter %q", enc.final.Filter)
	}

	cfg.FadeDuration = 0.5
	enc = &fakeEncoder{}
	if err := NewPreviewProject(cfg, sc, enc).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := "fade=t=in:st=0:d=0.500,fade=t=out:st=1.500:d=0.500"
	if enc.final.Filter != want {
		t.Errorf("filter = %q, want %q", enc.final.Filter, want)
	}
	if enc.final.Frames != cfg.TotalFrames() {
		t.Errorf("final frames = %d, want %d", enc.final.Frames, cfg.TotalFrames())
	}
}
