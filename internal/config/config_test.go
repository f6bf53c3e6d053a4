package config

import "testing"

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		preset string
		w, h   int
		ok     bool
	}{
		{"16:9", 1280, 720, true},
		{"9:16", 720, 1280, true},
		{"1:1", 1080, 1080, true},
		{"4:3", 1024, 768, true},
		{"cinema", 640, 480, false},
	}
	for _, tt := range tests {
		c := Config{Preset: tt.preset, Width: 640, Height: 480}
		if ok := c.ApplyPreset(); ok != tt.ok || c.Width != tt.w || c.Height != tt.h {
			t.Errorf("preset %q: %dx%d ok=%v", tt.preset, c.Width, c.Height, ok)
		}
	}
}

func TestTotalFrames(t *testing.T) {
	c := Default()
	if got := c.TotalFrames(); got != 180 {
		t.Errorf("TotalFrames = %d, want 180", got)
	}
	c.TotalDuration = 0
	if got := c.TotalFrames(); got != 1 {
		t.Errorf("TotalFrames for zero duration = %d", got)
	}
	p := SegmentParams{FPS: 30, Frames: 45}
	if p.Duration() != 1.5 {
		t.Errorf("Duration = %v", p.Duration())
	}
}
