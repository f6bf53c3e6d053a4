package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.stl")
	fresh := filepath.Join(dir, "Fresh.STL")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, fresh, other} {
		if err := os.WriteFile(p, []byte("solid x\nendsolid x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	got, err := FindLatestSTL(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != fresh {
		t.Errorf("FindLatestSTL = %s, want %s", got, fresh)
	}

	if _, err := FindLatestTimeline(dir); err == nil {
		t.Error("expected error when no timeline exists")
	}
}

func TestImagePoolReuse(t *testing.T) {
	p := NewImagePool()
	a := p.Get(64, 32)
	if a.Rect.Dx() != 64 || a.Rect.Dy() != 32 {
		t.Fatalf("size = %v", a.Rect)
	}
	p.Put(a)
	p.Get(64, 32)
	p.Get(16, 16)

	st := p.Stats()
	if st.Gets != 3 {
		t.Errorf("gets = %d", st.Gets)
	}
	// sync.Pool may drop entries, so only the upper bound is certain
	if st.Allocs < 2 || st.Allocs > 3 {
		t.Errorf("allocs = %d", st.Allocs)
	}
}

func TestSuggestWorkers(t *testing.T) {
	s := HostStats{LogicalCPUs: 8, FreeMemory: 1 << 30}
	tests := []struct {
		name       string
		requested  int
		frameBytes uint64
		want       int
	}{
		{"default to cpus", 0, 0, 8},
		{"explicit", 3, 0, 3},
		{"memory bound", 16, 16 << 20, 4},
		{"at least one", 4, 1 << 30, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SuggestWorkers(tt.requested, tt.frameBytes); got != tt.want {
				t.Errorf("SuggestWorkers(%d, %d) = %d, want %d", tt.requested, tt.frameBytes, got, tt.want)
			}
		})
	}
}

func TestPickH264Encoder(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"software only", " V....D libx264  libx264 H.264 / AVC", "libx264"},
		{"nvenc", " V....D libx264\n V....D h264_nvenc  NVIDIA NVENC H.264 encoder", "h264_nvenc"},
		{"videotoolbox wins", " V....D h264_nvenc\n V....D h264_videotoolbox  VideoToolbox H.264 Encoder", "h264_videotoolbox"},
		{"empty", "", "libx264"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickH264Encoder(tt.output); got != tt.want {
				t.Errorf("PickH264Encoder() = %q, want %q", got, tt.want)
			}
		})
	}
}
