package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/phasekit/internal/assembly"
	"github.com/ivlev/phasekit/internal/pose"
)

const cubeSTL = `solid cube
  facet normal 0 0 -1
    outer loop
      vertex 0 0 0
      vertex 10 0 0
      vertex 10 20 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 0 0 30
      vertex 10 20 30
      vertex -5 20 30
    endloop
  endfacet
endsolid cube
`

func TestSTLFileBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.stl")
	if err := os.WriteFile(path, []byte(cubeSTL), 0644); err != nil {
		t.Fatal(err)
	}
	b, err := STLFile{Path: path}.Bounds(context.Background())
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	want := pose.NewBox(pose.V(-5, 0, 0), pose.V(10, 20, 30))
	if b.Min != want.Min || b.Max != want.Max {
		t.Errorf("bounds = %v, want %v", b, want)
	}
}

func TestLoadAllJoinsEverySource(t *testing.T) {
	boxes, err := LoadAll(context.Background(), map[string]Source{
		"outer": ProceduralOuter,
		"inner": ProceduralInner,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(boxes) != 2 || boxes["inner"].Empty() || boxes["outer"].Empty() {
		t.Fatalf("boxes = %v", boxes)
	}
}

func TestLoadAllFailure(t *testing.T) {
	_, err := LoadAll(context.Background(), map[string]Source{
		"outer": ProceduralOuter,
		"inner": STLFile{Path: filepath.Join(t.TempDir(), "missing.stl")},
	})
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *LoadError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("load error does not unwrap to the cause: %v", err)
	}
}

func TestLoadAllEmptyGeometry(t *testing.T) {
	_, err := LoadAll(context.Background(), map[string]Source{"x": Procedural{Label: "x"}})
	if !errors.Is(err, ErrEmptyGeometry) {
		t.Fatalf("err = %v, want ErrEmptyGeometry", err)
	}
}

func TestLoadAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadAll(ctx, map[string]Source{"outer": ProceduralOuter}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAttach(t *testing.T) {
	a := assembly.New(assembly.DefaultSpec())
	if err := Attach(context.Background(), a, ProceduralOuter, ProceduralInner); err != nil {
		t.Fatal(err)
	}
	if !a.Ready() {
		t.Error("assembly not ready after procedural load")
	}

	broken := assembly.New(assembly.DefaultSpec())
	err := Attach(context.Background(), broken, ProceduralOuter, STLFile{Path: "nope.stl"})
	if err == nil || broken.Ready() || broken.Err() == nil {
		t.Errorf("failed load: err=%v ready=%v", err, broken.Ready())
	}
}
