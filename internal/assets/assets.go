// Package assets loads the geometry an assembly needs before its phase
// table can be built. Loads run concurrently and meet at a single barrier.
package assets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hschendel/stl"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/phasekit/internal/assembly"
	"github.com/ivlev/phasekit/internal/pose"
)

var ErrEmptyGeometry = errors.New("geometry has no vertices")

// LoadError reports a failed asset fetch or parse. It is terminal: the
// assembly depending on the asset is never animated.
type LoadError struct {
	Asset string
	Err   error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Asset, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// Source yields the bounding box of one piece of geometry.
type Source interface {
	Name() string
	Bounds(ctx context.Context) (pose.Box, error)
}

// STLFile reads a binary or ASCII STL file.
type STLFile struct {
	Path string
}

func (f STLFile) Name() string { return f.Path }

func (f STLFile) Bounds(ctx context.Context) (pose.Box, error) {
	if err := ctx.Err(); err != nil {
		return pose.Box{}, err
	}
	solid, err := stl.ReadFile(f.Path)
	if err != nil {
		return pose.Box{}, err
	}
	return SolidBounds(solid)
}

// SolidBounds computes the bounding box of every triangle vertex.
func SolidBounds(s *stl.Solid) (pose.Box, error) {
	var b pose.Box
	for _, t := range s.Triangles {
		for _, v := range t.Vertices {
			b = b.Extend(pose.V(float64(v[0]), float64(v[1]), float64(v[2])))
		}
	}
	if b.Empty() {
		return b, ErrEmptyGeometry
	}
	return b, nil
}

// Procedural is a fixed box used when no model file is available.
type Procedural struct {
	Label string
	Box   pose.Box
}

func (p Procedural) Name() string { return "procedural:" + p.Label }

func (p Procedural) Bounds(ctx context.Context) (pose.Box, error) {
	if err := ctx.Err(); err != nil {
		return pose.Box{}, err
	}
	if p.Box.Empty() {
		return p.Box, ErrEmptyGeometry
	}
	return p.Box, nil
}

// Default procedural device parts, sized like the reference shell.
var (
	ProceduralOuter = Procedural{Label: "outer", Box: pose.NewBox(pose.V(-60, -45, -25), pose.V(60, 45, 25))}
	ProceduralInner = Procedural{Label: "inner", Box: pose.NewBox(pose.V(-12, -12, 0), pose.V(12, 12, 40))}
)

// LoadAll loads every source concurrently and returns once all have
// finished. The first failure cancels the rest and is returned as a
// *LoadError; no partial result is returned.
func LoadAll(ctx context.Context, sources map[string]Source) (map[string]pose.Box, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := make(map[string]pose.Box, len(sources))

	keys := make([]string, 0, len(sources))
	for k := range sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		src := sources[key]
		g.Go(func() error {
			if src == nil {
				return &LoadError{Asset: key, Err: errors.New("no source")}
			}
			b, err := src.Bounds(ctx)
			if err != nil {
				return &LoadError{Asset: fmt.Sprintf("%s (%s)", key, src.Name()), Err: err}
			}
			mu.Lock()
			out[key] = b
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadDevice loads both device parts and returns the geometry the
// assembly is built from.
func LoadDevice(ctx context.Context, outer, inner Source) (assembly.Geometry, error) {
	boxes, err := LoadAll(ctx, map[string]Source{"outer": outer, "inner": inner})
	if err != nil {
		return assembly.Geometry{}, err
	}
	return assembly.Geometry{Outer: boxes["outer"], Inner: boxes["inner"]}, nil
}

// Attach loads the device geometry and reports the outcome to the
// assembly: it either gets a complete table or stays un-animated.
func Attach(ctx context.Context, a *assembly.Assembly, outer, inner Source) error {
	g, err := LoadDevice(ctx, outer, inner)
	if err != nil {
		a.OnError(err)
		return err
	}
	return a.OnLoaded(g)
}
