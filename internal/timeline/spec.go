package timeline

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/phasekit/internal/easing"
	"github.com/ivlev/phasekit/internal/pose"
)

var ErrUnknownBehavior = errors.New("no behavior registered for phase")

// Spec is the declarative form of a phase table, as stored in YAML files.
// Boundaries and easing choices are data; the pose logic behind each phase
// name is supplied by the animator through Bind.
type Spec struct {
	Version string      `yaml:"version"`
	Name    string      `yaml:"name"`
	Phases  []PhaseSpec `yaml:"phases"`
}

// PhaseSpec describes one phase interval.
type PhaseSpec struct {
	Name   string  `yaml:"name"`
	Start  float64 `yaml:"start"`
	End    float64 `yaml:"end"`
	Easing string  `yaml:"easing,omitempty"` // "smoothstep" or "linear"
	Note   string  `yaml:"note,omitempty"`
}

// Behavior computes a frame for one phase. eased is localT after the
// phase's easing curve; some phases also need the raw localT.
type Behavior func(eased, localT float64) pose.Frame

// Bind turns a spec into a validated table using the animator's behaviors.
func Bind(spec Spec, behaviors map[string]Behavior) (*Table, error) {
	phases := make([]Phase, 0, len(spec.Phases))
	for _, ps := range spec.Phases {
		behavior, ok := behaviors[ps.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBehavior, ps.Name)
		}
		ease, err := easing.ByName(ps.Easing)
		if err != nil {
			return nil, fmt.Errorf("phase %q: %w", ps.Name, err)
		}
		phases = append(phases, Phase{
			Name:  ps.Name,
			Start: ps.Start,
			End:   ps.End,
			Compute: func(localT float64) pose.Frame {
				return behavior(ease(localT), localT)
			},
		})
	}

	table, err := NewTable(phases)
	if err != nil {
		return nil, fmt.Errorf("timeline %q: %w", spec.Name, err)
	}
	return table, nil
}

// ParseSpec decodes a YAML timeline.
func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// ReadSpec reads a timeline from a YAML file
func ReadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSpec(data)
}

// WriteSpec writes a timeline to a YAML file
func WriteSpec(spec *Spec, path string) error {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
