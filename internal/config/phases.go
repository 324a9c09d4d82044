package config

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// PhaseConfig holds the rollout configuration loaded from tool_phases.yaml.
// Each phase lists the tools it introduces; a tool is exposed at its own
// phase and every later one.
type PhaseConfig struct {
	Phases map[int][]string `yaml:"phases"`
}

// LoadPhases reads and parses the tool phases YAML file.
func LoadPhases(path string) (*PhaseConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading phase config %s: %w", path, err)
	}

	var pc PhaseConfig
	if err := yaml.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("parsing phase config %s: %w", path, err)
	}
	if len(pc.Phases) == 0 {
		return nil, fmt.Errorf("phase config %s defines no phases", path)
	}
	return &pc, nil
}

// PhaseGate answers whether a tool is exposed at the current phase. The
// exposed set is computed once per phase change and cached.
type PhaseGate struct {
	toolPhase map[string]int
	maxPhase  int

	mu      sync.RWMutex
	current int
	exposed map[string]struct{}
}

// NewPhaseGate builds a gate from the loaded configuration, set to the
// given initial phase.
func NewPhaseGate(pc *PhaseConfig, initial int) (*PhaseGate, error) {
	g := &PhaseGate{toolPhase: make(map[string]int)}
	for phase, tools := range pc.Phases {
		if phase < 1 {
			return nil, fmt.Errorf("invalid phase number %d in phase config", phase)
		}
		if phase > g.maxPhase {
			g.maxPhase = phase
		}
		for _, name := range tools {
			if existing, ok := g.toolPhase[name]; ok && existing != phase {
				return nil, fmt.Errorf("tool %q assigned to both phase %d and phase %d", name, existing, phase)
			}
			g.toolPhase[name] = phase
		}
	}
	if err := g.SetPhase(initial); err != nil {
		return nil, err
	}
	return g, nil
}

// SetPhase switches the current phase and rebuilds the exposed set. A
// phase outside the configured range is rejected and leaves the gate
// unchanged.
func (g *PhaseGate) SetPhase(phase int) error {
	if phase < 1 || phase > g.maxPhase {
		return fmt.Errorf("phase %d out of range 1-%d", phase, g.maxPhase)
	}
	exposed := make(map[string]struct{})
	for name, p := range g.toolPhase {
		if p <= phase {
			exposed[name] = struct{}{}
		}
	}
	g.mu.Lock()
	g.current = phase
	g.exposed = exposed
	g.mu.Unlock()
	return nil
}

// Current returns the active phase.
func (g *PhaseGate) Current() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// MaxPhase returns the highest configured phase.
func (g *PhaseGate) MaxPhase() int { return g.maxPhase }

// Allowed reports whether a tool is exposed at the current phase. Tools
// absent from the configuration are treated as phase 1.
func (g *PhaseGate) Allowed(tool string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.toolPhase[tool]; !ok {
		return true
	}
	_, ok := g.exposed[tool]
	return ok
}

// Phase returns the phase a tool is introduced in, defaulting to 1 for
// tools absent from the configuration.
func (g *PhaseGate) Phase(tool string) int {
	if p, ok := g.toolPhase[tool]; ok {
		return p
	}
	return 1
}

// Exposed returns the sorted names of the tools visible at the current
// phase, for logging at startup.
func (g *PhaseGate) Exposed() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.exposed))
	for name := range g.exposed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
