// Package scenario loads tower/link plans from YAML and applies them to a
// graph.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Scenario is a named set of towers and the links between them.
type Scenario struct {
	Name     string        `yaml:"name"`
	Defaults DefaultConfig `yaml:"defaults"`
	Towers   []TowerConfig `yaml:"towers"`
	Links    []LinkConfig  `yaml:"links"`
}

// DefaultConfig holds values applied to towers that omit them.
type DefaultConfig struct {
	FreqGHz float64 `yaml:"freq_ghz"`
	// SkipPlacementCheck adds towers without the land/water lookup.
	SkipPlacementCheck bool `yaml:"skip_placement_check"`
}

// TowerConfig is one tower, referenced by name from links.
type TowerConfig struct {
	Name    string  `yaml:"name"`
	Lat     float64 `yaml:"lat"`
	Lng     float64 `yaml:"lng"`
	FreqGHz float64 `yaml:"freq_ghz,omitempty"`
}

// LinkConfig connects two named towers.
type LinkConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scenario: read %s", path)
	}
	return Parse(data)
}

// Parse decodes a scenario document. The YAML has a top-level "scenario"
// key.
func Parse(data []byte) (*Scenario, error) {
	var wrapper struct {
		Scenario Scenario `yaml:"scenario"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "scenario: parse")
	}

	s := &wrapper.Scenario
	for i := range s.Towers {
		if s.Towers[i].FreqGHz == 0 {
			s.Towers[i].FreqGHz = s.Defaults.FreqGHz
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that tower names are unique and that links reference
// known towers.
func (s *Scenario) Validate() error {
	var errs []string
	names := make(map[string]bool, len(s.Towers))
	for i, t := range s.Towers {
		switch {
		case t.Name == "":
			errs = append(errs, fmt.Sprintf("towers[%d]: name is required", i))
		case names[t.Name]:
			errs = append(errs, fmt.Sprintf("towers[%d]: duplicate name %q", i, t.Name))
		}
		names[t.Name] = true
	}
	for i, l := range s.Links {
		if !names[l.From] {
			errs = append(errs, fmt.Sprintf("links[%d]: unknown tower %q", i, l.From))
		}
		if !names[l.To] {
			errs = append(errs, fmt.Sprintf("links[%d]: unknown tower %q", i, l.To))
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("scenario: invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}
