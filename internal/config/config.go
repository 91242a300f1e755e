package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ch4box/internal/dynamo"
	"github.com/san-kum/ch4box/internal/reference"
)

const (
	DefaultStartYear  = reference.FirstYear
	DefaultEndYear    = reference.LastYear
	DefaultM0         = 1776.0
	DefaultEmissions  = 550.0
	DefaultLossRate   = 1.0 / 9.1
	DefaultIntegrator = "exact"
	DefaultSubsteps   = 1
)

var ErrInvalidScenario = errors.New("config: invalid scenario")

var requiredKeys = []string{"m0", "emissions", "loss_rate"}

// Scenario describes one box model run.
type Scenario struct {
	Name       string       `yaml:"name,omitempty"`
	StartYear  int          `yaml:"start_year"`
	EndYear    int          `yaml:"end_year"`
	M0         float64      `yaml:"m0"`
	Emissions  ForcingValue `yaml:"emissions"`
	LossRate   ForcingValue `yaml:"loss_rate"`
	Integrator string       `yaml:"integrator,omitempty"`
	Substeps   int          `yaml:"substeps,omitempty"`
}

// DefaultScenario starts from the first NOAA observation with constant
// emissions and a 9.1 year lifetime.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name:       "default",
		StartYear:  DefaultStartYear,
		EndYear:    DefaultEndYear,
		M0:         DefaultM0,
		Emissions:  Scalar(DefaultEmissions),
		LossRate:   Scalar(DefaultLossRate),
		Integrator: DefaultIntegrator,
		Substeps:   DefaultSubsteps,
	}
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a single scenario document.
func Parse(data []byte) (*Scenario, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidScenario)
	}
	return Decode(doc.Content[0])
}

// Decode builds a scenario from a YAML mapping. The grid and integrator fall
// back to their defaults; m0, emissions and loss_rate must be present.
func Decode(node *yaml.Node) (*Scenario, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: expected a mapping", ErrInvalidScenario, node.Line)
	}
	present := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		present[node.Content[i].Value] = true
	}
	for _, k := range requiredKeys {
		if !present[k] {
			return nil, fmt.Errorf("%w: line %d: %s is required", ErrInvalidScenario, node.Line, k)
		}
	}

	s := &Scenario{
		StartYear:  DefaultStartYear,
		EndYear:    DefaultEndYear,
		Integrator: DefaultIntegrator,
		Substeps:   DefaultSubsteps,
	}
	if err := node.Decode(s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Save(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks structural consistency. Physical plausibility of the
// forcings is left to the caller.
func (s *Scenario) Validate() error {
	if s.EndYear < s.StartYear {
		return fmt.Errorf("%w: end_year %d before start_year %d", ErrInvalidScenario, s.EndYear, s.StartYear)
	}
	if !s.Emissions.set {
		return fmt.Errorf("%w: emissions not set", ErrInvalidScenario)
	}
	if !s.LossRate.set {
		return fmt.Errorf("%w: loss_rate not set", ErrInvalidScenario)
	}
	if s.Substeps < 0 {
		return fmt.Errorf("%w: substeps must not be negative, got %d", ErrInvalidScenario, s.Substeps)
	}
	return nil
}

func (s *Scenario) Years() dynamo.Years {
	return dynamo.YearRange(s.StartYear, s.EndYear)
}

func (s *Scenario) Params() dynamo.Params {
	return dynamo.Params{
		M0:        s.M0,
		Emissions: s.Emissions.Forcing(),
		LossRate:  s.LossRate.Forcing(),
	}
}

// Clone returns a deep copy, so presets can be modified by callers.
func (s *Scenario) Clone() *Scenario {
	c := *s
	c.Emissions = s.Emissions.clone()
	c.LossRate = s.LossRate.clone()
	return &c
}
