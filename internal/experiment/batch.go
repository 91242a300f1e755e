package experiment

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ch4box/internal/config"
)

var ErrEmptyBatch = errors.New("experiment: batch has no scenarios")

// Batch is a named list of scenarios run one after another.
type Batch struct {
	Name        string
	Description string
	Scenarios   []*config.Scenario
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBatch(data)
}

// ParseBatch decodes a document of the form
//
//	name: ...
//	description: ...
//	scenarios:
//	  - {m0: ..., emissions: ..., loss_rate: ...}
//
// Each scenario is validated like a standalone scenario file. Unnamed
// scenarios are numbered from 1.
func ParseBatch(data []byte) (*Batch, error) {
	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Scenarios   []yaml.Node `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Scenarios) == 0 {
		return nil, ErrEmptyBatch
	}

	b := &Batch{Name: raw.Name, Description: raw.Description}
	for i := range raw.Scenarios {
		s, err := config.Decode(&raw.Scenarios[i])
		if err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i+1, err)
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("scenario-%d", i+1)
		}
		b.Scenarios = append(b.Scenarios, s)
	}
	return b, nil
}

// RunBatch runs every scenario in order. On failure it returns the results
// completed so far together with the error.
func RunBatch(ctx context.Context, b *Batch, opts ...Option) ([]*Result, error) {
	results := make([]*Result, 0, len(b.Scenarios))
	for i, s := range b.Scenarios {
		exp, err := New(s, opts...)
		if err != nil {
			return results, fmt.Errorf("scenario %d setup: %w", i+1, err)
		}
		exp.logger.Info("batch step", "step", i+1, "of", len(b.Scenarios), "scenario", s.Name)

		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("scenario %d run: %w", i+1, err)
		}
		results = append(results, res)
	}
	return results, nil
}
