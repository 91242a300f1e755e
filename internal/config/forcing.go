package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ch4box/internal/dynamo"
)

// ForcingValue is the YAML form of a dynamo.Forcing: a number decodes to a
// scalar forcing and a sequence of numbers to a time-varying one.
type ForcingValue struct {
	set    bool
	scalar float64
	values []float64
	series bool
}

func Scalar(v float64) ForcingValue {
	return ForcingValue{set: true, scalar: v}
}

func Series(vs ...float64) ForcingValue {
	c := make([]float64, len(vs))
	copy(c, vs)
	return ForcingValue{set: true, values: c, series: true}
}

// ParseForcing reads a flag value: "0.11" is a scalar, "500,520,540" a series.
// Brackets force a series, so "[5]" has one value.
func ParseForcing(s string) (ForcingValue, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ForcingValue{}, fmt.Errorf("empty forcing value")
	}
	bracketed := strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")
	if bracketed {
		s = strings.TrimSpace(s[1 : len(s)-1])
		if s == "" {
			return ForcingValue{}, fmt.Errorf("empty forcing series")
		}
	}
	if !bracketed && !strings.Contains(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return ForcingValue{}, fmt.Errorf("parse forcing %q: %w", s, err)
		}
		return Scalar(v), nil
	}

	parts := strings.Split(s, ",")
	vs := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return ForcingValue{}, fmt.Errorf("parse forcing %q: %w", p, err)
		}
		vs = append(vs, v)
	}
	return Series(vs...), nil
}

func (f ForcingValue) IsSet() bool { return f.set }

func (f ForcingValue) Forcing() dynamo.Forcing {
	if f.series {
		return dynamo.TimeVarying(f.values...)
	}
	return dynamo.Scalar(f.scalar)
}

func (f ForcingValue) String() string {
	return f.Forcing().String()
}

func (f ForcingValue) clone() ForcingValue {
	if f.series {
		c := Series(f.values...)
		c.set = f.set
		return c
	}
	return f
}

func (f *ForcingValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("line %d: forcing must be a number: %w", node.Line, err)
		}
		*f = Scalar(v)
	case yaml.SequenceNode:
		var vs []float64
		if err := node.Decode(&vs); err != nil {
			return fmt.Errorf("line %d: forcing series must contain numbers: %w", node.Line, err)
		}
		*f = Series(vs...)
	default:
		return fmt.Errorf("line %d: forcing must be a number or a list of numbers", node.Line)
	}
	return nil
}

func (f ForcingValue) MarshalYAML() (interface{}, error) {
	if f.series {
		return f.values, nil
	}
	return f.scalar, nil
}
