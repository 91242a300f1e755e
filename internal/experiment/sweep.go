package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/ch4box/internal/config"
)

// Sweepable parameters.
const (
	ParamM0        = "m0"
	ParamEmissions = "emissions"
	ParamLossRate  = "loss_rate"
	ParamLifetime  = "lifetime"
)

// Sweep varies one parameter of a base scenario over Steps evenly spaced
// values from Min to Max. Swept forcings become scalar. Lifetime sets the
// loss rate to 1/value.
type Sweep struct {
	Param string
	Min   float64
	Max   float64
	Steps int
}

type SweepPoint struct {
	Value   float64
	Final   float64
	Metrics map[string]float64
}

func (sw Sweep) values() ([]float64, error) {
	if sw.Steps < 2 {
		return nil, fmt.Errorf("sweep: need at least 2 steps, got %d", sw.Steps)
	}
	vs := make([]float64, sw.Steps)
	step := (sw.Max - sw.Min) / float64(sw.Steps-1)
	for i := range vs {
		vs[i] = sw.Min + float64(i)*step
	}
	return vs, nil
}

func (sw Sweep) apply(s *config.Scenario, v float64) error {
	switch sw.Param {
	case ParamM0:
		s.M0 = v
	case ParamEmissions:
		s.Emissions = config.Scalar(v)
	case ParamLossRate:
		s.LossRate = config.Scalar(v)
	case ParamLifetime:
		if v == 0 {
			return fmt.Errorf("sweep: lifetime must not be zero")
		}
		s.LossRate = config.Scalar(1 / v)
	default:
		return fmt.Errorf("sweep: unknown parameter %q", sw.Param)
	}
	return nil
}

// RunSweep runs the base scenario once per swept value.
func RunSweep(ctx context.Context, base *config.Scenario, sw Sweep, opts ...Option) ([]SweepPoint, error) {
	vs, err := sw.values()
	if err != nil {
		return nil, err
	}

	points := make([]SweepPoint, 0, len(vs))
	for _, v := range vs {
		s := base.Clone()
		if err := sw.apply(s, v); err != nil {
			return nil, err
		}
		s.Name = fmt.Sprintf("%s %s=%g", base.Name, sw.Param, v)

		exp, err := New(s, opts...)
		if err != nil {
			return points, err
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return points, err
		}
		points = append(points, SweepPoint{Value: v, Final: res.Final(), Metrics: res.Metrics})
	}
	return points, nil
}
