package boxmodel

import (
	"github.com/san-kum/ch4box/internal/dynamo"
)

// StepSystem is dm/dt = Emissions - LossRate*m with both coefficients fixed.
// It is the box ODE over a single step, in Tg.
type StepSystem struct {
	Emissions float64
	LossRate  float64
}

func (s StepSystem) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{s.Emissions - s.LossRate*x[0]}
}

func (s StepSystem) StateDim() int { return 1 }

func (s StepSystem) Coefficients(t float64) (float64, float64) {
	return s.LossRate, s.Emissions
}

// Integrate solves the same problem as Run with a generic integrator taking
// substeps equal steps per year. The forcings stay constant within each year.
// With the exact integrator it reproduces Run up to rounding. An explicit
// scheme that diverges to NaN or Inf fails with ErrInvalidState.
func Integrate(years dynamo.Years, m0 float64, emis, k dynamo.Forcing, integ dynamo.Integrator, substeps int) (dynamo.Concentration, error) {
	n := len(years)
	if err := validate("integrate", n, emis, k); err != nil {
		return nil, err
	}
	if substeps < 1 {
		substeps = 1
	}
	h := 1.0 / float64(substeps)

	out := make(dynamo.Concentration, n)
	out[0] = m0
	x := dynamo.State{dynamo.ToMass(m0)}

	for t := 0; t < n-1; t++ {
		sys := StepSystem{Emissions: emis.At(t), LossRate: k.At(t)}
		for j := 0; j < substeps; j++ {
			x = integ.Step(sys, x, float64(t)+float64(j)*h, h)
		}
		if !x.IsValid() {
			return nil, &dynamo.DomainError{Op: "integrate", Step: t, Wrapped: dynamo.ErrInvalidState}
		}
		out[t+1] = dynamo.ToPPB(x[0])
	}
	return out, nil
}
