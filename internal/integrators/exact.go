package integrators

import (
	"math"

	"github.com/san-kum/ch4box/internal/dynamo"
)

// Exact advances a dynamo.Linear system with the analytic solution of
// dx/dt = source - rate*x over dt, holding the coefficients at their value
// at t. Systems that are not linear fall back to RK4.
type Exact struct {
	fallback *Explicit
}

func NewExact() *Exact {
	return &Exact{fallback: NewRK4()}
}

func (e *Exact) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	lin, ok := sys.(dynamo.Linear)
	if !ok {
		return e.fallback.Step(sys, x, t, dt)
	}

	rate, source := lin.Coefficients(t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = ExpDecay(x[i], source, rate, dt)
	}
	return result
}

// ExpDecay returns x after dt of dx/dt = source - rate*x starting from x.
// A zero rate degenerates to linear accumulation.
func ExpDecay(x, source, rate, dt float64) float64 {
	if rate == 0 {
		return x + source*dt
	}
	decay := math.Exp(-rate * dt)
	return x*decay + source/rate*(1-decay)
}
