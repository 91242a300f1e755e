package boxmodel

import (
	"fmt"
	"math"

	"github.com/san-kum/ch4box/internal/dynamo"
)

type branch struct {
	emis, loss dynamo.ForcingKind
}

// Run projects CH4 mole fraction (ppb) over years from the initial mole
// fraction m0. The result has one value per year and starts at m0.
func Run(years dynamo.Years, m0 float64, emis, k dynamo.Forcing) (dynamo.Concentration, error) {
	n := len(years)
	if err := validate("run", n, emis, k); err != nil {
		return nil, err
	}

	m := make([]float64, n)
	m[0] = dynamo.ToMass(m0)

	switch (branch{emis.Kind(), k.Kind()}) {
	case branch{dynamo.KindTimeVarying, dynamo.KindTimeVarying}:
		for t := 0; t < n-1; t++ {
			m[t+1] = Step(m[t], emis.At(t), k.At(t))
		}
	case branch{dynamo.KindTimeVarying, dynamo.KindScalar}:
		kc := k.Value()
		for t := 0; t < n-1; t++ {
			m[t+1] = Step(m[t], emis.At(t), kc)
		}
	case branch{dynamo.KindScalar, dynamo.KindTimeVarying}:
		ec := emis.Value()
		for t := 0; t < n-1; t++ {
			m[t+1] = Step(m[t], ec, k.At(t))
		}
	case branch{dynamo.KindScalar, dynamo.KindScalar}:
		closedForm(m, emis.Value(), k.Value())
	default:
		return nil, fmt.Errorf("run: unsupported forcing kinds %s/%s", emis.Kind(), k.Kind())
	}

	out := make(dynamo.Concentration, n)
	for i, v := range m {
		out[i] = dynamo.ToPPB(v)
	}
	return out, nil
}

// RunParams is Run with the inputs taken from p.
func RunParams(years dynamo.Years, p dynamo.Params) (dynamo.Concentration, error) {
	return Run(years, p.M0, p.Emissions, p.LossRate)
}

// Step advances the burden m (Tg) by one unit step under constant emissions
// emis (Tg per step) and loss rate k (per step). k must be non-zero.
func Step(m, emis, k float64) float64 {
	decay := math.Exp(-k)
	return m*decay + emis/k*(1-decay)
}

// closedForm overwrites m[t] for every t from m[0] and the step index.
func closedForm(m []float64, emis, k float64) {
	m0 := m[0]
	for t := range m {
		decay := math.Exp(-k * float64(t))
		m[t] = m0*decay + emis/k*(1-decay)
	}
}

// SteadyState returns the mole fraction (ppb) the box relaxes to under
// constant emissions and loss rate.
func SteadyState(emis, k float64) (float64, error) {
	if k == 0 {
		return 0, dynamo.NewDomainError("steady state", dynamo.ErrZeroLossRate, "")
	}
	return dynamo.ToPPB(emis / k), nil
}

// validate checks the preconditions shared by Run and Integrate. Nothing is
// computed when it fails, so callers never see a partial series.
func validate(op string, n int, emis, k dynamo.Forcing) error {
	if n == 0 {
		return dynamo.NewDomainError(op, dynamo.ErrEmptyYears, "")
	}
	steps := n - 1

	for _, f := range []struct {
		name    string
		forcing dynamo.Forcing
	}{{"emissions", emis}, {"loss rate", k}} {
		if f.forcing.Kind() == dynamo.KindTimeVarying && f.forcing.Len() < steps {
			return dynamo.NewDomainError(op, dynamo.ErrShortForcing,
				fmt.Sprintf("%s has %d values, need at least %d", f.name, f.forcing.Len(), steps))
		}
	}

	switch k.Kind() {
	case dynamo.KindScalar:
		if k.Value() == 0 {
			return dynamo.NewDomainError(op, dynamo.ErrZeroLossRate, "")
		}
	case dynamo.KindTimeVarying:
		for t := 0; t < steps; t++ {
			if k.At(t) == 0 {
				return &dynamo.DomainError{Op: op, Step: t, Wrapped: dynamo.ErrZeroLossRate}
			}
		}
	}
	return nil
}
