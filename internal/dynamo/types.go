package dynamo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AtmConvert relates global-mean CH4 mole fraction to atmospheric burden,
// in Tg per ppb.
const AtmConvert = 2.767

// ToMass converts a mole fraction in ppb to atmospheric burden in Tg.
func ToMass(ppb float64) float64 { return ppb * AtmConvert }

// ToPPB converts an atmospheric burden in Tg to mole fraction in ppb.
func ToPPB(mass float64) float64 { return mass / AtmConvert }

// Years is an ordered sequence of calendar years forming the time grid.
type Years []int

// YearRange returns the years start..end inclusive. It returns an empty
// series when end < start.
func YearRange(start, end int) Years {
	if end < start {
		return Years{}
	}
	ys := make(Years, end-start+1)
	for i := range ys {
		ys[i] = start + i
	}
	return ys
}

func (y Years) Clone() Years {
	c := make(Years, len(y))
	copy(c, y)
	return c
}

// Concentration is a CH4 mole fraction series in ppb, index-aligned with a
// Years series.
type Concentration []float64

func (c Concentration) Clone() Concentration {
	out := make(Concentration, len(c))
	copy(out, c)
	return out
}

func (c Concentration) IsValid() bool {
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ForcingKind tags the variant held by a Forcing.
type ForcingKind int

const (
	KindScalar ForcingKind = iota
	KindTimeVarying
)

func (k ForcingKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindTimeVarying:
		return "time-varying"
	}
	return "unknown"
}

// Forcing is an emissions or loss-rate input. It holds either a single value
// applied at every step or one value per step. The zero value is Scalar(0).
type Forcing struct {
	kind   ForcingKind
	scalar float64
	values []float64
}

// Scalar returns a forcing applying v uniformly at every step.
func Scalar(v float64) Forcing {
	return Forcing{kind: KindScalar, scalar: v}
}

// TimeVarying returns a forcing with one value per step. The values are copied.
func TimeVarying(values ...float64) Forcing {
	vs := make([]float64, len(values))
	copy(vs, values)
	return Forcing{kind: KindTimeVarying, values: vs}
}

func (f Forcing) Kind() ForcingKind { return f.kind }

// Value returns the scalar value. It is zero for a time-varying forcing.
func (f Forcing) Value() float64 { return f.scalar }

// Values returns a copy of the per-step values. It is nil for a scalar forcing.
func (f Forcing) Values() []float64 {
	if f.kind != KindTimeVarying {
		return nil
	}
	vs := make([]float64, len(f.values))
	copy(vs, f.values)
	return vs
}

// Len returns the number of per-step values, or 1 for a scalar forcing.
func (f Forcing) Len() int {
	if f.kind == KindTimeVarying {
		return len(f.values)
	}
	return 1
}

// At returns the value applicable at step t. Callers must check Len for
// time-varying forcings first.
func (f Forcing) At(t int) float64 {
	if f.kind == KindTimeVarying {
		return f.values[t]
	}
	return f.scalar
}

// Scale returns a forcing with every value multiplied by factor.
func (f Forcing) Scale(factor float64) Forcing {
	if f.kind == KindScalar {
		return Scalar(f.scalar * factor)
	}
	vs := make([]float64, len(f.values))
	for i, v := range f.values {
		vs[i] = v * factor
	}
	return Forcing{kind: KindTimeVarying, values: vs}
}

func (f Forcing) String() string {
	if f.kind == KindScalar {
		return strconv.FormatFloat(f.scalar, 'g', -1, 64)
	}
	parts := make([]string, len(f.values))
	for i, v := range f.values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Params groups the inputs of a box model run. There are no defaults; every
// field must be set by the caller.
type Params struct {
	M0        float64
	Emissions Forcing
	LossRate  Forcing
}

func (p Params) String() string {
	return fmt.Sprintf("m0=%g emis=%s k=%s", p.M0, p.Emissions, p.LossRate)
}

// State is the vector integrated by an Integrator. For the box model it holds
// a single element, the atmospheric burden in Tg.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is an ODE dx/dt = f(x, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Linear is a one-dimensional System of the form dx/dt = source - rate*x,
// with coefficients held constant within each unit step.
type Linear interface {
	System
	Coefficients(t float64) (rate, source float64)
}

type Integrator interface {
	Step(sys System, x State, t float64, dt float64) State
}
