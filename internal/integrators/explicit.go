package integrators

import "github.com/san-kum/ch4box/internal/dynamo"

// Tableau holds the Butcher coefficients of an explicit Runge-Kutta method.
// Row s of A weights the slopes of stages 0..s-1; C gives each stage's time
// offset as a fraction of the step.
type Tableau struct {
	A [][]float64
	B []float64
	C []float64
}

func (tb Tableau) Stages() int { return len(tb.B) }

var (
	EulerTableau = Tableau{
		A: [][]float64{{}},
		B: []float64{1},
		C: []float64{0},
	}

	HeunTableau = Tableau{
		A: [][]float64{{}, {1}},
		B: []float64{0.5, 0.5},
		C: []float64{0, 1},
	}

	RK4Tableau = Tableau{
		A: [][]float64{{}, {0.5}, {0, 0.5}, {0, 0, 1}},
		B: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		C: []float64{0, 0.5, 0.5, 1},
	}

	// DormandPrinceTableau is the fifth-order solution of the Dormand-Prince
	// pair, without the embedded error estimate.
	DormandPrinceTableau = Tableau{
		A: [][]float64{
			{},
			{1.0 / 5},
			{3.0 / 40, 9.0 / 40},
			{44.0 / 45, -56.0 / 15, 32.0 / 9},
			{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
			{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		},
		B: []float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
		C: []float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1},
	}
)

// Explicit takes fixed steps of an explicit Runge-Kutta method. Stage
// buffers are reused between calls, so one Explicit must not be shared
// between goroutines.
type Explicit struct {
	tab   Tableau
	k     []dynamo.State
	stage dynamo.State
}

func NewExplicit(tab Tableau) *Explicit {
	return &Explicit{tab: tab}
}

func NewEuler() *Explicit { return NewExplicit(EulerTableau) }

func NewHeun() *Explicit { return NewExplicit(HeunTableau) }

func NewRK4() *Explicit { return NewExplicit(RK4Tableau) }

func NewRK45() *Explicit { return NewExplicit(DormandPrinceTableau) }

func (e *Explicit) ensureScratch(n int) {
	if len(e.stage) == n && len(e.k) == e.tab.Stages() {
		return
	}
	e.k = make([]dynamo.State, e.tab.Stages())
	for s := range e.k {
		e.k[s] = make(dynamo.State, n)
	}
	e.stage = make(dynamo.State, n)
}

func (e *Explicit) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	e.ensureScratch(n)

	for s := 0; s < e.tab.Stages(); s++ {
		for i := 0; i < n; i++ {
			acc := 0.0
			for j, a := range e.tab.A[s] {
				acc += a * e.k[j][i]
			}
			e.stage[i] = x[i] + dt*acc
		}
		copy(e.k[s], sys.Derive(e.stage, t+e.tab.C[s]*dt))
	}

	result := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		acc := 0.0
		for s, b := range e.tab.B {
			acc += b * e.k[s][i]
		}
		result[i] = x[i] + dt*acc
	}
	return result
}
