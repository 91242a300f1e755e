// Package metrics scores a simulated concentration series against
// observations.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/ch4box/internal/dynamo"
)

type Metric interface {
	Name() string
	Observe(simulated, observed float64)
	Value() float64
	Reset()
}

// residuals accumulates simulated minus observed.
type residuals struct {
	r []float64
}

func (r *residuals) Observe(simulated, observed float64) {
	r.r = append(r.r, simulated-observed)
}

func (r *residuals) Reset() { r.r = r.r[:0] }

type RMSE struct{ residuals }

func NewRMSE() *RMSE { return &RMSE{} }

func (m *RMSE) Name() string { return "rmse" }

func (m *RMSE) Value() float64 {
	if len(m.r) == 0 {
		return 0
	}
	return floats.Norm(m.r, 2) / math.Sqrt(float64(len(m.r)))
}

// Bias is the mean of simulated minus observed.
type Bias struct{ residuals }

func NewBias() *Bias { return &Bias{} }

func (m *Bias) Name() string { return "bias" }

func (m *Bias) Value() float64 {
	if len(m.r) == 0 {
		return 0
	}
	return stat.Mean(m.r, nil)
}

type MaxAbsError struct{ residuals }

func NewMaxAbsError() *MaxAbsError { return &MaxAbsError{} }

func (m *MaxAbsError) Name() string { return "max_abs_error" }

func (m *MaxAbsError) Value() float64 {
	if len(m.r) == 0 {
		return 0
	}
	return floats.Norm(m.r, math.Inf(1))
}

// Correlation is the Pearson correlation between simulated and observed.
// It is NaN when either series is constant.
type Correlation struct {
	sim, obs []float64
}

func NewCorrelation() *Correlation { return &Correlation{} }

func (m *Correlation) Name() string { return "correlation" }

func (m *Correlation) Observe(simulated, observed float64) {
	m.sim = append(m.sim, simulated)
	m.obs = append(m.obs, observed)
}

func (m *Correlation) Value() float64 {
	if len(m.sim) < 2 {
		return math.NaN()
	}
	return stat.Correlation(m.sim, m.obs, nil)
}

func (m *Correlation) Reset() {
	m.sim = m.sim[:0]
	m.obs = m.obs[:0]
}

// Default returns a fresh set of the standard comparison metrics.
func Default() []Metric {
	return []Metric{NewRMSE(), NewBias(), NewMaxAbsError(), NewCorrelation()}
}

// Compare resets each metric, feeds it every index-aligned pair and returns
// the values keyed by metric name.
func Compare(simulated, observed dynamo.Concentration, ms ...Metric) (map[string]float64, error) {
	if len(simulated) != len(observed) {
		return nil, fmt.Errorf("compare: %w: %d simulated vs %d observed",
			dynamo.ErrDimensionMismatch, len(simulated), len(observed))
	}
	if len(ms) == 0 {
		ms = Default()
	}

	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i := range simulated {
			m.Observe(simulated[i], observed[i])
		}
		out[m.Name()] = m.Value()
	}
	return out, nil
}

// Names returns metric names in the order given.
func Names(ms []Metric) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name()
	}
	return names
}
