// Package experiment runs configured scenarios end to end: it resolves the
// integrator, projects the scenario and scores it against the NOAA record.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/ch4box/internal/boxmodel"
	"github.com/san-kum/ch4box/internal/config"
	"github.com/san-kum/ch4box/internal/dynamo"
	"github.com/san-kum/ch4box/internal/integrators"
	"github.com/san-kum/ch4box/internal/logging"
	"github.com/san-kum/ch4box/internal/metrics"
	"github.com/san-kum/ch4box/internal/reference"
)

// Result is one projection together with its comparison to observations.
type Result struct {
	Scenario   string
	Integrator string
	Params     dynamo.Params
	Years      dynamo.Years
	CH4        dynamo.Concentration

	// Overlap lists the years also present in the reference record, with
	// the simulated and observed values at those years.
	Overlap   dynamo.Years
	Simulated dynamo.Concentration
	Observed  dynamo.Concentration
	Metrics   map[string]float64
}

// Final returns the last projected value.
func (r *Result) Final() float64 {
	return r.CH4[len(r.CH4)-1]
}

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

// WithMetrics replaces the default metric set. fn is called on every run and
// must return fresh metrics each time.
func WithMetrics(fn func() []metrics.Metric) Option {
	return func(e *Experiment) { e.metrics = fn }
}

// Experiment is safe for concurrent use: each Run builds its own integrator
// and metrics.
type Experiment struct {
	scenario *config.Scenario
	metrics  func() []metrics.Metric
	logger   *slog.Logger
}

// New validates the scenario and checks that its integrator is registered.
// The scenario is copied.
func New(s *config.Scenario, opts ...Option) (*Experiment, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	name := s.Integrator
	if name == "" {
		name = config.DefaultIntegrator
	}
	if _, err := integrators.Get(name); err != nil {
		return nil, err
	}

	e := &Experiment{
		scenario: s.Clone(),
		metrics:  metrics.Default,
		logger:   logging.Discard(),
	}
	e.scenario.Integrator = name
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Experiment) Scenario() *config.Scenario { return e.scenario.Clone() }

// Run projects the scenario. The exact integrator uses the closed-form
// update directly; any other integrator steps the ODE with the configured
// number of substeps per year.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s := e.scenario
	years := s.Years()
	p := s.Params()
	e.logger.Debug("running scenario",
		"scenario", s.Name,
		"integrator", s.Integrator,
		"substeps", s.Substeps,
		"years", fmt.Sprintf("%d-%d", s.StartYear, s.EndYear),
		"params", p.String())

	var (
		conc dynamo.Concentration
		err  error
	)
	if s.Integrator == config.DefaultIntegrator {
		conc, err = boxmodel.RunParams(years, p)
	} else {
		// steppers keep scratch state, so every run gets its own
		var integ dynamo.Integrator
		integ, err = integrators.Get(s.Integrator)
		if err == nil {
			conc, err = boxmodel.Integrate(years, p.M0, p.Emissions, p.LossRate, integ, s.Substeps)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	if !conc.IsValid() {
		e.logger.Warn("projection overflowed", "scenario", s.Name)
	}

	res := &Result{
		Scenario:   s.Name,
		Integrator: s.Integrator,
		Params:     p,
		Years:      years,
		CH4:        conc,
	}
	if err := e.score(res); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Experiment) score(res *Result) error {
	obs, obsYears := reference.NOAA()
	byYear := make(map[int]float64, len(obs))
	for i, y := range obsYears {
		byYear[y] = obs[i]
	}

	for i, y := range res.Years {
		if v, ok := byYear[y]; ok {
			res.Overlap = append(res.Overlap, y)
			res.Simulated = append(res.Simulated, res.CH4[i])
			res.Observed = append(res.Observed, v)
		}
	}
	if len(res.Overlap) == 0 {
		e.logger.Debug("no overlap with reference record", "scenario", res.Scenario)
		return nil
	}

	scores, err := metrics.Compare(res.Simulated, res.Observed, e.metrics()...)
	if err != nil {
		return err
	}
	res.Metrics = scores
	return nil
}
