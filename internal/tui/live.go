// Package tui is an interactive terminal view that reveals a projection
// year by year and lets the user rescale the forcings while it runs.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/ch4box/internal/boxmodel"
	"github.com/san-kum/ch4box/internal/dynamo"
	"github.com/san-kum/ch4box/internal/metrics"
	"github.com/san-kum/ch4box/internal/viz"
)

const (
	DefaultInterval = 250 * time.Millisecond
	scaleStep       = 1.05
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// ReloadMsg replaces the scenario while keeping the scale factors and the
// playback position. A non-nil Err, or parameters the box model rejects, is
// shown and the current scenario kept. A nil Integrator selects the exact
// update.
type ReloadMsg struct {
	Name       string
	Years      dynamo.Years
	Params     dynamo.Params
	Integrator dynamo.Integrator
	Substeps   int
	Err        error
}

var paramNames = [...]string{"emissions", "loss rate"}

// Model holds the projection, the forcing scale factors and the playback
// position. It is a value type; Update returns the modified copy.
type Model struct {
	name      string
	years     dynamo.Years
	base      dynamo.Params
	observed  map[int]float64
	emisScale float64
	lossScale float64
	selected  int
	series    dynamo.Concentration
	shown     int
	running   bool
	interval  time.Duration
	integ     dynamo.Integrator
	substeps  int
	err       error
	reloadErr error
	keys      keyMap
	help      help.Model
}

// NewModel prepares a live view. observed may be nil; otherwise it is matched
// to the projection by year.
func NewModel(name string, years dynamo.Years, p dynamo.Params, observed dynamo.Concentration, obsYears dynamo.Years, interval time.Duration) Model {
	obs := make(map[int]float64, len(observed))
	for i := range observed {
		if i < len(obsYears) {
			obs[obsYears[i]] = observed[i]
		}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	m := Model{
		name:      name,
		years:     years.Clone(),
		base:      p,
		observed:  obs,
		emisScale: 1,
		lossScale: 1,
		shown:     1,
		running:   true,
		interval:  interval,
		keys:      defaultKeys(),
		help:      help.New(),
	}
	m.recompute()
	return m
}

// WithIntegrator projects with a numerical integrator and the given number of
// substeps per year instead of the exact update. nil restores the exact
// update. The integrator is owned by the model from then on.
func (m Model) WithIntegrator(integ dynamo.Integrator, substeps int) Model {
	m.integ = integ
	m.substeps = substeps
	m.recompute()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles key presses and advances playback on each tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.running = !m.running
		case key.Matches(msg, m.keys.Reset):
			m.emisScale, m.lossScale = 1, 1
			m.shown = 1
			m.running = true
			m.recompute()
		case key.Matches(msg, m.keys.Select):
			m.selected = (m.selected + 1) % len(paramNames)
		case key.Matches(msg, m.keys.Up):
			m.adjust(scaleStep)
		case key.Matches(msg, m.keys.Down):
			m.adjust(1 / scaleStep)
		case key.Matches(msg, m.keys.End):
			m.shown = len(m.years)
		}
	case ReloadMsg:
		m.reload(msg)
	case TickMsg:
		if m.running && m.shown < len(m.years) {
			m.shown++
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) reload(msg ReloadMsg) {
	if msg.Err != nil {
		m.reloadErr = msg.Err
		return
	}
	years := msg.Years.Clone()
	series, err := project(years, m.scaled(msg.Params), msg.Integrator, msg.Substeps)
	if err != nil {
		m.reloadErr = err
		return
	}
	m.reloadErr = nil
	m.name = msg.Name
	m.years = years
	m.base = msg.Params
	m.integ = msg.Integrator
	m.substeps = msg.Substeps
	m.series, m.err = series, nil
	if m.shown > len(m.years) {
		m.shown = len(m.years)
	}
	if m.shown < 1 {
		m.shown = 1
	}
}

func (m *Model) adjust(factor float64) {
	if m.selected == 0 {
		m.emisScale *= factor
	} else {
		m.lossScale *= factor
	}
	m.recompute()
}

func (m *Model) scaled(p dynamo.Params) dynamo.Params {
	return dynamo.Params{
		M0:        p.M0,
		Emissions: p.Emissions.Scale(m.emisScale),
		LossRate:  p.LossRate.Scale(m.lossScale),
	}
}

func (m *Model) recompute() {
	m.series, m.err = project(m.years, m.scaled(m.base), m.integ, m.substeps)
}

func project(years dynamo.Years, p dynamo.Params, integ dynamo.Integrator, substeps int) (dynamo.Concentration, error) {
	if integ == nil {
		return boxmodel.RunParams(years, p)
	}
	return boxmodel.Integrate(years, p.M0, p.Emissions, p.LossRate, integ, substeps)
}

// Shown returns the projection revealed so far.
func (m Model) Shown() (dynamo.Years, dynamo.Concentration) {
	if m.err != nil {
		return m.years[:0], nil
	}
	return m.years[:m.shown], m.series[:m.shown]
}

func (m Model) Err() error { return m.err }

// fit scores the revealed projection against the observations it overlaps.
func (m Model) fit() (map[string]float64, bool) {
	years, conc := m.Shown()
	var sim, obs dynamo.Concentration
	for i, y := range years {
		if v, ok := m.observed[y]; ok {
			sim = append(sim, conc[i])
			obs = append(obs, v)
		}
	}
	if len(sim) == 0 {
		return nil, false
	}
	scores, err := metrics.Compare(sim, obs, metrics.NewRMSE(), metrics.NewBias())
	if err != nil {
		return nil, false
	}
	return scores, true
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper("ch4 box model: "+m.name)) + "\n")

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	} else if m.shown == len(m.years) {
		status = "DONE"
	}
	s.WriteString(status + "\n\n")
	if m.reloadErr != nil {
		s.WriteString(errStyle.Render("reload: "+m.reloadErr.Error()) + "\n")
	}

	if m.err != nil {
		s.WriteString(errStyle.Render(m.err.Error()) + "\n")
	} else {
		years, conc := m.Shown()
		if err := viz.Plot(&s, years, conc, viz.Height(10), viz.Width(60)); err != nil {
			s.WriteString(errStyle.Render(err.Error()) + "\n")
		}
		s.WriteString("\n")

		year := years[len(years)-1]
		s.WriteString(m.row("year", fmt.Sprint(year), false))
		s.WriteString(m.row("ch4 (ppb)", fmt.Sprintf("%.1f", conc[len(conc)-1]), false))
		if v, ok := m.observed[year]; ok {
			s.WriteString(m.row("observed", fmt.Sprintf("%.1f", v), false))
		}
		if scores, ok := m.fit(); ok {
			s.WriteString(m.row("rmse", fmt.Sprintf("%.2f", scores["rmse"]), false))
			s.WriteString(m.row("bias", fmt.Sprintf("%.2f", scores["bias"]), false))
		}
	}

	s.WriteString(m.row(paramNames[0], fmt.Sprintf("x%.3f", m.emisScale), m.selected == 0))
	s.WriteString(m.row(paramNames[1], fmt.Sprintf("x%.3f", m.lossScale), m.selected == 1))

	s.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m Model) row(label, value string, active bool) string {
	v := valueStyle.Render(value)
	if active {
		v = activeStyle.Render(value)
	}
	return labelStyle.Render(label) + v + "\n"
}
