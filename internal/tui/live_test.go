package tui

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ch4box/internal/dynamo"
	"github.com/san-kum/ch4box/internal/integrators"
	"github.com/san-kum/ch4box/internal/reference"
)

func newTestModel() Model {
	obs, obsYears := reference.NOAA()
	p := dynamo.Params{M0: 1776, Emissions: dynamo.Scalar(550), LossRate: dynamo.Scalar(1.0 / 9.1)}
	return NewModel("test", dynamo.YearRange(2005, 2030), p, obs, obsYears, time.Millisecond)
}

func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTickRevealsYears(t *testing.T) {
	m := newTestModel()
	years, _ := m.Shown()
	if len(years) != 1 {
		t.Fatalf("expected 1 year shown, got %d", len(years))
	}

	m = send(m, TickMsg(time.Now()))
	m = send(m, TickMsg(time.Now()))
	years, conc := m.Shown()
	if len(years) != 3 || len(conc) != 3 {
		t.Errorf("expected 3 years shown, got %d", len(years))
	}
}

func TestTickStopsAtEnd(t *testing.T) {
	m := newTestModel()
	for i := 0; i < 100; i++ {
		m = send(m, TickMsg(time.Now()))
	}
	years, _ := m.Shown()
	if len(years) != 26 {
		t.Errorf("expected 26 years shown, got %d", len(years))
	}
}

func TestPause(t *testing.T) {
	m := newTestModel()
	m = send(m, tea.KeyMsg{Type: tea.KeySpace})
	m = send(m, TickMsg(time.Now()))

	years, _ := m.Shown()
	if len(years) != 1 {
		t.Errorf("expected paused model not to advance, got %d years", len(years))
	}
}

func TestAdjustEmissions(t *testing.T) {
	m := send(newTestModel(), tea.KeyMsg{Type: tea.KeyEnd})
	_, before := m.Shown()
	last := before[len(before)-1]

	m = send(m, runeKey("k"))
	_, after := m.Shown()
	if after[len(after)-1] <= last {
		t.Errorf("expected higher emissions to raise CH4: %f -> %f", last, after[len(after)-1])
	}
}

func TestAdjustLossRate(t *testing.T) {
	m := send(newTestModel(), tea.KeyMsg{Type: tea.KeyEnd})
	_, before := m.Shown()
	last := before[len(before)-1]

	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	m = send(m, runeKey("k"))
	_, after := m.Shown()
	if after[len(after)-1] >= last {
		t.Errorf("expected faster loss to lower CH4: %f -> %f", last, after[len(after)-1])
	}
}

func TestReset(t *testing.T) {
	m := send(newTestModel(), tea.KeyMsg{Type: tea.KeyEnd})
	_, want := m.Shown()
	wantLast := want[len(want)-1]

	m = send(m, runeKey("j"))
	m = send(m, runeKey("r"))
	m = send(m, tea.KeyMsg{Type: tea.KeyEnd})
	_, got := m.Shown()
	if got[len(got)-1] != wantLast {
		t.Errorf("expected reset to restore %f, got %f", wantLast, got[len(got)-1])
	}
}

func TestQuit(t *testing.T) {
	_, cmd := newTestModel().Update(runeKey("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestViewShowsFit(t *testing.T) {
	m := send(newTestModel(), tea.KeyMsg{Type: tea.KeyEnd})
	view := m.View()
	for _, want := range []string{"CH4 mole fraction (ppb)", "rmse", "bias", "emissions", "2030"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestViewShowsObservation(t *testing.T) {
	m := send(newTestModel(), TickMsg(time.Now()))
	if !strings.Contains(m.View(), "1779.5") {
		t.Error("expected the 2006 observation in view")
	}
}

func TestInvalidParams(t *testing.T) {
	p := dynamo.Params{M0: 1776, Emissions: dynamo.Scalar(550), LossRate: dynamo.Scalar(0)}
	m := NewModel("bad", dynamo.YearRange(2005, 2010), p, nil, nil, 0)

	if !errors.Is(m.Err(), dynamo.ErrZeroLossRate) {
		t.Errorf("expected ErrZeroLossRate, got %v", m.Err())
	}
	if !strings.Contains(m.View(), "loss rate must be non-zero") {
		t.Error("expected error in view")
	}
	years, conc := m.Shown()
	if len(years) != 0 || conc != nil {
		t.Error("expected nothing shown for invalid params")
	}
}

func TestReloadKeepsScalesAndPosition(t *testing.T) {
	m := newTestModel()
	m = send(m, TickMsg(time.Now()))
	m = send(m, TickMsg(time.Now()))
	m = send(m, runeKey("k"))

	p := dynamo.Params{M0: 1800, Emissions: dynamo.Scalar(600), LossRate: dynamo.Scalar(0.1)}
	m = send(m, ReloadMsg{Name: "edited", Years: dynamo.YearRange(2005, 2006), Params: p})

	require.NoError(t, m.Err())
	years, conc := m.Shown()
	assert.Len(t, years, 2, "position is clamped to the new grid")
	assert.Equal(t, 1800.0, conc[0])
	assert.Contains(t, m.View(), "EDITED")
	assert.Contains(t, m.View(), "x1.050")
}

func TestReloadErrorKeepsScenario(t *testing.T) {
	m := send(newTestModel(), tea.KeyMsg{Type: tea.KeyEnd})
	_, before := m.Shown()

	m = send(m, ReloadMsg{Err: errors.New("bad yaml")})

	_, after := m.Shown()
	assert.Equal(t, before, after)
	assert.Contains(t, m.View(), "reload: bad yaml")
}

func TestReloadRejectedParamsKeepScenario(t *testing.T) {
	m := send(newTestModel(), tea.KeyMsg{Type: tea.KeyEnd})
	years, before := m.Shown()

	p := dynamo.Params{M0: 1800, Emissions: dynamo.Scalar(600), LossRate: dynamo.Scalar(0)}
	m = send(m, ReloadMsg{Name: "bad", Years: dynamo.YearRange(2005, 2010), Params: p})

	require.NoError(t, m.Err())
	gotYears, after := m.Shown()
	assert.Equal(t, years, gotYears)
	assert.Equal(t, before, after)
	view := m.View()
	assert.Contains(t, view, "TEST")
	assert.NotContains(t, view, "BAD")
	assert.Contains(t, view, "reload: ")
	assert.Contains(t, view, "loss rate must be non-zero")
}

func TestWithIntegrator(t *testing.T) {
	exact := send(newTestModel(), tea.KeyMsg{Type: tea.KeyEnd})
	_, want := exact.Shown()

	euler := exact.WithIntegrator(integrators.NewEuler(), 1)
	require.NoError(t, euler.Err())
	_, got := euler.Shown()
	assert.Greater(t, math.Abs(got[1]-want[1]), 0.01, "one Euler step per year differs from the exact update")

	rk4 := exact.WithIntegrator(integrators.NewRK4(), 10)
	_, got = rk4.Shown()
	assert.InDelta(t, want[len(want)-1], got[len(got)-1], 1e-6)

	back := rk4.WithIntegrator(nil, 0)
	_, got = back.Shown()
	assert.Equal(t, want, got)
}

func TestReloadSwitchesIntegrator(t *testing.T) {
	m := send(newTestModel(), tea.KeyMsg{Type: tea.KeyEnd})
	_, want := m.Shown()

	p := dynamo.Params{M0: 1776, Emissions: dynamo.Scalar(550), LossRate: dynamo.Scalar(1.0 / 9.1)}
	m = send(m, ReloadMsg{Name: "euler", Years: dynamo.YearRange(2005, 2030), Params: p, Integrator: integrators.NewEuler(), Substeps: 1})

	require.NoError(t, m.Err())
	_, got := m.Shown()
	assert.NotEqual(t, want[1], got[1])
}

func TestHelpListsBindings(t *testing.T) {
	view := newTestModel().View()
	for _, want := range []string{"pause", "select", "quit"} {
		assert.Contains(t, view, want)
	}
}
