package config

import "sort"

var Presets = map[string]*Scenario{
	"noaa-constant": {
		Name: "noaa-constant", StartYear: 2005, EndYear: 2022, M0: 1776.0,
		Emissions: Scalar(550), LossRate: Scalar(1.0 / 9.1),
	},
	"decay": {
		Name: "decay", StartYear: 2005, EndYear: 2010, M0: 1800.0,
		Emissions: Scalar(0), LossRate: Scalar(0.1),
	},
	"steady-state": {
		Name: "steady-state", StartYear: 2000, EndYear: 2049, M0: 1800.0,
		Emissions: Scalar(5), LossRate: Scalar(0.5),
	},
	"emissions-growth": {
		Name: "emissions-growth", StartYear: 2005, EndYear: 2022, M0: 1776.0,
		Emissions: Series(
			535, 537, 539, 541, 543, 545, 547, 549, 551,
			553, 555, 557, 559, 561, 563, 565, 567,
		),
		LossRate: Scalar(1.0 / 9.1),
	},
	"lifetime-change": {
		Name: "lifetime-change", StartYear: 2005, EndYear: 2022, M0: 1776.0,
		Emissions: Scalar(550),
		LossRate: Series(
			0.1099, 0.1099, 0.1099, 0.1099, 0.1099, 0.1099, 0.1099, 0.1099, 0.1099,
			0.1087, 0.1087, 0.1087, 0.1087, 0.1087, 0.1075, 0.1075, 0.1075,
		),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Scenario {
	s, ok := Presets[name]
	if !ok {
		return nil
	}
	c := s.Clone()
	if c.Integrator == "" {
		c.Integrator = DefaultIntegrator
	}
	if c.Substeps == 0 {
		c.Substeps = DefaultSubsteps
	}
	return c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
