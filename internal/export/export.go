// Package export writes run results as CSV or JSON to any io.Writer.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"

	"github.com/san-kum/ch4box/internal/dynamo"
)

// Column is a named series written alongside the years.
type Column struct {
	Name   string
	Values []float64
}

// Run is the JSON form of a single projection.
type Run struct {
	ID         string             `json:"run_id"`
	Scenario   string             `json:"scenario"`
	Integrator string             `json:"integrator"`
	M0         float64            `json:"m0"`
	Emissions  string             `json:"emissions"`
	LossRate   string             `json:"loss_rate"`
	Years      []int              `json:"years"`
	CH4        []float64          `json:"ch4_ppb"`
	Observed   []float64          `json:"observed_ppb,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// NewRun fills the parameter fields of a Run from p and gives it a fresh ID.
func NewRun(scenario, integrator string, years dynamo.Years, p dynamo.Params, conc dynamo.Concentration) Run {
	return Run{
		ID:         uuid.NewString(),
		Scenario:   scenario,
		Integrator: integrator,
		M0:         p.M0,
		Emissions:  p.Emissions.String(),
		LossRate:   p.LossRate.String(),
		Years:      years,
		CH4:        conc,
	}
}

// WriteCSV writes a header row "year,<names...>" followed by one row per
// year. Every column must have one value per year.
func WriteCSV(w io.Writer, years dynamo.Years, cols ...Column) error {
	for _, c := range cols {
		if len(c.Values) != len(years) {
			return fmt.Errorf("export: %w: column %q has %d values for %d years",
				dynamo.ErrDimensionMismatch, c.Name, len(c.Values), len(years))
		}
	}

	cw := csv.NewWriter(w)

	header := []string{"year"}
	for _, c := range cols {
		header = append(header, c.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, y := range years {
		row := []string{strconv.Itoa(y)}
		for _, c := range cols {
			row = append(row, strconv.FormatFloat(c.Values[i], 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func WriteJSON(w io.Writer, run Run) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(run)
}
