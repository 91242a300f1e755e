package viz

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ch4box/internal/dynamo"
)

const (
	YLabel = "CH4 mole fraction (ppb)"
	XLabel = "Year"
)

var ErrNoData = errors.New("viz: no data to plot")

type Options struct {
	Height    int
	Width     int
	Caption   string
	Precision uint
}

type Option func(*Options)

func Height(h int) Option { return func(o *Options) { o.Height = h } }

func Width(w int) Option { return func(o *Options) { o.Width = w } }

// Caption replaces the y-axis caption printed under the chart.
func Caption(c string) Option { return func(o *Options) { o.Caption = c } }

func Precision(p uint) Option { return func(o *Options) { o.Precision = p } }

func defaultOptions() Options {
	return Options{Height: 12, Width: 72, Caption: YLabel, Precision: 1}
}

// Series is a named concentration series for multi-line charts.
type Series struct {
	Name   string
	Values dynamo.Concentration
	Color  asciigraph.AnsiColor
	Stroke string
}

// Plot writes a line chart of conc against years.
func Plot(w io.Writer, years dynamo.Years, conc dynamo.Concentration, opts ...Option) error {
	return Overlay(w, years, []Series{{Name: "ch4", Values: conc, Color: asciigraph.Default}}, opts...)
}

// Overlay draws several series sharing the same years on one chart, with a
// legend when there is more than one.
func Overlay(w io.Writer, years dynamo.Years, series []Series, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if len(series) == 0 || len(years) == 0 {
		return ErrNoData
	}
	data := make([][]float64, len(series))
	colors := make([]asciigraph.AnsiColor, len(series))
	for i, s := range series {
		if len(s.Values) != len(years) {
			return fmt.Errorf("viz: %w: series %q has %d values for %d years",
				dynamo.ErrDimensionMismatch, s.Name, len(s.Values), len(years))
		}
		data[i] = s.Values
		colors[i] = s.Color
	}

	graph := asciigraph.PlotMany(data,
		asciigraph.Height(o.Height),
		asciigraph.Width(o.Width),
		asciigraph.Precision(o.Precision),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(o.Caption),
	)

	var sb strings.Builder
	sb.WriteString(graph)
	sb.WriteString("\n")
	sb.WriteString(xAxis(years, labelWidth(data, o.Precision), o.Width))
	if len(series) > 1 {
		sb.WriteString("\n")
		sb.WriteString(legend(series))
	}
	_, err := fmt.Fprintln(w, sb.String())
	return err
}

// labelWidth approximates the width asciigraph gives the y-axis labels.
func labelWidth(data [][]float64, precision uint) int {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range data {
		for _, v := range s {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	wl := len(fmt.Sprintf("%.*f", precision, lo))
	wh := len(fmt.Sprintf("%.*f", precision, hi))
	if wl > wh {
		return wl
	}
	return wh
}

func xAxis(years dynamo.Years, labelWidth, width int) string {
	first := fmt.Sprint(years[0])
	last := fmt.Sprint(years[len(years)-1])
	indent := strings.Repeat(" ", labelWidth+4)
	gap := width - len(first) - len(last)
	if gap < 1 {
		gap = 1
	}
	if len(years) == 1 {
		return indent + first + "  " + XLabel
	}
	return indent + first + strings.Repeat(" ", gap) + last + "  " + XLabel
}

func legend(series []Series) string {
	parts := make([]string, len(series))
	for i, s := range series {
		line := "──"
		if s.Color != asciigraph.Default {
			line = lipgloss.NewStyle().Foreground(lipgloss.Color(strconv.Itoa(int(s.Color)))).Render(line)
		}
		parts[i] = line + " " + s.Name
	}
	return "  " + strings.Join(parts, "   ")
}
