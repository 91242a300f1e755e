package viz

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

// Terminal palette. Simulated values share the blue used for the simulated
// chart line.
const (
	colorSimulated = lipgloss.Color("12")
	colorMuted     = lipgloss.Color("244")
	colorRule      = lipgloss.Color("238")
	colorAccent    = lipgloss.Color("86")
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	Subtle = lipgloss.NewStyle().Foreground(colorMuted)

	MetricLabel = lipgloss.NewStyle().Foreground(colorMuted)

	MetricValue = lipgloss.NewStyle().Bold(true).Foreground(colorSimulated)

	KeyHint = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorRule)

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorRule).
		Padding(0, 1)

	sparkStyle = lipgloss.NewStyle().Foreground(colorSimulated)
	ruleStyle  = lipgloss.NewStyle().Foreground(colorRule)
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline squeezes values into width block characters, each showing the
// value nearest its position. The scale runs from the series minimum to its
// maximum. An empty series gives a flat rule.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if width > len(values) {
		width = len(values)
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var sb strings.Builder
	for i := 0; i < width; i++ {
		j := 0
		if width > 1 {
			j = int(math.Round(float64(i) * float64(len(values)-1) / float64(width-1)))
		}
		level := 0
		if hi > lo {
			level = int(math.Round((values[j] - lo) / (hi - lo) * float64(len(sparkBlocks)-1)))
		}
		sb.WriteRune(sparkBlocks[level])
	}
	return sparkStyle.Render(sb.String())
}

func Separator(width int) string {
	return ruleStyle.Render(strings.Repeat("─", width))
}

// MetricsTable writes name/value pairs. Names listed in order come first,
// the rest follow alphabetically.
func MetricsTable(w io.Writer, values map[string]float64, order []string) error {
	seen := make(map[string]bool, len(order))
	names := make([]string, 0, len(values))
	for _, name := range order {
		if _, ok := values[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(values))
	for name := range values {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	if _, err := fmt.Fprintln(w, HeaderStyle.Render("metrics")); err != nil {
		return err
	}
	for _, name := range names {
		line := fmt.Sprintf("  %s %s", MetricLabel.Width(16).Render(name), MetricValue.Render(fmt.Sprintf("%.4f", values[name])))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Table writes aligned columns with a styled header row.
func Table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	styled := make([]string, len(header))
	for i, h := range header {
		styled[i] = TitleStyle.Render(h)
	}
	fmt.Fprintln(tw, strings.Join(styled, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
