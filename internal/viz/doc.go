// Package viz draws CH4 concentration series for the terminal and as SVG.
//
// The package only sees years and values, never the model that produced
// them:
//
//   - [Plot]: one series as an asciigraph line chart
//   - [Overlay]: several series on shared axes with a legend
//   - [PlotSVG]: a standalone SVG chart with the same axis labels
//   - [Table], [MetricsTable]: lipgloss-styled tabular output
//
// Charts carry the y-axis caption [YLabel] and the x-axis label [XLabel],
// with the first and last year at the ends of the x axis.
package viz
