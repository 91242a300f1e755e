package viz

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/ch4box/internal/dynamo"
)

var defaultStrokes = []string{"#1f77b4", "#d62728", "#2ca02c", "#ff7f0e"}

const (
	svgWidth   = 640
	svgHeight  = 400
	svgMarginL = 80
	svgMarginR = 20
	svgMarginT = 20
	svgMarginB = 60
)

// PlotSVG writes a standalone SVG line chart of the series against years,
// labelled with the same axes as Plot.
func PlotSVG(w io.Writer, years dynamo.Years, series ...Series) error {
	if len(series) == 0 || len(years) == 0 {
		return ErrNoData
	}
	for _, s := range series {
		if len(s.Values) != len(years) {
			return fmt.Errorf("viz: %w: series %q has %d values for %d years",
				dynamo.ErrDimensionMismatch, s.Name, len(s.Values), len(years))
		}
	}

	minX, maxX := float64(years[0]), float64(years[len(years)-1])
	minY, maxY := series[0].Values[0], series[0].Values[0]
	for _, s := range series {
		for _, v := range s.Values {
			if v < minY {
				minY = v
			}
			if v > maxY {
				maxY = v
			}
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.05
	maxY += rangeY * 0.05
	rangeY = maxY - minY

	plotW := float64(svgWidth - svgMarginL - svgMarginR)
	plotH := float64(svgHeight - svgMarginT - svgMarginB)
	px := func(x float64) float64 { return svgMarginL + (x-minX)/rangeX*plotW }
	py := func(y float64) float64 { return svgMarginT + plotH - (y-minY)/rangeY*plotH }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="12">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, svgWidth, svgHeight, svgWidth, svgHeight))

	// axes
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="#000000" d="M%d,%d L%d,%d L%d,%d"/>
`, svgMarginL, svgMarginT, svgMarginL, svgHeight-svgMarginB, svgWidth-svgMarginR, svgHeight-svgMarginB))

	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" text-anchor="middle">%d</text>
<text x="%.1f" y="%d" text-anchor="middle">%d</text>
`, px(minX), svgHeight-svgMarginB+16, years[0], px(maxX), svgHeight-svgMarginB+16, years[len(years)-1]))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" text-anchor="end">%.1f</text>
<text x="%d" y="%.1f" text-anchor="end">%.1f</text>
`, svgMarginL-6, py(minY)+4, minY, svgMarginL-6, py(maxY)+4, maxY))

	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" text-anchor="middle">%s</text>
`, svgMarginL+plotW/2, svgHeight-16, XLabel))
	sb.WriteString(fmt.Sprintf(`<text x="18" y="%.1f" text-anchor="middle" transform="rotate(-90 18 %.1f)">%s</text>
`, svgMarginT+plotH/2, svgMarginT+plotH/2, YLabel))

	for i, s := range series {
		stroke := s.Stroke
		if stroke == "" {
			stroke = defaultStrokes[i%len(defaultStrokes)]
		}

		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
		for j, v := range s.Values {
			x, y := px(float64(years[j])), py(v)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")

		if len(series) > 1 {
			ly := svgMarginT + 14 + i*16
			sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>
<text x="%d" y="%d">%s</text>
`, svgMarginL+10, ly-4, svgMarginL+30, ly-4, stroke, svgMarginL+36, ly, escapeXML(s.Name)))
		}
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
