// Package figure renders reversal-tree layers as stacked-bar SVG charts.
//
// Each column in a layer becomes one bar: bar width is proportional to
// the sub-population's share of the total, bar height is its recovery
// rate. The treatment group's bars come first, then the control group's.
// Matching pairs across the two groups share a fill color, and the
// control group is crosshatched so pairs can be compared at a glance.
// Because the group holding the treatment population alternates per
// layer, callers should obtain the two slices from [simpson.Tree.Groups]
// rather than reading Taller/Shorter off the layer directly.
package figure

import (
	"bytes"
	"fmt"

	"github.com/paradoxlab/reversal/pkg/simpson"
)

// palette assigns one color per column pair. Pairs beyond the palette
// size wrap around.
var palette = []string{
	"orange", "lightgreen", "yellow", "hotpink",
	"lightseagreen", "tomato", "beige", "khaki",
	"cyan", "lightsalmon", "thistle", "gainsboro",
	"lavenderblush", "goldenrod", "lightskyblue", "greenyellow",
}

// SVGOption configures the figure renderer.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width  float64
	height float64
	margin float64
	title  string
}

// WithSize sets the overall canvas size in pixels.
func WithSize(width, height float64) SVGOption {
	return func(r *svgRenderer) {
		r.width = width
		r.height = height
	}
}

// WithTitle adds a title above the chart.
func WithTitle(title string) SVGOption {
	return func(r *svgRenderer) { r.title = title }
}

func newSVGRenderer(opts ...SVGOption) *svgRenderer {
	r := &svgRenderer{
		width:  640,
		height: 480,
		margin: 56,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderSVG renders one layer's treatment and control groups as a
// stacked-bar SVG chart. The two slices must be index-aligned and equal
// in length; columns must be structurally valid (call
// [simpson.Layer.Validate] first if they come from an untrusted source).
func RenderSVG(treatment, control []simpson.Column, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	// Treatment group first, then control, matching the pair color cycle
	// and the crosshatch on the second half.
	columns := make([]simpson.Column, 0, len(treatment)+len(control))
	columns = append(columns, treatment...)
	columns = append(columns, control...)

	total := 0.0
	for _, c := range columns {
		total += c.Width
	}

	plotW := r.width - 2*r.margin
	plotH := r.height - 2*r.margin

	var buf bytes.Buffer
	fmt.Fprintf(&buf,
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`+"\n",
		r.width, r.height, r.width, r.height)
	buf.WriteString("  <defs>\n")
	buf.WriteString(`    <pattern id="crosshatch" width="8" height="8" patternUnits="userSpaceOnUse">` + "\n")
	buf.WriteString(`      <path d="M0 0L8 8M8 0L0 8" stroke="black" stroke-width="1" opacity="0.35"/>` + "\n")
	buf.WriteString("    </pattern>\n")
	buf.WriteString("  </defs>\n")
	fmt.Fprintf(&buf, `  <rect width="%.0f" height="%.0f" fill="white"/>`+"\n", r.width, r.height)

	if r.title != "" {
		fmt.Fprintf(&buf,
			`  <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="16">%s</text>`+"\n",
			r.width/2, r.margin/2, escapeText(r.title))
	}

	x := r.margin
	n := len(columns)
	for i, c := range columns {
		barW := plotW * c.Width / total
		barH := plotH * c.Height
		y := r.margin + plotH - barH
		color := palette[(i%(n/2))%len(palette)]

		fmt.Fprintf(&buf,
			`  <rect class="bar" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="black" stroke-width="0.5"/>`+"\n",
			x, y, barW, barH, color)
		if i >= n/2 {
			fmt.Fprintf(&buf,
				`  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="url(#crosshatch)"/>`+"\n",
				x, y, barW, barH)
		}
		x += barW
	}

	r.renderAxes(&buf, plotW, plotH)

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderAxes(buf *bytes.Buffer, plotW, plotH float64) {
	x0, y0 := r.margin, r.margin+plotH

	fmt.Fprintf(buf,
		`  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black"/>`+"\n",
		x0, y0, x0+plotW, y0)
	fmt.Fprintf(buf,
		`  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black"/>`+"\n",
		x0, r.margin, x0, y0)

	// Tick labels for the rate axis at 0, 0.5, and 1.
	for _, tick := range []float64{0, 0.5, 1} {
		y := y0 - plotH*tick
		fmt.Fprintf(buf,
			`  <text x="%.1f" y="%.1f" text-anchor="end" font-family="sans-serif" font-size="11">%.1f</text>`+"\n",
			x0-6, y+4, tick)
	}

	fmt.Fprintf(buf,
		`  <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="13">proportion in sub-population</text>`+"\n",
		x0+plotW/2, y0+r.margin*0.7)
	fmt.Fprintf(buf,
		`  <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="13" transform="rotate(-90 %.1f %.1f)">recovery rate</text>`+"\n",
		x0-r.margin*0.7, r.margin+plotH/2, x0-r.margin*0.7, r.margin+plotH/2)
}

func escapeText(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
