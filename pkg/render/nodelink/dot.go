// Package nodelink renders the binary sub-population tree as a node-link
// diagram.
//
// Each node is one sub-population, labelled with its binary path. An
// edge connects a sub-population to the two halves it splits into on
// the next layer. Rendering uses Graphviz via [github.com/goccy/go-graphviz]
// for in-process SVG output; PDF and PNG conversion goes through
// [github.com/paradoxlab/reversal/pkg/render].
package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/paradoxlab/reversal/pkg/render"
	"github.com/paradoxlab/reversal/pkg/simpson"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes treatment and control recovery rates in node
	// labels. When false, only the binary path is shown.
	Detailed bool
}

// ToDOT converts a reversal tree to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(t *simpson.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for k := 1; k <= t.Depth(); k++ {
		labels := simpson.Labels(k)
		for i, label := range labels {
			fmt.Fprintf(&buf, "  %q [label=%q];\n", nodeID(k, label), fmtLabel(t, k, i, label, opts.Detailed))
		}
	}

	buf.WriteString("\n")
	for k := 1; k < t.Depth(); k++ {
		for _, label := range simpson.Labels(k) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(k, label), nodeID(k+1, label+"0"))
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(k, label), nodeID(k+1, label+"1"))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// nodeID builds a unique DOT node identifier. The root's path is the
// empty string, so the layer number is part of the ID.
func nodeID(layer int, label string) string {
	return fmt.Sprintf("%d:%s", layer, label)
}

func fmtLabel(t *simpson.Tree, layer, pair int, label string, detailed bool) string {
	display := label
	if display == "" {
		display = "population"
	}
	if !detailed {
		return display
	}

	treatment, control, ok := t.Groups(layer)
	if !ok || pair >= len(treatment) {
		return display
	}
	return fmt.Sprintf("%s\ntreatment: %.3f\ncontrol: %.3f",
		display, treatment[pair].Height, control[pair].Height)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPDF].
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
