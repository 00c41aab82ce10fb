// Package render provides visualization rendering for reversal trees.
//
// # Overview
//
// This package contains the rendering pipeline that transforms reversal
// trees into visual outputs. It provides:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Stacked-bar layer figures (in [figure] subpackage)
//   - Node-link diagrams of the sub-population tree (in [nodelink] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). These are used by both
// figure and node-link renderers.
//
//	svg := figure.RenderSVG(treatment, control)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Layer Figures
//
// The [figure] subpackage renders a single layer as a stacked-bar chart:
// one bar per column, bar width proportional to sub-population size, bar
// height equal to the recovery rate. Matching treatment/control pairs
// share a fill color; the control group is crosshatched.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders the binary sub-population tree as a
// directed graph using Graphviz. Each node is a sub-population labelled
// with its binary path.
//
//	dot := nodelink.ToDOT(tree, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// [figure]: github.com/paradoxlab/reversal/pkg/render/figure
// [nodelink]: github.com/paradoxlab/reversal/pkg/render/nodelink
package render
