// Package simpson generates Simpson reversal trees: recursive constructions
// of nested sub-populations in which the sign of an association between a
// treatment and an outcome flips at every successive level of conditioning.
//
// # Overview
//
// A Simpson reversal occurs when the association between two variables
// changes sign once you condition on a third variable, no matter which value
// the third variable takes. In the classic drug-trial framing: the treatment
// group recovers at a higher rate than the control group overall, yet at a
// lower rate among men and among women separately. Reversals can be nested
// indefinitely - overall lower, higher in each of two sub-populations, lower
// in each of four sub-sub-populations, and so on.
//
// This package builds such constructions as [Tree] values. Each [Layer]
// holds two index-aligned groups of [Column] values, where a column pairs a
// recovery rate (height) with a share of the population (width). Layer k+1
// is derived from layer k by splitting every column pair in two with
// [Splitter.Split], which conserves population mass while reversing the
// aggregate rate ordering.
//
// # Basic Usage
//
// Build a tree from a root layer and a depth:
//
//	root := simpson.Layer{
//	    Taller:  []simpson.Column{{Height: 0.6, Width: 0.5}},
//	    Shorter: []simpson.Column{{Height: 0.4, Width: 0.5}},
//	}
//	tree, err := simpson.Build(root, 3)
//
// Layer numbers are 1-based throughout the public API: layer 1 is the root
// layer, layer k has 2^(k-1) columns per group. Internally layers live in a
// 0-indexed slice; [Tree.Layer] takes the 1-based number.
//
// # Invariants
//
// Every layer satisfies, and [Layer.Validate] checks:
//
//   - Both groups have equal length and align index-for-index
//   - Heights and widths lie strictly inside (0, 1)
//   - Taller[i].Height > Shorter[i].Height for every index i
//
// Splitting conserves width per origin column: the two new taller columns
// inherit the original shorter column's width (and vice versa), so group
// lineages keep their total population share across layers.
//
// # Group Order
//
// Splitting always emits the new taller group first, so the group that holds
// the treatment population alternates from layer to layer. Use
// [Tree.Groups] to recover the (treatment, control) assignment for a given
// layer number; consumers that print or draw layers must apply this swap or
// the treatment population appears to jump sides on every level.
//
// # Concurrency
//
// Trees are built once and never mutated afterwards. A built [Tree] is safe
// for concurrent reads. Independent builds share no state and can run in
// parallel.
package simpson
