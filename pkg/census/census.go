// Package census denormalizes Simpson trees into exact integer count data.
//
// A built tree stores proportions as floats. This package converts every
// height and width to its best small-denominator rational, combines all the
// denominators into the smallest total population size N consistent with
// every layer, and emits per-sub-population recovery counts ("3 out of 5
// people recovered") that reproduce the tree's proportions exactly.
//
// The float-to-rational step is lossy by design: values are snapped to
// "nice" fractions under a denominator cap. When the snap drifts beyond
// tolerance the loss is surfaced - as an error in strict mode, as a recorded
// warning otherwise - never silently rounded away.
package census

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/paradoxlab/reversal/pkg/rational"
	"github.com/paradoxlab/reversal/pkg/simpson"
)

var (
	// ErrPrecisionLoss is returned in strict mode when a rational
	// approximation drifts from its float beyond [DriftTolerance], or when
	// a reconstructed count fails to come out integer. Either signals that
	// the denominator cap is too small for the tree's proportions.
	ErrPrecisionLoss = errors.New("rational approximation lost precision")

	// ErrNilTree is returned when the tree is nil.
	ErrNilTree = errors.New("tree must not be nil")
)

// DriftTolerance is the largest absolute difference tolerated between a
// float value and its rational approximation before the approximation
// counts as precision loss.
const DriftTolerance = 1e-9

// Options configures denormalization.
type Options struct {
	// MaxDenominator caps the denominator of every rational approximation.
	// Zero means [rational.DefaultMaxDenominator].
	MaxDenominator int64

	// Strict turns precision loss into a hard error. When false, losses
	// are collected into [Census.Warnings] and counts are still produced
	// from the snapped rationals.
	Strict bool
}

// Count is the recovery data for one labeled sub-population.
type Count struct {
	// Label is the binary path label ("", "0", "01", ...) of the
	// sub-population within its layer.
	Label string `json:"label" bson:"label"`

	// Recovered is the number of people who recovered.
	Recovered *big.Int `json:"recovered" bson:"recovered"`

	// Size is the number of people in the sub-population.
	Size *big.Int `json:"size" bson:"size"`
}

// LayerCounts holds the counts of one layer, already in treatment/control
// order (the taller/shorter alternation is resolved here, not left to the
// consumer).
type LayerCounts struct {
	Number    int     `json:"number" bson:"number"` // 1-based layer number
	Treatment []Count `json:"treatment" bson:"treatment"`
	Control   []Count `json:"control" bson:"control"`
}

// Census is the denormalized form of a Simpson tree: the smallest integer
// population realizing every layer's proportions exactly, with per-layer
// per-sub-population counts.
type Census struct {
	// Total is the population size N shared by every layer.
	Total *big.Int `json:"total" bson:"total"`

	// HeightMultiplier is the LCM of all height denominators.
	HeightMultiplier *big.Int `json:"height_multiplier" bson:"height_multiplier"`

	// WidthMultiplier is the LCM of all width denominators.
	WidthMultiplier *big.Int `json:"width_multiplier" bson:"width_multiplier"`

	Layers []LayerCounts `json:"layers" bson:"layers"`

	// Warnings records precision losses observed in lenient mode.
	Warnings []string `json:"warnings,omitempty" bson:"warnings,omitempty"`
}

// ratColumn is a column with exact rational height and width.
type ratColumn struct {
	height *big.Rat
	width  *big.Rat
}

// ratLayer mirrors simpson.Layer with rational columns.
type ratLayer struct {
	taller  []ratColumn
	shorter []ratColumn
}

// Denormalize converts a tree's float proportions into the smallest
// consistent integer population and per-sub-population counts.
//
// The total is the product of two multipliers: the LCM of every height
// denominator and the LCM of every width denominator. Multiplying any
// column's width by the total yields its group size; multiplying
// height*width yields its recovered count. Both reconstructions are checked
// to be exact integers.
func Denormalize(tree *simpson.Tree, opts Options) (*Census, error) {
	if tree == nil {
		return nil, ErrNilTree
	}
	maxDen := opts.MaxDenominator
	if maxDen == 0 {
		maxDen = rational.DefaultMaxDenominator
	}

	c := &Census{}

	// Pass 1: snap every float to a rational and collect denominators.
	layers := make([]ratLayer, 0, tree.Depth())
	var heightDenoms, widthDenoms []*big.Int
	for _, layer := range tree.Layers() {
		rl := ratLayer{
			taller:  make([]ratColumn, layer.Len()),
			shorter: make([]ratColumn, layer.Len()),
		}
		for i := range layer.Taller {
			var err error
			if rl.taller[i], err = c.approxColumn(layer.Taller[i], maxDen, opts.Strict); err != nil {
				return nil, err
			}
			if rl.shorter[i], err = c.approxColumn(layer.Shorter[i], maxDen, opts.Strict); err != nil {
				return nil, err
			}
		}
		for _, col := range rl.taller {
			heightDenoms = append(heightDenoms, col.height.Denom())
			widthDenoms = append(widthDenoms, col.width.Denom())
		}
		for _, col := range rl.shorter {
			heightDenoms = append(heightDenoms, col.height.Denom())
			widthDenoms = append(widthDenoms, col.width.Denom())
		}
		layers = append(layers, rl)
	}

	c.HeightMultiplier = rational.LCM(heightDenoms...)
	c.WidthMultiplier = rational.LCM(widthDenoms...)
	c.Total = new(big.Int).Mul(c.HeightMultiplier, c.WidthMultiplier)

	// Pass 2: derive integer counts, resolving the taller/shorter
	// alternation so treatment keeps a stable identity across layers.
	for idx, rl := range layers {
		k := idx + 1
		treatment, control := rl.taller, rl.shorter
		if k%2 == 0 {
			treatment, control = rl.shorter, rl.taller
		}

		labels := simpson.Labels(k)
		lc := LayerCounts{Number: k}
		var err error
		if lc.Treatment, err = counts(treatment, labels, c.Total); err != nil {
			return nil, fmt.Errorf("layer %d treatment: %w", k, err)
		}
		if lc.Control, err = counts(control, labels, c.Total); err != nil {
			return nil, fmt.Errorf("layer %d control: %w", k, err)
		}
		c.Layers = append(c.Layers, lc)
	}

	return c, nil
}

// approxColumn snaps one column's height and width, recording or rejecting
// drift beyond tolerance.
func (c *Census) approxColumn(col simpson.Column, maxDen int64, strict bool) (ratColumn, error) {
	h, err := c.approx(col.Height, maxDen, strict, "height")
	if err != nil {
		return ratColumn{}, err
	}
	w, err := c.approx(col.Width, maxDen, strict, "width")
	if err != nil {
		return ratColumn{}, err
	}
	return ratColumn{height: h, width: w}, nil
}

func (c *Census) approx(x float64, maxDen int64, strict bool, what string) (*big.Rat, error) {
	r, err := rational.Approximate(x, maxDen)
	if err != nil {
		return nil, err
	}
	back, _ := r.Float64()
	if drift := math.Abs(back - x); drift > DriftTolerance {
		if strict {
			return nil, fmt.Errorf("%w: %s %v snapped to %s (drift %g)", ErrPrecisionLoss, what, x, r, drift)
		}
		c.Warnings = append(c.Warnings,
			fmt.Sprintf("%s %v snapped to %s (drift %g)", what, x, r, drift))
	}
	return r, nil
}

// counts turns one rational group into labeled integer counts.
func counts(cols []ratColumn, labels []string, total *big.Int) ([]Count, error) {
	out := make([]Count, len(cols))
	for i, col := range cols {
		size, err := wholePeople(new(big.Rat).Set(col.width), total)
		if err != nil {
			return nil, fmt.Errorf("sub-population %q size: %w", labels[i], err)
		}
		recovered, err := wholePeople(new(big.Rat).Mul(col.height, col.width), total)
		if err != nil {
			return nil, fmt.Errorf("sub-population %q recovered: %w", labels[i], err)
		}
		out[i] = Count{Label: labels[i], Recovered: recovered, Size: size}
	}
	return out, nil
}

// wholePeople multiplies a proportion by the total population and insists
// on an integer result. By construction every denominator divides the
// total, so a remainder here means the multipliers were computed from
// different rationals than the counts - an internal inconsistency worth
// failing loudly on.
func wholePeople(proportion *big.Rat, total *big.Int) (*big.Int, error) {
	v := proportion.Mul(proportion, new(big.Rat).SetInt(total))
	if !v.IsInt() {
		return nil, fmt.Errorf("%w: %s people is not a whole number", ErrPrecisionLoss, v.RatString())
	}
	return new(big.Int).Set(v.Num()), nil
}
