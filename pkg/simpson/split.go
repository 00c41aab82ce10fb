package simpson

import (
	"errors"
	"fmt"
)

var (
	// ErrHeightOrder is returned by [Splitter.Split] when the first column
	// is not strictly taller than the second. Splitting an inverted pair
	// would divide by zero or emit negative widths, so the splitter fails
	// fast instead of propagating garbage columns downstream.
	ErrHeightOrder = errors.New("tall column must be strictly taller than short column")

	// ErrConstantRange is returned by [NewSplitter] when an interpolation
	// constant lies outside the open interval (0, 1).
	ErrConstantRange = errors.New("split constants must lie strictly inside (0, 1)")

	// ErrConstantOrder is returned by [NewSplitter] when A >= B or C >= D.
	// The strict orderings are what guarantee the reversal: A < B separates
	// the two new left heights, C < D the two new right heights.
	ErrConstantOrder = errors.New("split constants must satisfy A < B and C < D")
)

// Default interpolation constants. The reference construction uses 9/20 and
// 11/20, chosen for easily interpreted figures; any values with A,B,C,D in
// (0,1), A < B, and C < D produce valid reversals of a different shape.
const (
	DefaultA = 9.0 / 20.0
	DefaultB = 11.0 / 20.0
	DefaultC = 9.0 / 20.0
	DefaultD = 11.0 / 20.0
)

// Constants holds the four interpolation constants controlling how
// aggressively each split biases the new heights away from the parents.
// A and B shape the left (high) children, C and D the right (low) children.
type Constants struct {
	A float64 `json:"a" toml:"a"`
	B float64 `json:"b" toml:"b"`
	C float64 `json:"c" toml:"c"`
	D float64 `json:"d" toml:"d"`
}

// DefaultConstants returns the reference constants (9/20, 11/20, 9/20, 11/20).
func DefaultConstants() Constants {
	return Constants{A: DefaultA, B: DefaultB, C: DefaultC, D: DefaultD}
}

// Validate checks the constraints A,B,C,D in (0,1), A < B, C < D.
func (c Constants) Validate() error {
	for _, v := range [4]float64{c.A, c.B, c.C, c.D} {
		if v <= 0 || v >= 1 {
			return ErrConstantRange
		}
	}
	if c.A >= c.B || c.C >= c.D {
		return ErrConstantOrder
	}
	return nil
}

// Splitter divides a (tall, short) column pair into four columns whose
// pairing reverses the aggregate height ordering while conserving the
// population mass of each origin column.
//
// The zero value is not usable - create instances with [NewSplitter] or
// [DefaultSplitter] so the constants are validated up front.
type Splitter struct {
	consts Constants
}

// NewSplitter creates a splitter with validated constants.
// Returns ErrConstantRange or ErrConstantOrder on invalid input.
func NewSplitter(c Constants) (*Splitter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{consts: c}, nil
}

// DefaultSplitter returns a splitter with the reference constants.
func DefaultSplitter() *Splitter {
	return &Splitter{consts: DefaultConstants()}
}

// Constants returns the splitter's interpolation constants.
func (s *Splitter) Constants() Constants { return s.consts }

// Split divides each column of the pair in two, producing one Simpson
// reversal. The returned columns satisfy tallL.Height > shortL.Height and
// tallR.Height > shortR.Height (the per-pair dominance needed for the next
// layer), while the aggregate rate ordering of the pairs reverses relative
// to the parents.
//
// Width bookkeeping swaps origin: the new taller pair divides the original
// shorter column's width, and the new shorter pair the original taller
// column's width. This is what keeps total area conserved per origin column
// while reshuffling the height order:
//
//	tallL.Width + tallR.Width == short.Width
//	shortL.Width + shortR.Width == tall.Width
//
// Split validates both inputs and returns ErrHeightOrder (wrapped with the
// offending heights) if tall is not strictly taller than short, or the
// first column validation error otherwise.
func (s *Splitter) Split(tall, short Column) (tallL, tallR, shortL, shortR Column, err error) {
	if err = tall.Validate(); err != nil {
		return Column{}, Column{}, Column{}, Column{}, fmt.Errorf("tall column: %w", err)
	}
	if err = short.Validate(); err != nil {
		return Column{}, Column{}, Column{}, Column{}, fmt.Errorf("short column: %w", err)
	}
	if tall.Height <= short.Height {
		return Column{}, Column{}, Column{}, Column{},
			fmt.Errorf("%w (tall=%v short=%v)", ErrHeightOrder, tall.Height, short.Height)
	}

	a, b, c, d := s.consts.A, s.consts.B, s.consts.C, s.consts.D
	ht, wt := tall.Height, tall.Width
	hs, ws := short.Height, short.Width

	// Heights of the new columns: the left children interpolate upward from
	// the taller parent, the right children scale down the shorter parent.
	htl := ht + a*(1-ht)
	hsl := ht + b*(1-ht)
	htr := c * hs
	hsr := d * hs

	// Break points along each parent's width, chosen so the areas of the
	// sub-columns exactly conserve each parent's area.
	zt := (ht - c*hs) / ((1-a)*ht + a - c*hs)
	zs := (hs - d*hs) / ((1-b)*ht + b - d*hs)

	tallL = Column{Height: hsl, Width: zs * ws}
	tallR = Column{Height: hsr, Width: (1 - zs) * ws}
	shortL = Column{Height: htl, Width: zt * wt}
	shortR = Column{Height: htr, Width: (1 - zt) * wt}
	return tallL, tallR, shortL, shortR, nil
}
