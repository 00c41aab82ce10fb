package simpson

import (
	"errors"
	"math"
)

var (
	// ErrHeightRange is returned when a column's height is not strictly
	// inside (0, 1). Heights are recovery rates; the open interval keeps
	// every split well-defined (a rate of exactly 0 or 1 cannot be split
	// into a strictly taller and a strictly shorter child).
	ErrHeightRange = errors.New("column height must lie strictly inside (0, 1)")

	// ErrWidthRange is returned when a column's width is not strictly
	// inside (0, 1). Widths are population shares; zero-width columns
	// would make split fractions degenerate.
	ErrWidthRange = errors.New("column width must lie strictly inside (0, 1)")

	// ErrNotFinite is returned when a column carries a NaN or infinite
	// value. This guards against garbage propagating through a build.
	ErrNotFinite = errors.New("column values must be finite")
)

// WidthTolerance is the absolute tolerance used when checking width
// conservation across a split on the float path. Exact equality is not
// attainable in floating point; the rational denormalizer in pkg/census
// recovers exactness later.
const WidthTolerance = 1e-9

// Column is a weighted outcome rate: Height is the recovery rate within a
// sub-population and Width is that sub-population's share of its group's
// total. Both must lie strictly inside (0, 1).
//
// Column is a value type; copying is cheap and layers never share columns.
type Column struct {
	Height float64 `json:"height" bson:"height"`
	Width  float64 `json:"width" bson:"width"`
}

// Area returns Height * Width, the column's share of recoveries relative to
// the group total. Splits conserve the combined area of each origin column.
func (c Column) Area() float64 { return c.Height * c.Width }

// Validate reports whether the column is usable as splitter input.
// It returns ErrNotFinite, ErrHeightRange, or ErrWidthRange on the first
// violated constraint, or nil.
func (c Column) Validate() error {
	if math.IsNaN(c.Height) || math.IsInf(c.Height, 0) ||
		math.IsNaN(c.Width) || math.IsInf(c.Width, 0) {
		return ErrNotFinite
	}
	if c.Height <= 0 || c.Height >= 1 {
		return ErrHeightRange
	}
	if c.Width <= 0 || c.Width >= 1 {
		return ErrWidthRange
	}
	return nil
}
