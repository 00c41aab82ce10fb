package simpson

import (
	"errors"
	"fmt"
)

var (
	// ErrGroupMismatch is returned when a layer's two groups have different
	// lengths. Groups must align index-for-index: the i-th taller column and
	// the i-th shorter column are siblings derived from the same ancestor.
	ErrGroupMismatch = errors.New("taller and shorter groups must have equal length")

	// ErrEmptyLayer is returned when a layer has no columns.
	ErrEmptyLayer = errors.New("layer must contain at least one column pair")
)

// Layer is one level of a Simpson tree: two ordered, index-aligned groups
// of columns. For every index i, Taller[i].Height > Shorter[i].Height.
//
// Column order within a group is significant: it encodes the binary path
// through the splits and aligns with the labels returned by [Labels].
type Layer struct {
	Taller  []Column `json:"taller" bson:"taller"`
	Shorter []Column `json:"shorter" bson:"shorter"`
}

// Len returns the number of column pairs in the layer.
func (l Layer) Len() int { return len(l.Taller) }

// Validate checks the layer invariants: equal non-empty group lengths,
// every column valid, and strict per-index height dominance. It returns
// the first violation found, wrapped with the offending index.
func (l Layer) Validate() error {
	if len(l.Taller) != len(l.Shorter) {
		return fmt.Errorf("%w (taller=%d shorter=%d)", ErrGroupMismatch, len(l.Taller), len(l.Shorter))
	}
	if len(l.Taller) == 0 {
		return ErrEmptyLayer
	}
	for i := range l.Taller {
		if err := l.Taller[i].Validate(); err != nil {
			return fmt.Errorf("taller[%d]: %w", i, err)
		}
		if err := l.Shorter[i].Validate(); err != nil {
			return fmt.Errorf("shorter[%d]: %w", i, err)
		}
		if l.Taller[i].Height <= l.Shorter[i].Height {
			return fmt.Errorf("pair %d: %w", i, ErrHeightOrder)
		}
	}
	return nil
}

// GroupWidths returns the total width of the taller and shorter groups.
// Width conservation means these totals swap between consecutive layers:
// the new taller group's total equals the old shorter group's total.
func (l Layer) GroupWidths() (taller, shorter float64) {
	for _, c := range l.Taller {
		taller += c.Width
	}
	for _, c := range l.Shorter {
		shorter += c.Width
	}
	return taller, shorter
}

// Rates returns the aggregate recovery rate of each group: total area
// divided by total width. Because splitting conserves each parent's area
// and width, a derived layer's taller group aggregates to its parent
// shorter group's rate and vice versa. The group that dominates in every
// individual pair therefore has the lower aggregate rate - the reversal
// phenomenon itself.
func (l Layer) Rates() (taller, shorter float64) {
	var ta, sa float64
	for _, c := range l.Taller {
		ta += c.Area()
	}
	for _, c := range l.Shorter {
		sa += c.Area()
	}
	tw, sw := l.GroupWidths()
	return ta / tw, sa / sw
}

// Clone returns a deep copy of the layer.
func (l Layer) Clone() Layer {
	out := Layer{
		Taller:  make([]Column, len(l.Taller)),
		Shorter: make([]Column, len(l.Shorter)),
	}
	copy(out.Taller, l.Taller)
	copy(out.Shorter, l.Shorter)
	return out
}

// NextLayer applies the splitter pairwise across the layer and returns the
// next layer down. Output groups are twice as long as the input groups; the
// children of pair i occupy positions 2i and 2i+1, preserving the binary
// path ordering consumed by [Labels].
//
// The input layer is validated first; any splitter error aborts the
// expansion (partial layers are never returned).
func (s *Splitter) NextLayer(l Layer) (Layer, error) {
	if err := l.Validate(); err != nil {
		return Layer{}, err
	}

	next := Layer{
		Taller:  make([]Column, 0, 2*len(l.Taller)),
		Shorter: make([]Column, 0, 2*len(l.Shorter)),
	}
	for i := range l.Taller {
		tallL, tallR, shortL, shortR, err := s.Split(l.Taller[i], l.Shorter[i])
		if err != nil {
			return Layer{}, fmt.Errorf("split pair %d: %w", i, err)
		}
		next.Taller = append(next.Taller, tallL, tallR)
		next.Shorter = append(next.Shorter, shortL, shortR)
	}
	return next, nil
}
