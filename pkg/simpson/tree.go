package simpson

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidDepth is returned by [Build] when the requested depth is
	// less than 1.
	ErrInvalidDepth = errors.New("tree depth must be at least 1")

	// ErrDepthTooLarge is returned by [Build] when the requested depth
	// exceeds [MaxDepth]. Column counts double per layer (2^(k-1) pairs at
	// layer k), so deep trees exhaust memory long before they become
	// interesting.
	ErrDepthTooLarge = errors.New("tree depth exceeds maximum")

	// ErrLayerSequence is returned by [FromLayers] when consecutive layers
	// do not double in size, which means they cannot have been produced by
	// pairwise splitting.
	ErrLayerSequence = errors.New("each layer must double its predecessor's column count")
)

// MaxDepth is the largest depth [Build] accepts. At depth 24 the final
// layer holds 2^23 column pairs, already beyond anything renderable.
const MaxDepth = 24

// Tree is a built Simpson tree: an ordered sequence of layers where layer
// k+1 derives deterministically from layer k. Trees are immutable once
// built and safe for concurrent reads.
type Tree struct {
	layers []Layer
	consts Constants
}

// Build constructs a Simpson tree of the given depth from a root layer
// using the reference split constants. See [Splitter.Build].
func Build(first Layer, depth int) (*Tree, error) {
	return DefaultSplitter().Build(first, depth)
}

// Build constructs a Simpson tree of the given depth. Layer 1 is the root
// layer as supplied (depth 1 returns it unchanged, no splitting applied);
// each further layer is derived from its predecessor with
// [Splitter.NextLayer].
//
// Returns ErrInvalidDepth if depth < 1, ErrDepthTooLarge if depth exceeds
// [MaxDepth], or the first validation error of the root layer.
func (s *Splitter) Build(first Layer, depth int) (*Tree, error) {
	if depth < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidDepth, depth)
	}
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w (got %d, max %d)", ErrDepthTooLarge, depth, MaxDepth)
	}
	if err := first.Validate(); err != nil {
		return nil, fmt.Errorf("root layer: %w", err)
	}

	layers := make([]Layer, 0, depth)
	layers = append(layers, first.Clone())
	for i := 1; i < depth; i++ {
		next, err := s.NextLayer(layers[i-1])
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
		layers = append(layers, next)
	}
	return &Tree{layers: layers, consts: s.consts}, nil
}

// FromLayers reassembles a tree from previously built layers, typically
// after deserialization. Every layer is validated and consecutive layers
// must double in size; the split formulas themselves are not re-checked, so
// this accepts any structurally sound layer sequence.
func FromLayers(layers []Layer, consts Constants) (*Tree, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w (no layers)", ErrInvalidDepth)
	}
	if len(layers) > MaxDepth {
		return nil, fmt.Errorf("%w (got %d, max %d)", ErrDepthTooLarge, len(layers), MaxDepth)
	}
	if err := consts.Validate(); err != nil {
		return nil, err
	}
	clones := make([]Layer, len(layers))
	for i, l := range layers {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
		if i > 0 && l.Len() != 2*layers[i-1].Len() {
			return nil, fmt.Errorf("layer %d: %w (%d after %d)",
				i+1, ErrLayerSequence, l.Len(), layers[i-1].Len())
		}
		clones[i] = l.Clone()
	}
	return &Tree{layers: clones, consts: consts}, nil
}

// Depth returns the number of layers in the tree.
func (t *Tree) Depth() int { return len(t.layers) }

// Constants returns the split constants the tree was built with.
func (t *Tree) Constants() Constants { return t.consts }

// Layer returns the layer with the given 1-based number and true, or a
// zero layer and false if the number is out of range.
func (t *Tree) Layer(k int) (Layer, bool) {
	if k < 1 || k > len(t.layers) {
		return Layer{}, false
	}
	return t.layers[k-1], true
}

// Layers returns all layers in order, layer 1 first. The returned slice
// must not be modified.
func (t *Tree) Layers() []Layer { return t.layers }

// Groups returns the (treatment, control) column groups of layer k.
//
// Splitting always emits the new taller group first, so the group holding
// the treatment population alternates: on odd layers the taller group is
// the treatment group, on even layers the shorter group is. Any consumer
// that assigns a stable identity to the two populations (reports, figures)
// must go through this accessor rather than reading Taller/Shorter
// directly.
func (t *Tree) Groups(k int) (treatment, control []Column, ok bool) {
	l, ok := t.Layer(k)
	if !ok {
		return nil, nil, false
	}
	if k%2 == 1 {
		return l.Taller, l.Shorter, true
	}
	return l.Shorter, l.Taller, true
}

// Labels returns the sub-population labels for layer k: all binary strings
// of length k-1 in lexicographic order, aligned index-for-index with the
// layer's column groups. Layer 1 has a single empty label.
//
//	Labels(3) == []string{"00", "01", "10", "11"}
func Labels(k int) []string {
	if k < 1 {
		return nil
	}
	n := 1 << (k - 1)
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		if k == 1 {
			labels[i] = ""
			continue
		}
		s := strconv.FormatInt(int64(i), 2)
		for len(s) < k-1 {
			s = "0" + s
		}
		labels[i] = s
	}
	return labels
}
