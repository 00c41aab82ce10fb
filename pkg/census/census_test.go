package census

import (
	"errors"
	"math/big"
	"testing"

	"github.com/paradoxlab/reversal/pkg/simpson"
)

func testTree(t *testing.T, depth int) *simpson.Tree {
	t.Helper()
	root := simpson.Layer{
		Taller:  []simpson.Column{{Height: 0.6, Width: 0.5}},
		Shorter: []simpson.Column{{Height: 0.4, Width: 0.5}},
	}
	tree, err := simpson.Build(root, depth)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return tree
}

func TestDenormalizeSmallestTotal(t *testing.T) {
	c, err := Denormalize(testTree(t, 1), Options{})
	if err != nil {
		t.Fatalf("Denormalize() error: %v", err)
	}

	// Heights 3/5 and 2/5, widths 1/2 and 1/2: the smallest N making
	// 0.6*0.5*N and 0.4*0.5*N integers is 10.
	if c.Total.Cmp(big.NewInt(10)) != 0 {
		t.Errorf("Total = %s, want 10", c.Total)
	}
	if c.HeightMultiplier.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("HeightMultiplier = %s, want 5", c.HeightMultiplier)
	}
	if c.WidthMultiplier.Cmp(big.NewInt(2)) != 0 {
		t.Errorf("WidthMultiplier = %s, want 2", c.WidthMultiplier)
	}

	layer := c.Layers[0]
	if got := layer.Treatment[0]; got.Recovered.Int64() != 3 || got.Size.Int64() != 5 {
		t.Errorf("treatment = %s/%s, want 3/5", got.Recovered, got.Size)
	}
	if got := layer.Control[0]; got.Recovered.Int64() != 2 || got.Size.Int64() != 5 {
		t.Errorf("control = %s/%s, want 2/5", got.Recovered, got.Size)
	}
}

func TestDenormalizeSizesSumToTotal(t *testing.T) {
	c, err := Denormalize(testTree(t, 4), Options{})
	if err != nil {
		t.Fatalf("Denormalize() error: %v", err)
	}

	for _, layer := range c.Layers {
		sum := big.NewInt(0)
		for _, count := range layer.Treatment {
			sum.Add(sum, count.Size)
		}
		for _, count := range layer.Control {
			sum.Add(sum, count.Size)
		}
		if sum.Cmp(c.Total) != 0 {
			t.Errorf("layer %d: group sizes sum to %s, want %s", layer.Number, sum, c.Total)
		}
	}
}

func TestDenormalizeLayerShape(t *testing.T) {
	c, err := Denormalize(testTree(t, 3), Options{})
	if err != nil {
		t.Fatalf("Denormalize() error: %v", err)
	}

	if len(c.Layers) != 3 {
		t.Fatalf("len(Layers) = %d, want 3", len(c.Layers))
	}
	wantLabels := [][]string{
		{""},
		{"0", "1"},
		{"00", "01", "10", "11"},
	}
	for i, layer := range c.Layers {
		if layer.Number != i+1 {
			t.Errorf("layer %d: Number = %d", i, layer.Number)
		}
		if len(layer.Treatment) != len(wantLabels[i]) || len(layer.Control) != len(wantLabels[i]) {
			t.Fatalf("layer %d: got %d/%d counts, want %d",
				layer.Number, len(layer.Treatment), len(layer.Control), len(wantLabels[i]))
		}
		for j, want := range wantLabels[i] {
			if layer.Treatment[j].Label != want || layer.Control[j].Label != want {
				t.Errorf("layer %d label %d = %q/%q, want %q",
					layer.Number, j, layer.Treatment[j].Label, layer.Control[j].Label, want)
			}
		}
	}
}

func TestDenormalizeReversalInCounts(t *testing.T) {
	c, err := Denormalize(testTree(t, 2), Options{})
	if err != nil {
		t.Fatalf("Denormalize() error: %v", err)
	}

	// Layer 1: treatment rate above control overall.
	l1 := c.Layers[0]
	if !rateAbove(l1.Treatment[0], l1.Control[0]) {
		t.Error("layer 1: treatment should recover at the higher rate")
	}

	// Layer 2: in every sub-population the ordering flips.
	l2 := c.Layers[1]
	for i := range l2.Treatment {
		if rateAbove(l2.Treatment[i], l2.Control[i]) {
			t.Errorf("layer 2 sub-population %q: treatment should recover at the lower rate",
				l2.Treatment[i].Label)
		}
	}
}

// rateAbove reports whether a's recovery rate exceeds b's, comparing
// a.Recovered/a.Size > b.Recovered/b.Size exactly via cross-multiplication.
func rateAbove(a, b Count) bool {
	left := new(big.Int).Mul(a.Recovered, b.Size)
	right := new(big.Int).Mul(b.Recovered, a.Size)
	return left.Cmp(right) > 0
}

func TestDenormalizeStrictPrecisionLoss(t *testing.T) {
	root := simpson.Layer{
		Taller:  []simpson.Column{{Height: 0.123456789, Width: 0.5}},
		Shorter: []simpson.Column{{Height: 0.0987654321, Width: 0.5}},
	}
	tree, err := simpson.Build(root, 1)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	// A cap of 10 cannot represent these heights within tolerance.
	_, err = Denormalize(tree, Options{MaxDenominator: 10, Strict: true})
	if !errors.Is(err, ErrPrecisionLoss) {
		t.Errorf("strict Denormalize() error = %v, want %v", err, ErrPrecisionLoss)
	}

	// Lenient mode records the loss instead.
	c, err := Denormalize(tree, Options{MaxDenominator: 10})
	if err != nil {
		t.Fatalf("lenient Denormalize() error: %v", err)
	}
	if len(c.Warnings) == 0 {
		t.Error("lenient Denormalize() should record precision-loss warnings")
	}
}

func TestDenormalizeNilTree(t *testing.T) {
	if _, err := Denormalize(nil, Options{}); !errors.Is(err, ErrNilTree) {
		t.Errorf("Denormalize(nil) error = %v, want %v", err, ErrNilTree)
	}
}

func TestDenormalizeDeterminism(t *testing.T) {
	c1, err := Denormalize(testTree(t, 3), Options{})
	if err != nil {
		t.Fatalf("Denormalize() error: %v", err)
	}
	c2, err := Denormalize(testTree(t, 3), Options{})
	if err != nil {
		t.Fatalf("Denormalize() error: %v", err)
	}
	if c1.Report() != c2.Report() {
		t.Error("two denormalizations of the same tree differ")
	}
}
