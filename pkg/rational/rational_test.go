package rational

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func TestApproximateNiceFractions(t *testing.T) {
	tests := []struct {
		name    string
		x       float64
		maxDen  int64
		wantNum int64
		wantDen int64
	}{
		{"one half", 0.5, 1_000_000, 1, 2},
		{"three fifths", 0.6, 1_000_000, 3, 5},
		{"two fifths", 0.4, 1_000_000, 2, 5},
		{"one tenth", 0.1, 1000, 1, 10},
		{"one third float", 1.0 / 3.0, 1_000_000, 1, 3},
		{"pi with small cap", math.Pi, 10, 22, 7},
		{"pi with larger cap", math.Pi, 200, 355, 113},
		{"integer", 3.0, 100, 3, 1},
		{"zero", 0.0, 100, 0, 1},
		{"negative", -0.25, 100, -1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Approximate(tt.x, tt.maxDen)
			if err != nil {
				t.Fatalf("Approximate() error: %v", err)
			}
			want := big.NewRat(tt.wantNum, tt.wantDen)
			if got.Cmp(want) != 0 {
				t.Errorf("Approximate(%v, %d) = %s, want %s", tt.x, tt.maxDen, got, want)
			}
		})
	}
}

func TestApproximateRespectsCap(t *testing.T) {
	for _, x := range []float64{math.Pi, math.E, 0.123456789, 1.0 / 7.0} {
		for _, limit := range []int64{1, 10, 97, 1000, 1_000_000} {
			r, err := Approximate(x, limit)
			if err != nil {
				t.Fatalf("Approximate(%v, %d) error: %v", x, limit, err)
			}
			if r.Denom().Cmp(big.NewInt(limit)) > 0 {
				t.Errorf("Approximate(%v, %d) denominator %s exceeds cap", x, limit, r.Denom())
			}
		}
	}
}

func TestApproximateIsBest(t *testing.T) {
	// No fraction with denominator <= 10 is closer to pi than 22/7.
	r, err := Approximate(math.Pi, 10)
	if err != nil {
		t.Fatalf("Approximate() error: %v", err)
	}
	best := math.Abs(math.Pi - float64(r.Num().Int64())/float64(r.Denom().Int64()))
	for den := int64(1); den <= 10; den++ {
		num := int64(math.Round(math.Pi * float64(den)))
		diff := math.Abs(math.Pi - float64(num)/float64(den))
		if diff < best-1e-15 {
			t.Errorf("%d/%d closer to pi than %s", num, den, r)
		}
	}
}

func TestApproximateErrors(t *testing.T) {
	if _, err := Approximate(math.NaN(), 100); !errors.Is(err, ErrNotFinite) {
		t.Errorf("NaN: error = %v, want %v", err, ErrNotFinite)
	}
	if _, err := Approximate(math.Inf(1), 100); !errors.Is(err, ErrNotFinite) {
		t.Errorf("Inf: error = %v, want %v", err, ErrNotFinite)
	}
	if _, err := Approximate(0.5, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("zero cap: error = %v, want %v", err, ErrInvalidLimit)
	}
}

func TestLimitDenominatorPassthrough(t *testing.T) {
	r := big.NewRat(3, 7)
	got := LimitDenominator(r, big.NewInt(100))
	if got != r {
		t.Error("LimitDenominator should return the input when already under the cap")
	}
}

func TestLCM(t *testing.T) {
	tests := []struct {
		name string
		nums []int64
		want int64
	}{
		{"empty", nil, 1},
		{"single", []int64{6}, 6},
		{"coprime", []int64{3, 5}, 15},
		{"shared factor", []int64{4, 6}, 12},
		{"many", []int64{2, 5, 10, 4}, 20},
		{"with one", []int64{1, 7}, 7},
		{"denominator-like", []int64{2, 5, 20, 50}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nums := make([]*big.Int, len(tt.nums))
			for i, n := range tt.nums {
				nums[i] = big.NewInt(n)
			}
			got := LCM(nums...)
			if got.Int64() != tt.want {
				t.Errorf("LCM(%v) = %s, want %d", tt.nums, got, tt.want)
			}
		})
	}
}
