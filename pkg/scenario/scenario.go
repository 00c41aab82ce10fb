// Package scenario loads reversal run configurations from TOML files.
//
// A scenario bundles everything a run needs: the root layer, the tree
// depth, the splitter constants, and denormalization options. Example:
//
//	name = "classic"
//	depth = 4
//
//	[constants]
//	a = 0.45
//	b = 0.55
//	c = 0.45
//	d = 0.55
//
//	[[root.taller]]
//	height = 0.6
//	width = 0.5
//
//	[[root.shorter]]
//	height = 0.4
//	width = 0.5
//
//	[census]
//	max_denominator = 1000000
//	strict = false
//
// Omitted sections fall back to defaults: the splitter constants default
// to [simpson.DefaultConstants] and the denominator cap to
// [rational.DefaultMaxDenominator].
package scenario

import (
	"os"

	"github.com/BurntSushi/toml"

	apperrors "github.com/paradoxlab/reversal/pkg/errors"
	"github.com/paradoxlab/reversal/pkg/rational"
	"github.com/paradoxlab/reversal/pkg/simpson"
)

// DefaultDepth is the tree depth used when a scenario omits one.
const DefaultDepth = 4

// Scenario is a complete run configuration.
type Scenario struct {
	Name      string         `toml:"name"`
	Depth     int            `toml:"depth"`
	Constants *ConstantsSpec `toml:"constants"`
	Root      RootSpec       `toml:"root"`
	Census    CensusSpec     `toml:"census"`
}

// ConstantsSpec mirrors [simpson.Constants] in TOML form.
type ConstantsSpec struct {
	A float64 `toml:"a"`
	B float64 `toml:"b"`
	C float64 `toml:"c"`
	D float64 `toml:"d"`
}

// RootSpec holds the root layer's two groups.
type RootSpec struct {
	Taller  []ColumnSpec `toml:"taller"`
	Shorter []ColumnSpec `toml:"shorter"`
}

// ColumnSpec mirrors [simpson.Column] in TOML form.
type ColumnSpec struct {
	Height float64 `toml:"height"`
	Width  float64 `toml:"width"`
}

// CensusSpec holds denormalization options.
type CensusSpec struct {
	MaxDenominator int64 `toml:"max_denominator"`
	Strict         bool  `toml:"strict"`
}

// Default returns the built-in scenario: the classic kidney-stone style
// example with a 60% versus 40% root split.
func Default() *Scenario {
	return &Scenario{
		Name:  "default",
		Depth: DefaultDepth,
		Root: RootSpec{
			Taller:  []ColumnSpec{{Height: 0.6, Width: 0.5}},
			Shorter: []ColumnSpec{{Height: 0.4, Width: 0.5}},
		},
		Census: CensusSpec{MaxDenominator: rational.DefaultMaxDenominator},
	}
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, apperrors.Wrap(err, apperrors.CodeFileNotFound, "scenario file %s not found", path)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "read scenario file %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates scenario TOML.
func Parse(data []byte) (*Scenario, error) {
	s := Default()
	s.Name = ""
	s.Depth = 0
	s.Root = RootSpec{}
	s.Census = CensusSpec{}

	if err := toml.Unmarshal(data, s); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidScenario, "decode scenario")
	}
	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scenario) applyDefaults() {
	if s.Depth == 0 {
		s.Depth = DefaultDepth
	}
	if s.Census.MaxDenominator == 0 {
		s.Census.MaxDenominator = rational.DefaultMaxDenominator
	}
}

// Validate checks the scenario by building its domain values.
func (s *Scenario) Validate() error {
	if s.Depth < 1 || s.Depth > simpson.MaxDepth {
		return apperrors.New(apperrors.CodeInvalidScenario,
			"depth %d outside range [1, %d]", s.Depth, simpson.MaxDepth)
	}
	if len(s.Root.Taller) == 0 || len(s.Root.Shorter) == 0 {
		return apperrors.New(apperrors.CodeInvalidScenario, "root layer needs both groups")
	}

	layer, err := s.RootLayer()
	if err != nil {
		return err
	}
	if err := layer.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidScenario, "root layer invalid")
	}

	constants, err := s.SplitConstants()
	if err != nil {
		return err
	}
	if err := constants.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidScenario, "constants invalid")
	}

	if s.Census.MaxDenominator < 1 {
		return apperrors.New(apperrors.CodeInvalidScenario,
			"max_denominator must be positive, got %d", s.Census.MaxDenominator)
	}
	return nil
}

// RootLayer converts the root spec to a domain layer.
func (s *Scenario) RootLayer() (simpson.Layer, error) {
	layer := simpson.Layer{
		Taller:  make([]simpson.Column, len(s.Root.Taller)),
		Shorter: make([]simpson.Column, len(s.Root.Shorter)),
	}
	for i, c := range s.Root.Taller {
		layer.Taller[i] = simpson.Column{Height: c.Height, Width: c.Width}
	}
	for i, c := range s.Root.Shorter {
		layer.Shorter[i] = simpson.Column{Height: c.Height, Width: c.Width}
	}
	return layer, nil
}

// SplitConstants converts the constants spec to domain constants,
// falling back to [simpson.DefaultConstants] when omitted.
func (s *Scenario) SplitConstants() (simpson.Constants, error) {
	if s.Constants == nil {
		return simpson.DefaultConstants(), nil
	}
	return simpson.Constants{
		A: s.Constants.A,
		B: s.Constants.B,
		C: s.Constants.C,
		D: s.Constants.D,
	}, nil
}
