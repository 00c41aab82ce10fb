// Package pipeline provides the core reversal pipeline.
//
// This package implements the complete build → census → render pipeline that
// can be used by CLI, API, and worker components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: Expand the root layer into a full reversal tree
//  2. Census: Denormalize the tree into exact integer population counts
//  3. Render: Generate output in various formats (SVG, DOT, JSON, TXT)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Root:    &root,
//	    Depth:   4,
//	    Formats: []string{"svg", "txt"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Build only
//	tree, err := runner.Build(ctx, opts)
//
//	// Census with existing tree
//	c, err := runner.Census(ctx, tree, opts)
//
//	// Render with existing tree and census
//	artifacts, err := runner.Render(ctx, tree, c, opts)
package pipeline

import (
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/paradoxlab/reversal/pkg/cache"
	"github.com/paradoxlab/reversal/pkg/census"
	apperrors "github.com/paradoxlab/reversal/pkg/errors"
	"github.com/paradoxlab/reversal/pkg/rational"
	"github.com/paradoxlab/reversal/pkg/simpson"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

const (
	// DefaultDepth is the default number of layers to generate. Deep trees
	// double in size per layer, so this stays well below [simpson.MaxDepth]
	// for better UX; API users can override it explicitly.
	DefaultDepth = 4

	// DefaultFigureWidth is the default figure width in pixels.
	DefaultFigureWidth = 640.0

	// DefaultFigureHeight is the default figure height in pixels.
	DefaultFigureHeight = 480.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatTXT  = "txt"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatDOT:  true,
	FormatJSON: true,
	FormatTXT:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the reversal pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Build options
	Root      *simpson.Layer     `json:"root,omitempty"`
	Depth     int                `json:"depth,omitempty"`
	Constants *simpson.Constants `json:"constants,omitempty"`
	Refresh   bool               `json:"refresh,omitempty"`

	// Census options
	MaxDenominator int64 `json:"max_denominator,omitempty"`
	Strict         bool  `json:"strict,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Layer    int      `json:"layer,omitempty"`    // layer to draw in the SVG figure; 0 = deepest
	Detailed bool     `json:"detailed,omitempty"` // include group rates in DOT node labels

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this pipeline execution.
	RunID uuid.UUID

	// Tree is the built reversal tree.
	Tree *simpson.Tree

	// TreeHash is the content hash of the serialized tree.
	TreeHash string

	// Census is the denormalized population (nil when no format needs it
	// and census computation was skipped).
	Census *census.Census

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ColumnCount int
	BuildTime   time.Duration
	CensusTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // Whether the tree came from cache
	CensusHit bool // Whether the census came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperrors.New(apperrors.CodeInvalidFormat,
			"invalid format: %q (must be one of: svg, dot, json, txt)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	o.SetCensusDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild checks required fields for tree building.
func (o *Options) ValidateForBuild() error {
	if o.Root == nil {
		return apperrors.New(apperrors.CodeInvalidLayer, "root layer is required")
	}
	if err := o.Root.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidLayer, "root layer invalid")
	}

	if o.Depth == 0 {
		o.Depth = DefaultDepth
	}
	if o.Depth < 1 || o.Depth > simpson.MaxDepth {
		return apperrors.New(apperrors.CodeInvalidDepth,
			"depth %d outside range [1, %d]", o.Depth, simpson.MaxDepth)
	}

	if o.Constants != nil {
		if err := o.Constants.Validate(); err != nil {
			return apperrors.Wrap(err, apperrors.CodeInvalidConstants, "constants invalid")
		}
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetCensusDefaults sets default values for denormalization.
func (o *Options) SetCensusDefaults() {
	if o.MaxDenominator == 0 {
		o.MaxDenominator = rational.DefaultMaxDenominator
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForCensus validates and sets defaults for denormalization.
func (o *Options) ValidateForCensus() error {
	o.SetCensusDefaults()
	if o.MaxDenominator < 1 {
		return apperrors.New(apperrors.CodeInvalidScenario,
			"max denominator must be positive, got %d", o.MaxDenominator)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Layer < 0 {
		return apperrors.New(apperrors.CodeInvalidDepth, "layer must not be negative, got %d", o.Layer)
	}
	return nil
}

// SplitConstants returns the effective splitter constants.
func (o *Options) SplitConstants() simpson.Constants {
	if o.Constants != nil {
		return *o.Constants
	}
	return simpson.DefaultConstants()
}

// NeedsCensus reports whether any requested format requires the census stage.
func (o *Options) NeedsCensus() bool {
	for _, f := range o.Formats {
		if f == FormatTXT {
			return true
		}
	}
	return false
}

// TreeKeyOpts returns cache key options for tree building.
func (o *Options) TreeKeyOpts() cache.TreeKeyOpts {
	c := o.SplitConstants()
	return cache.TreeKeyOpts{
		Depth: o.Depth,
		Constants: [4]string{
			strconv.FormatFloat(c.A, 'g', -1, 64),
			strconv.FormatFloat(c.B, 'g', -1, 64),
			strconv.FormatFloat(c.C, 'g', -1, 64),
			strconv.FormatFloat(c.D, 'g', -1, 64),
		},
	}
}

// CensusKeyOpts returns cache key options for denormalization.
func (o *Options) CensusKeyOpts() cache.CensusKeyOpts {
	return cache.CensusKeyOpts{
		MaxDenominator: o.MaxDenominator,
		Strict:         o.Strict,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	layer := o.Layer
	if format == FormatSVG && layer == 0 {
		layer = o.Depth
	}
	return cache.ArtifactKeyOpts{
		Format:   format,
		Layer:    layer,
		Detailed: o.Detailed,
	}
}
