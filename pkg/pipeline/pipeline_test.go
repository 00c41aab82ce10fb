package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/paradoxlab/reversal/pkg/cache"
	apperrors "github.com/paradoxlab/reversal/pkg/errors"
	"github.com/paradoxlab/reversal/pkg/rational"
	"github.com/paradoxlab/reversal/pkg/render/figure"
	"github.com/paradoxlab/reversal/pkg/simpson"
)

func testRoot() *simpson.Layer {
	return &simpson.Layer{
		Taller:  []simpson.Column{{Height: 0.6, Width: 0.5}},
		Shorter: []simpson.Column{{Height: 0.4, Width: 0.5}},
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Root: testRoot()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("validate error: %v", err)
	}

	if opts.Depth != DefaultDepth {
		t.Errorf("Depth = %d, want %d", opts.Depth, DefaultDepth)
	}
	if opts.MaxDenominator != rational.DefaultMaxDenominator {
		t.Errorf("MaxDenominator = %d", opts.MaxDenominator)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default")
	}

	// Idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second validate error: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code apperrors.Code
	}{
		{
			name: "missing root",
			opts: Options{},
			code: apperrors.CodeInvalidLayer,
		},
		{
			name: "invalid root",
			opts: Options{Root: &simpson.Layer{
				Taller:  []simpson.Column{{Height: 0.3, Width: 0.5}},
				Shorter: []simpson.Column{{Height: 0.5, Width: 0.5}},
			}},
			code: apperrors.CodeInvalidLayer,
		},
		{
			name: "depth too large",
			opts: Options{Root: testRoot(), Depth: simpson.MaxDepth + 1},
			code: apperrors.CodeInvalidDepth,
		},
		{
			name: "negative depth",
			opts: Options{Root: testRoot(), Depth: -2},
			code: apperrors.CodeInvalidDepth,
		},
		{
			name: "bad constants",
			opts: Options{Root: testRoot(), Constants: &simpson.Constants{A: 0.6, B: 0.4, C: 0.6, D: 0.4}},
			code: apperrors.CodeInvalidConstants,
		},
		{
			name: "unknown format",
			opts: Options{Root: testRoot(), Formats: []string{"gif"}},
			code: apperrors.CodeInvalidFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperrors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (err: %v)", apperrors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{FormatSVG, FormatDOT, FormatJSON, FormatTXT} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	if err := ValidateFormat("png"); err == nil {
		t.Error("png is not a pipeline format")
	}
}

func TestNeedsCensus(t *testing.T) {
	opts := Options{Formats: []string{FormatSVG, FormatDOT}}
	if opts.NeedsCensus() {
		t.Error("svg and dot do not need the census")
	}
	opts.Formats = append(opts.Formats, FormatTXT)
	if !opts.NeedsCensus() {
		t.Error("txt needs the census")
	}
}

func TestExecuteAllFormats(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Root:    testRoot(),
		Depth:   3,
		Formats: []string{FormatSVG, FormatDOT, FormatJSON, FormatTXT},
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if result.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("RunID should be set")
	}
	if result.Tree == nil || result.Tree.Depth() != 3 {
		t.Fatalf("tree missing or wrong depth")
	}
	if result.TreeHash == "" {
		t.Error("TreeHash should be set")
	}
	if result.Census == nil {
		t.Fatal("census should be computed for txt format")
	}
	if result.Stats.ColumnCount != 2+4+8 {
		t.Errorf("ColumnCount = %d, want 14", result.Stats.ColumnCount)
	}

	for _, format := range []string{FormatSVG, FormatDOT, FormatJSON, FormatTXT} {
		if len(result.Artifacts[format]) == 0 {
			t.Errorf("artifact %s is empty", format)
		}
	}
	if !strings.Contains(string(result.Artifacts[FormatTXT]), "***LAYER 1***") {
		t.Error("txt artifact should contain the layer report")
	}
	if !strings.HasPrefix(string(result.Artifacts[FormatDOT]), "digraph G {") {
		t.Error("dot artifact should be DOT source")
	}
}

func TestExecuteSkipsCensusWhenUnneeded(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Root:    testRoot(),
		Depth:   2,
		Formats: []string{FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.Census != nil {
		t.Error("census should be skipped when no format needs it")
	}
}

func TestExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := Options{
		Root:    testRoot(),
		Depth:   3,
		Formats: []string{FormatTXT},
	}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute error: %v", err)
	}
	if first.CacheInfo.BuildHit || first.CacheInfo.CensusHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss everywhere: %+v", first.CacheInfo)
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute error: %v", err)
	}
	if !second.CacheInfo.BuildHit || !second.CacheInfo.CensusHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit everywhere: %+v", second.CacheInfo)
	}

	// Cached and fresh outputs agree
	if string(first.Artifacts[FormatTXT]) != string(second.Artifacts[FormatTXT]) {
		t.Error("cached artifact differs from fresh artifact")
	}
	if first.TreeHash != second.TreeHash {
		t.Error("tree hash should be stable across runs")
	}
	if first.Census.Total.Cmp(second.Census.Total) != 0 {
		t.Error("cached census total differs")
	}

	// Refresh bypasses the build cache
	opts.Refresh = true
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("third Execute error: %v", err)
	}
	if third.CacheInfo.BuildHit {
		t.Error("refresh should bypass the tree cache")
	}
}

func TestRenderLayerSelection(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	ctx := context.Background()
	tree, err := runner.Build(ctx, Options{Root: testRoot(), Depth: 4})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	// An explicit layer out of range fails
	_, err = runner.Render(ctx, tree, nil, Options{
		Root:    testRoot(),
		Depth:   4,
		Formats: []string{FormatSVG},
		Layer:   9,
	})
	if !apperrors.Is(err, apperrors.CodeInvalidDepth) {
		t.Errorf("out-of-range layer should fail with INVALID_DEPTH, got %v", err)
	}

	// Layer 0 draws the deepest layer
	artifacts, err := runner.Render(ctx, tree, nil, Options{
		Root:    testRoot(),
		Depth:   4,
		Formats: []string{FormatSVG},
	})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(string(artifacts[FormatSVG]), "layer 4") {
		t.Error("default figure should be the deepest layer")
	}
}

func TestRenderFigureEvenLayerGroupSwap(t *testing.T) {
	ctx := context.Background()
	tree, err := BuildTree(ctx, Options{Root: testRoot(), Depth: 2})
	if err != nil {
		t.Fatalf("BuildTree error: %v", err)
	}

	artifacts, err := RenderArtifacts(ctx, tree, nil, Options{
		Root:    testRoot(),
		Depth:   2,
		Formats: []string{FormatSVG},
		Layer:   2,
	})
	if err != nil {
		t.Fatalf("RenderArtifacts error: %v", err)
	}

	// On layer 2 the treatment population lives in the shorter group, so
	// the figure must draw the groups in swapped order to keep treatment
	// on the left and the crosshatch on control.
	treatment, control, ok := tree.Groups(2)
	if !ok {
		t.Fatal("layer 2 should exist")
	}
	want := figure.RenderSVG(treatment, control,
		figure.WithSize(DefaultFigureWidth, DefaultFigureHeight),
		figure.WithTitle("layer 2"))
	if !bytes.Equal(artifacts[FormatSVG], want) {
		t.Error("figure should follow the treatment/control group order")
	}

	tallerFirst := figure.RenderSVG(control, treatment,
		figure.WithSize(DefaultFigureWidth, DefaultFigureHeight),
		figure.WithTitle("layer 2"))
	if bytes.Equal(artifacts[FormatSVG], tallerFirst) {
		t.Error("even-layer figure must not be drawn taller-group-first")
	}
}

func TestBuildContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildTree(ctx, Options{Root: testRoot(), Depth: 3})
	if err != context.Canceled {
		t.Errorf("cancelled context should abort the build, got %v", err)
	}
}
