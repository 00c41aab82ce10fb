package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/paradoxlab/reversal/pkg/cache"
	"github.com/paradoxlab/reversal/pkg/census"
	"github.com/paradoxlab/reversal/pkg/observability"
	"github.com/paradoxlab/reversal/pkg/simpson"
	"github.com/paradoxlab/reversal/pkg/treeio"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete build → census → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		RunID:     uuid.New(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Build
	buildStart := time.Now()
	tree, buildHit, err := r.BuildWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Tree = tree
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.ColumnCount = columnCount(tree)
	result.CacheInfo.BuildHit = buildHit

	// Compute tree hash for cache keys and API responses
	if treeData, err := treeio.MarshalTree(tree); err == nil {
		result.TreeHash = cache.Hash(treeData)
	}

	r.Logger.Info("built tree",
		"depth", tree.Depth(),
		"columns", result.Stats.ColumnCount,
		"duration", result.Stats.BuildTime)

	// Stage 2: Census (only when a requested format needs it)
	if opts.NeedsCensus() {
		censusStart := time.Now()
		c, censusHit, err := r.CensusWithCacheInfo(ctx, tree, opts)
		if err != nil {
			return nil, err
		}
		result.Census = c
		result.Stats.CensusTime = time.Since(censusStart)
		result.CacheInfo.CensusHit = censusHit

		r.Logger.Info("denormalized tree",
			"population", c.Total.String(),
			"warnings", len(c.Warnings),
			"duration", result.Stats.CensusTime)
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, tree, result.Census, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// BuildWithCacheInfo builds the tree with caching and returns cache hit info.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, opts Options) (*simpson.Tree, bool, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from the root layer contents
	rootData, _ := json.Marshal(opts.Root)
	cacheKey := r.Keyer.TreeKey(cache.Hash(rootData), opts.TreeKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			tree, err := treeio.ReadTree(bytes.NewReader(data))
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "tree")
				return tree, true, nil // Cache hit
			}
		}
		observability.Cache().OnCacheMiss(ctx, "tree")
	}

	// Build
	tree, err := BuildTree(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := treeio.MarshalTree(tree); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TreeTTL) == nil {
			observability.Cache().OnCacheSet(ctx, "tree", len(data))
		}
	}

	return tree, false, nil // Cache miss
}

// Build is a convenience wrapper that calls BuildWithCacheInfo and discards the cache hit info.
func (r *Runner) Build(ctx context.Context, opts Options) (*simpson.Tree, error) {
	tree, _, err := r.BuildWithCacheInfo(ctx, opts)
	return tree, err
}

// CensusWithCacheInfo denormalizes the tree with caching and returns cache hit info.
func (r *Runner) CensusWithCacheInfo(ctx context.Context, tree *simpson.Tree, opts Options) (*census.Census, bool, error) {
	if err := opts.ValidateForCensus(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key
	treeData, _ := treeio.MarshalTree(tree)
	treeHash := cache.Hash(treeData)
	cacheKey := r.Keyer.CensusKey(treeHash, opts.CensusKeyOpts())

	// Try cache first
	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		var cached census.Census
		if json.Unmarshal(data, &cached) == nil {
			observability.Cache().OnCacheHit(ctx, "census")
			return &cached, true, nil // Cache hit
		}
		// If deserialization fails, fall through to recompute
	}
	observability.Cache().OnCacheMiss(ctx, "census")

	// Denormalize
	c, err := DenormalizeTree(ctx, tree, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := json.Marshal(c); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.CensusTTL) == nil {
			observability.Cache().OnCacheSet(ctx, "census", len(data))
		}
	}

	return c, false, nil // Cache miss
}

// Census is a convenience wrapper that calls CensusWithCacheInfo and discards the cache hit info.
func (r *Runner) Census(ctx context.Context, tree *simpson.Tree, opts Options) (*census.Census, error) {
	c, _, err := r.CensusWithCacheInfo(ctx, tree, opts)
	return c, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, tree *simpson.Tree, c *census.Census, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from the tree contents
	treeData, _ := treeio.MarshalTree(tree)
	treeHash := cache.Hash(treeData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(treeHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil // All artifacts from cache
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	// Render all formats
	rendered, err := RenderArtifacts(ctx, tree, c, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(treeHash, opts.ArtifactKeyOpts(format))
		if r.Cache.Set(ctx, cacheKey, data, cache.ArtifactTTL) == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, tree *simpson.Tree, c *census.Census, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, tree, c, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
