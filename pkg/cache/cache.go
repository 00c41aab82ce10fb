// Package cache provides pluggable caching for pipeline stages.
//
// The pipeline caches three kinds of values: built trees, denormalized
// censuses, and rendered artifacts. Each backend implements the [Cache]
// interface; key construction is factored into [Keyer] so that deployments
// can scope keys per tenant (see [ScopedKeyer]) without touching the
// backends.
//
// Available backends:
//   - [NewFileCache]: directory-backed, for CLI usage
//   - [NewRedisCache]: Redis-backed, for server deployments
//   - [NewMongoCache]: MongoDB-backed, for server deployments
//   - [NewNullCache]: no-op, disables caching
package cache

import (
	"context"
	"time"
)

// Cache stores byte payloads under string keys with optional expiry.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found;
	// a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any backend resources.
	Close() error
}

// Default TTLs per cached value kind. Trees and censuses are cheap to
// rebuild but deterministic, so they keep long TTLs; artifacts are
// larger and expire sooner.
const (
	TreeTTL     = 30 * 24 * time.Hour
	CensusTTL   = 30 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// TreeKeyOpts captures the inputs that determine a built tree.
type TreeKeyOpts struct {
	Depth     int       `json:"depth"`
	Constants [4]string `json:"constants"`
}

// CensusKeyOpts captures the inputs that determine a denormalized census.
type CensusKeyOpts struct {
	MaxDenominator int64 `json:"max_denominator"`
	Strict         bool  `json:"strict"`
}

// ArtifactKeyOpts captures the inputs that determine a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Layer    int    `json:"layer"`
	Detailed bool   `json:"detailed"`
}

// Keyer generates cache keys for the pipeline's cached value kinds.
type Keyer interface {
	// TreeKey generates a key for a built tree. rootHash identifies the
	// root layer contents.
	TreeKey(rootHash string, opts TreeKeyOpts) string

	// CensusKey generates a key for a denormalized census derived from
	// the tree identified by treeHash.
	CensusKey(treeHash string, opts CensusKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact derived from
	// the tree identified by treeHash.
	ArtifactKey(treeHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates hashed, versioned cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TreeKey generates a key for a built tree.
func (k *DefaultKeyer) TreeKey(rootHash string, opts TreeKeyOpts) string {
	return hashKey("tree:v1", rootHash, opts)
}

// CensusKey generates a key for a denormalized census.
func (k *DefaultKeyer) CensusKey(treeHash string, opts CensusKeyOpts) string {
	return hashKey("census:v1", treeHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:v1", treeHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
