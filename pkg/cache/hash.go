package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a versioned cache key: prefix:hash(parts...). The
// parts are the inputs that determine a stage's output (root layer
// hash, depth, constants, denominator cap, format), so any change to
// them produces a different key instead of a stale hit.
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes the SHA-256 hex digest of data. It is the content hash
// used for serialized trees throughout the pipeline, so two structurally
// identical trees always share cache entries.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
