package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/galindo-legaria/alite/pkg/types"
)

// HashValues creates a SHA-256 hash of a sequence of strings, in the order
// given.
func HashValues(values []string) string {
	h := sha256.New()
	for _, v := range values {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// HashSample hashes a column's sampled values order-independently, so
// re-sampling the same underlying column content with a different shuffle
// seed still lands on the same cache key.
func HashSample(values []string) string {
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return HashValues(sorted)
}

// CacheKeyForColumn generates an embedding-cache key for a column's sampled
// values, scoped to the owning table and column name so identically-named
// columns in different source tables never collide.
func CacheKeyForColumn(prefix, tableName, columnName string, sample []types.Value) string {
	rendered := make([]string, 0, len(sample))
	for _, v := range sample {
		if v.IsNullLike() {
			continue
		}
		rendered = append(rendered, v.String())
	}
	return prefix + ":column:" + tableName + "." + columnName + ":" + HashSample(rendered)
}
