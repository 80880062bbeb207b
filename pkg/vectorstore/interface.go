// Package vectorstore persists column embeddings between integration runs so
// a re-run over an unchanged table can skip L0 entirely: it fetches the
// previous run's vectors by table/column key instead of re-sampling and
// re-encoding.
package vectorstore

import (
	"context"
	"errors"
)

// Common errors returned by store backends.
var (
	ErrNotFound         = errors.New("vectorstore: vector not found")
	ErrConnectionFailed = errors.New("vectorstore: connection to backend failed")
)

// ColumnVector is one column's embedding, addressed by its source table and
// column name rather than by an integration id, since integration ids are
// reassigned every run and are not stable cache keys across runs.
type ColumnVector struct {
	Table  string
	Column string
	Values []float32

	// ContentHash is the cache.HashSample of the column's sample at encode
	// time, stored alongside the vector so a fetch can detect that the
	// underlying column content changed and the cached vector is stale.
	ContentHash string
}

// Store defines the interface for persisting and retrieving column
// embeddings in an external vector database.
type Store interface {
	// Upsert writes a batch of column vectors, replacing any existing
	// vector for the same table/column key.
	Upsert(ctx context.Context, vectors []ColumnVector) error

	// Fetch retrieves the stored vector for one table/column key. Returns
	// ErrNotFound if no vector has been stored for that key.
	Fetch(ctx context.Context, table, column string) (ColumnVector, error)

	// Stats returns current operation counters.
	Stats() Stats

	// Close releases any resources held by the store.
	Close() error
}

// Stats tracks store operation metrics.
type Stats struct {
	UpsertedVectors int64
	FailedVectors   int64
	RetryCount      int64
	BatchCount      int64
}

// Config holds configuration common to every backend.
type Config struct {
	// Host is the backend endpoint.
	Host string

	// APIKey authenticates against the backend.
	APIKey string

	// Namespace scopes vectors to one logical database, so the same
	// (table, column) key in two different integration projects never
	// collides.
	Namespace string

	// MaxRetries bounds the retry loop on transient upsert failures.
	MaxRetries int

	// InitialBackoff and MaxBackoff bound the exponential backoff between
	// retries.
	InitialBackoff int // milliseconds
	MaxBackoff     int // milliseconds
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     5,
		InitialBackoff: 100,
		MaxBackoff:     30000,
	}
}

// vectorKey builds the stable per-column identifier used as both the
// backend's point id and the lookup key on Fetch.
func vectorKey(table, column string) string {
	return table + "::" + column
}
