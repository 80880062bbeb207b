// Package column implements the L0 embedding adapter: turning a table's
// columns into fixed-width vectors the clusterer can compare.
package column

import (
	"context"
	"math/rand"

	"github.com/galindo-legaria/alite/pkg/cache"
	"github.com/galindo-legaria/alite/pkg/embedding"
	"github.com/galindo-legaria/alite/pkg/types"
	"github.com/galindo-legaria/alite/pkg/vecmath"
	"github.com/galindo-legaria/alite/pkg/vectorstore"
)

// DefaultSampleSize caps how many non-null values from a column get encoded.
// Mirrors RelationalTable.InitializeColumnEmbeddings's sample-up-to-100 rule.
const DefaultSampleSize = 100

// cachePrefix scopes every column-embedding cache key this package writes,
// so alite's entries never collide with another tenant of the same cache
// backend.
const cachePrefix = "alite"

// Sampler draws a bounded sample of a column's values and reduces them to a
// single embedding vector via an injected encoder.
type Sampler struct {
	SampleSize int
	rng        *rand.Rand

	// Cache, when set, is consulted before re-encoding a column and
	// populated after, keyed by a content hash of the column's sample
	// (cache.CacheKeyForColumn) so a re-run over an unchanged column skips
	// the encoder entirely.
	Cache cache.Cache

	// Store, when set, persists column embeddings across process
	// lifetimes, keyed by (table, column) rather than by integration id.
	// Checked before Cache; its ContentHash guards against serving a stale
	// vector for a column whose content has since changed.
	Store vectorstore.Store
}

// NewSampler builds a Sampler. The seed is used as given (0 included), so
// the same seed always reproduces the same sampling.
func NewSampler(sampleSize int, seed int64) *Sampler {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	src := rand.NewSource(seed)
	return &Sampler{SampleSize: sampleSize, rng: rand.New(src)}
}

// Embed computes one vector per column in t, in t.SortedColumns order. For a
// column with at least one non-null value, the vector is the mean of the
// encoder's output over a random sample of up to SampleSize such values
// (original_source/table.py samples non-null values preferentially, since a
// column of mostly-null cells still needs a representative embedding).
// Columns with no non-null value at all get the mean of a zero vector and a
// uniform [-1, 1) noise vector, so that two wholly-empty columns from
// different tables don't land on an identical degenerate point and force a
// spurious merge.
//
// When Store or Cache is set, a column whose sampled content hasn't changed
// since the last time it was embedded skips the encoder: Store is checked
// first (its ContentHash must match this run's sample), then Cache, falling
// back to the encoder only on a miss in both.
func (s *Sampler) Embed(ctx context.Context, t *types.Table, enc embedding.Provider) (map[types.IntegrationID][]float32, error) {
	out := make(map[types.IntegrationID][]float32, len(t.Columns))
	dim := enc.Dimension()

	for _, col := range t.SortedColumns() {
		sample := s.sampleColumn(t, col)
		if len(sample) == 0 {
			out[col] = s.fallbackVector(dim)
			continue
		}

		columnName := t.ColumnNames[col]
		rendered := make([]string, len(sample))
		for i, v := range sample {
			rendered[i] = v.String()
		}
		contentHash := cache.HashSample(rendered)

		if s.Store != nil {
			if cv, err := s.Store.Fetch(ctx, t.Name, columnName); err == nil && cv.ContentHash == contentHash {
				out[col] = cv.Values
				continue
			}
		}

		var cacheKey string
		if s.Cache != nil {
			cacheKey = cache.CacheKeyForColumn(cachePrefix, t.Name, columnName, sample)
			if cached, err := s.Cache.Get(ctx, cacheKey); err == nil {
				vec := cache.DecodeVector(cached)
				out[col] = vec
				s.persist(ctx, t.Name, columnName, vec, contentHash)
				continue
			}
		}

		vecs, err := enc.EmbedBatch(ctx, rendered)
		if err != nil {
			return nil, err
		}

		mean := make([]float32, dim)
		vecmath.MeanVector(mean, vecs)
		out[col] = mean

		if s.Cache != nil {
			_ = s.Cache.Set(ctx, cacheKey, cache.EncodeVector(mean), 0)
		}
		s.persist(ctx, t.Name, columnName, mean, contentHash)
	}

	return out, nil
}

// persist upserts a freshly computed or cache-recovered vector into Store,
// so a vector served only from the local Cache still lands in long-lived
// storage for the next process.
func (s *Sampler) persist(ctx context.Context, table, column string, values []float32, contentHash string) {
	if s.Store == nil {
		return
	}
	_ = s.Store.Upsert(ctx, []vectorstore.ColumnVector{{
		Table:       table,
		Column:      column,
		Values:      values,
		ContentHash: contentHash,
	}})
}

func (s *Sampler) sampleColumn(t *types.Table, col types.IntegrationID) []types.Value {
	var pool []types.Value
	for _, row := range t.Rows {
		v, ok := row[col]
		if !ok || v.IsNullLike() {
			continue
		}
		pool = append(pool, v)
	}

	if len(pool) <= s.SampleSize {
		return pool
	}

	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:s.SampleSize]
}

func (s *Sampler) fallbackVector(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(s.rng.Float64()*2-1) / 2
	}
	return v
}
