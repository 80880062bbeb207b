// Package assign implements the L2 integration-id assigner: it wires the
// embedding adapter, the constrained clusterer, and a silhouette scorer
// together, tries every candidate cluster count, and keeps the best one.
package assign

import (
	"context"
	"errors"
	"fmt"

	"github.com/galindo-legaria/alite/pkg/cache"
	"github.com/galindo-legaria/alite/pkg/cluster"
	"github.com/galindo-legaria/alite/pkg/column"
	"github.com/galindo-legaria/alite/pkg/embedding"
	"github.com/galindo-legaria/alite/pkg/silhouette"
	"github.com/galindo-legaria/alite/pkg/telemetry"
	"github.com/galindo-legaria/alite/pkg/types"
	"github.com/galindo-legaria/alite/pkg/vectorstore"
)

// Config bounds the search over candidate cluster counts.
type Config struct {
	// KMin (inclusive) and KMax (exclusive) bound the candidate cluster
	// counts tried. KMin is raised to the largest per-table column count.
	// database.py's AssignIntegrationIDs calls this k_min/k_max.
	KMin, KMax int
	SampleSize int
	Seed       int64
}

// DefaultConfig returns the widest bounds: KMax=0 resolves to the total
// column count, and KMin=1 is raised by Assign to the largest per-table
// column count.
func DefaultConfig() Config {
	return Config{KMin: 1, KMax: 0, SampleSize: column.DefaultSampleSize}
}

// Assigner runs L0 (via an injected embedding.Provider) then L1/silhouette
// to settle on a final column clustering, and applies it to every table.
type Assigner struct {
	Config    Config
	Encoder   embedding.Provider
	Clusterer *cluster.Clusterer
	Scorer    silhouette.Scorer

	// Cache backs the L0 column-embedding cache, keyed by a content hash
	// of each column's sample. Never nil after New.
	Cache cache.Cache

	// Store, if set, persists column embeddings across runs, keyed by
	// (table, column). Nil means no cross-run persistence.
	Store vectorstore.Store

	// Tracer emits one span per L0 embedding call, per L1 clustering
	// attempt, and one enclosing span for the whole L2 search. Never nil
	// after New (defaults to a no-op tracer).
	Tracer *telemetry.Provider
}

// New builds an Assigner with the teacher-style sensible defaults: the
// stdlib Euclidean silhouette scorer, a worker-pool clusterer, an in-memory
// embedding cache, and tracing disabled (no-op tracer) until the caller
// opts in by replacing Tracer.
func New(cfg Config, enc embedding.Provider) *Assigner {
	tracer, _ := telemetry.Init(context.Background(), telemetry.DefaultConfig())
	return &Assigner{
		Config:    cfg,
		Encoder:   enc,
		Clusterer: &cluster.Clusterer{},
		Scorer:    silhouette.Euclidean{},
		Cache:     cache.NewMemoryCache(cache.DefaultConfig()),
		Tracer:    tracer,
	}
}

// Result reports what L2 decided.
type Result struct {
	AchievedK       int
	SilhouetteScore float64
	Warnings        []string
}

// Assign embeds every table's columns, searches k in [KMin, KMax) for the
// clustering with the best silhouette score (ties favor the smaller k per
// spec), and rewrites every table's columns onto the winning cluster ids in
// place. When that range is empty, clustering is skipped and every table
// keeps its pre-cluster ids. Mirrors RelationalDatabase.AssignIntegrationIDs.
func (a *Assigner) Assign(ctx context.Context, tables []*types.Table) (Result, error) {
	sampler := column.NewSampler(a.Config.SampleSize, a.Config.Seed)
	sampler.Cache = a.Cache
	sampler.Store = a.Store

	var vectors [][]float32
	var origin []string
	var ids []types.IntegrationID
	tableOf := make(map[types.IntegrationID]*types.Table)

	for _, t := range tables {
		embedCtx, span := a.Tracer.StartEmbedding(ctx, len(t.Columns))
		vecs, err := sampler.Embed(embedCtx, t, a.Encoder)
		if err != nil {
			telemetry.RecordError(span, err)
			span.End()
			return Result{}, fmt.Errorf("assign: embedding table %q: %w", t.Name, err)
		}
		span.End()
		for _, col := range t.SortedColumns() {
			vectors = append(vectors, vecs[col])
			origin = append(origin, t.Name)
			ids = append(ids, col)
			tableOf[col] = t
		}
	}

	if len(vectors) == 0 {
		return Result{}, nil
	}

	kMax := a.Config.KMax
	if kMax <= 0 || kMax > len(vectors) {
		kMax = len(vectors)
	}
	kMin := a.Config.KMin
	if kMin < 1 {
		kMin = 1
	}
	for _, t := range tables {
		if len(t.Columns) > kMin {
			kMin = len(t.Columns)
		}
	}
	if kMin >= kMax {
		return Result{AchievedK: len(vectors), Warnings: []string{fmt.Sprintf(
			"assign: k_min (%d) >= k_max (%d), keeping pre-cluster integration ids", kMin, kMax)}}, nil
	}

	_, assignSpan := a.Tracer.StartAssign(ctx, kMin, kMax)
	defer assignSpan.End()

	var best cluster.Result
	bestScore := -2.0
	bestK := -1
	var fallback *cluster.Result
	var warnings []string

	for k := kMin; k < kMax; k++ {
		_, clusterSpan := a.Tracer.StartClustering(ctx, len(vectors), k)
		res, err := a.Clusterer.Fit(vectors, origin, k)
		if err != nil {
			telemetry.RecordError(clusterSpan, err)
			clusterSpan.End()
			return Result{}, fmt.Errorf("assign: clustering at k=%d: %w", k, err)
		}
		clusterSpan.End()
		if res.StoppedEarly {
			warnings = append(warnings, fmt.Sprintf(
				"assign: same-table constraint forced an early stop at k=%d (requested k=%d)", res.AchievedK, k))
		}
		if fallback == nil {
			fr := res
			fallback = &fr
		}

		score, err := a.Scorer.Score(vectors, res.Labels)
		switch {
		case errors.Is(err, silhouette.ErrTooFewClusters), errors.Is(err, silhouette.ErrTooManyClusters):
			// Degenerate labeling at this k: no meaningful score, skip it.
		case err != nil:
			return Result{}, fmt.Errorf("assign: scoring k=%d: %w", k, err)
		default:
			// Ties favor the smaller k (spec.md's resolution of its own open
			// question): strict > only, since k increases across the loop.
			if score > bestScore {
				bestScore = score
				bestK = res.AchievedK
				best = res
			}
		}

		if res.AchievedK < k {
			break // constraint already capped us below this k; higher k is unreachable
		}
	}

	// Every candidate k in range produced a degenerate labeling (possible
	// when the total column count is small): fall back to the smallest k
	// tried rather than leave best empty.
	if bestK == -1 && fallback != nil {
		bestK = fallback.AchievedK
		best = *fallback
		bestScore = 0
		warnings = append(warnings, "assign: no candidate k scored a valid silhouette, falling back to the smallest k tried")
	}

	clusterID := make(map[types.IntegrationID]types.IntegrationID, len(ids))
	for i, id := range ids {
		clusterID[id] = types.IntegrationID(best.Labels[i])
	}

	for _, t := range tables {
		t.RenameColumns(clusterID)
	}

	return Result{AchievedK: bestK, SilhouetteScore: bestScore, Warnings: warnings}, nil
}
