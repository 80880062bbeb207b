// Package fd ties the six pipeline stages together into one full-disjunction
// run and reports a diagnostics sidecar alongside the result.
package fd

import (
	"context"
	"fmt"

	"github.com/galindo-legaria/alite/pkg/assign"
	"github.com/galindo-legaria/alite/pkg/complement"
	"github.com/galindo-legaria/alite/pkg/embedding"
	"github.com/galindo-legaria/alite/pkg/subsume"
	"github.com/galindo-legaria/alite/pkg/telemetry"
	"github.com/galindo-legaria/alite/pkg/types"
	"github.com/galindo-legaria/alite/pkg/union"
	"github.com/galindo-legaria/alite/pkg/vectorstore"
)

// Config configures one Engine.
type Config struct {
	Assign     assign.Config
	Complement complement.Complementer

	// Store, if set, persists L0 column embeddings across runs, keyed by
	// (table, column). Passed straight through to the L2 assigner.
	Store vectorstore.Store

	// Tracer emits one span per L0-L5 stage. Nil means "use a no-op
	// tracer" (set by New).
	Tracer *telemetry.Provider
}

// DefaultConfig mirrors the teacher's DefaultConfig() convention: sensible
// values an embedder-only caller can use unmodified.
func DefaultConfig() Config {
	return Config{
		Assign:     assign.DefaultConfig(),
		Complement: complement.Complementer{MaxIterations: complement.DefaultMaxIterations},
	}
}

// Engine runs the full-disjunction pipeline end to end.
type Engine struct {
	cfg      Config
	assigner *assign.Assigner
	tracer   *telemetry.Provider
}

// New builds an Engine. enc is the L0 TextEncoder collaborator; the caller
// owns its lifecycle (rate limiting, caching, credentials). cfg.Store, if
// set, is wired into the L2 assigner's L0 sampler. cfg.Tracer, if set, is
// wired into both the assigner (L0/L1/L2 spans) and the engine itself
// (L3/L4/L5 spans); a nil Tracer defaults to a no-op one.
func New(cfg Config, enc embedding.Provider) *Engine {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer, _ = telemetry.Init(context.Background(), telemetry.DefaultConfig())
	}

	assigner := assign.New(cfg.Assign, enc)
	assigner.Store = cfg.Store
	assigner.Tracer = tracer

	return &Engine{cfg: cfg, assigner: assigner, tracer: tracer}
}

// Integrate runs L0 through L5 over raw, not-yet-integrated tables and
// returns their full disjunction plus a diagnostics sidecar. Mirrors
// RelationalDatabase.RunALITE's stage sequence:
// AssignIntegrationIDs → (GenerateLabeledNulls, OuterUnionWith) per table →
// Complement → ReplaceLabeledNulls → SubsumeTuples.
func (e *Engine) Integrate(ctx context.Context, raw []*types.RawTable) (*types.Table, *Statistics, error) {
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("fd: no input tables")
	}

	stats := &Statistics{InputTables: len(raw)}

	tables := make([]*types.Table, len(raw))
	var offset types.IntegrationID
	for i, rt := range raw {
		t, next := rt.AssignIntegrationIDs(offset)
		tables[i] = t
		offset = next
		stats.InputColumns += len(t.Columns)
		stats.InputTuples += t.TupleCount()
	}

	assignResult, err := e.assigner.Assign(ctx, tables)
	if err != nil {
		return nil, nil, fmt.Errorf("fd: assigning integration ids: %w", err)
	}
	stats.AchievedK = assignResult.AchievedK
	stats.SilhouetteScore = assignResult.SilhouetteScore
	stats.Warnings = append(stats.Warnings, assignResult.Warnings...)

	minter := &union.NullMinter{}
	for _, t := range tables {
		union.GenerateLabeledNulls(t, minter)
	}

	acc := tables[0]
	for _, t := range tables[1:] {
		_, unionSpan := e.tracer.StartUnion(ctx, t.Name, acc.TupleCount())
		acc = union.OuterUnionWith(acc, t)
		unionSpan.End()
	}

	_, complementSpan := e.tracer.StartComplement(ctx, acc.TupleCount(), e.cfg.Complement.MaxIterations)
	acc, warnings := e.cfg.Complement.Complement(acc)
	complementSpan.End()
	stats.Warnings = append(stats.Warnings, warnings...)

	_, subsumeSpan := e.tracer.StartSubsume(ctx, acc.TupleCount())
	subsume.ReplaceLabeledNulls(acc)
	final := subsume.Subsume(acc)
	subsumeSpan.End()

	stats.OutputColumns = len(final.Columns)
	stats.OutputTuples = final.TupleCount()

	return final, stats, nil
}
