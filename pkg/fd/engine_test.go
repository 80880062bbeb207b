package fd

import (
	"context"
	"testing"

	"github.com/galindo-legaria/alite/pkg/types"
)

// fakeEncoder deterministically maps distinct strings to distinct points,
// so the clusterer's distance comparisons are meaningful without a real
// embedding service.
type fakeEncoder struct{}

func (fakeEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	vs, err := fakeEncoder{}.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (fakeEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		var h float32
		for _, r := range t {
			h += float32(r)
		}
		out[i] = []float32{h}
	}
	return out, nil
}

func (fakeEncoder) Dimension() int    { return 1 }
func (fakeEncoder) ModelName() string { return "fake" }

func TestIntegrateMergesTwoTablesOnSharedColumn(t *testing.T) {
	employees := &types.RawTable{
		Name:    "employees",
		Columns: []types.RawColumn{{Name: "name", Type: types.ColumnStr}, {Name: "dept", Type: types.ColumnStr}},
		Rows: [][]types.Value{
			{types.Str("alice"), types.Str("eng")},
		},
	}
	contractors := &types.RawTable{
		Name:    "contractors",
		Columns: []types.RawColumn{{Name: "name", Type: types.ColumnStr}, {Name: "agency", Type: types.ColumnStr}},
		Rows: [][]types.Value{
			{types.Str("bob"), types.Str("acme")},
		},
	}

	cfg := DefaultConfig()
	cfg.Assign.KMin = 2
	cfg.Assign.KMax = 3

	eng := New(cfg, fakeEncoder{})
	result, stats, err := eng.Integrate(context.Background(), []*types.RawTable{employees, contractors})
	if err != nil {
		t.Fatalf("Integrate error: %v", err)
	}

	if result.TupleCount() != 2 {
		t.Errorf("output tuples = %d, want 2", result.TupleCount())
	}
	if stats.InputTables != 2 {
		t.Errorf("stats.InputTables = %d, want 2", stats.InputTables)
	}
	if stats.OutputTuples != result.TupleCount() {
		t.Errorf("stats.OutputTuples (%d) disagrees with result (%d)", stats.OutputTuples, result.TupleCount())
	}
}

func TestIntegrateRejectsEmptyInput(t *testing.T) {
	eng := New(DefaultConfig(), fakeEncoder{})
	if _, _, err := eng.Integrate(context.Background(), nil); err == nil {
		t.Error("expected an error for zero input tables")
	}
}
