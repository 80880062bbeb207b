package assign

import (
	"context"
	"testing"

	"github.com/galindo-legaria/alite/pkg/types"
)

type fakeEncoder struct{}

func (fakeEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	vs, _ := fakeEncoder{}.EmbedBatch(ctx, []string{text})
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

func TestAssignRenamesColumnsConsistently(t *testing.T) {
	raw1 := &types.RawTable{
		Name:    "a",
		Columns: []types.RawColumn{{Name: "id"}},
		Rows:    [][]types.Value{{types.Str("x")}},
	}
	raw2 := &types.RawTable{
		Name:    "b",
		Columns: []types.RawColumn{{Name: "identifier"}},
		Rows:    [][]types.Value{{types.Str("y")}},
	}
	t1, next := raw1.AssignIntegrationIDs(0)
	t2, _ := raw2.AssignIntegrationIDs(next)

	cfg := DefaultConfig()
	cfg.KMin, cfg.KMax = 1, 2

	a := New(cfg, fakeEncoder{})
	res, err := a.Assign(context.Background(), []*types.Table{t1, t2})
	if err != nil {
		t.Fatalf("Assign error: %v", err)
	}
	if res.AchievedK < 1 {
		t.Errorf("AchievedK = %d, want >= 1", res.AchievedK)
	}
	if len(t1.Columns) != 1 || len(t2.Columns) != 1 {
		t.Fatalf("each table should still have exactly one column after renaming")
	}
}

func TestAssignNeverTriesKEqualToTotalColumns(t *testing.T) {
	raw1 := &types.RawTable{
		Name:    "a",
		Columns: []types.RawColumn{{Name: "aaa"}},
		Rows:    [][]types.Value{{types.Str("x")}},
	}
	raw2 := &types.RawTable{
		Name:    "b",
		Columns: []types.RawColumn{{Name: "bbbbbbbbbb"}},
		Rows:    [][]types.Value{{types.Str("y")}},
	}
	raw3 := &types.RawTable{
		Name:    "c",
		Columns: []types.RawColumn{{Name: "ccccccccccccccccccccc"}},
		Rows:    [][]types.Value{{types.Str("z")}},
	}
	t1, next := raw1.AssignIntegrationIDs(0)
	t2, next2 := raw2.AssignIntegrationIDs(next)
	t3, _ := raw3.AssignIntegrationIDs(next2)

	totalColumns := 3

	cfg := DefaultConfig() // KMax = 0, meaning "total column count"
	a := New(cfg, fakeEncoder{})
	res, err := a.Assign(context.Background(), []*types.Table{t1, t2, t3})
	if err != nil {
		t.Fatalf("Assign error: %v", err)
	}

	if res.AchievedK >= totalColumns {
		t.Errorf("AchievedK = %d, want < %d (k must never reach the total column count)", res.AchievedK, totalColumns)
	}
}
