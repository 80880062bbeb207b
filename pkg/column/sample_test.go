package column

import (
	"context"
	"testing"

	"github.com/galindo-legaria/alite/pkg/types"
)

type constEncoder struct{ dim int }

func (c constEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, c.dim)
	for i := range v {
		v[i] = 1
	}
	return v, nil
}

func (c constEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i], _ = c.Embed(ctx, texts[i])
	}
	return out, nil
}

func (c constEncoder) Dimension() int    { return c.dim }
func (c constEncoder) ModelName() string { return "const" }

func TestEmbedUsesMeanOfSample(t *testing.T) {
	tab := types.NewTable("t")
	tab.Columns = []types.IntegrationID{0}
	tab.ColumnNames[0] = "col"
	tab.Rows = []types.Tuple{
		{0: types.Str("x")},
		{0: types.Str("y")},
	}

	s := NewSampler(10, 1)
	vecs, err := s.Embed(context.Background(), tab, constEncoder{dim: 3})
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	v := vecs[0]
	if len(v) != 3 {
		t.Fatalf("len(v) = %d, want 3", len(v))
	}
	for _, x := range v {
		if x != 1 {
			t.Errorf("mean of constant-1 embeddings should be 1, got %v", x)
		}
	}
}

func TestEmbedFallsBackForAllNullColumn(t *testing.T) {
	tab := types.NewTable("t")
	tab.Columns = []types.IntegrationID{0}
	tab.ColumnNames[0] = "col"
	tab.Rows = []types.Tuple{{0: types.Null}}

	s := NewSampler(10, 1)
	vecs, err := s.Embed(context.Background(), tab, constEncoder{dim: 4})
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if len(vecs[0]) != 4 {
		t.Fatalf("fallback vector length = %d, want 4", len(vecs[0]))
	}
}
