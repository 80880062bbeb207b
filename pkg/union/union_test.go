package union

import (
	"testing"

	"github.com/galindo-legaria/alite/pkg/types"
)

func buildTable(name string, cols []types.IntegrationID, rows []types.Tuple) *types.Table {
	t := types.NewTable(name)
	t.Columns = cols
	for _, c := range cols {
		t.ColumnNames[c] = "c"
	}
	t.Rows = rows
	return t
}

func TestGenerateLabeledNulls(t *testing.T) {
	tab := buildTable("t", []types.IntegrationID{0, 1}, []types.Tuple{
		{0: types.Str("x"), 1: types.Null},
	})
	minter := &NullMinter{}
	GenerateLabeledNulls(tab, minter)

	if tab.Rows[0][1].Kind != types.KindLabeledNull {
		t.Errorf("expected null cell to become labeled null, got %v", tab.Rows[0][1])
	}
	if tab.Rows[0][0].Kind != types.KindStr {
		t.Errorf("non-null cell should be untouched, got %v", tab.Rows[0][0])
	}
}

func TestOuterUnionWithAlignsDisjointColumns(t *testing.T) {
	u := buildTable("u", []types.IntegrationID{0}, []types.Tuple{{0: types.Str("a")}})
	v := buildTable("v", []types.IntegrationID{1}, []types.Tuple{{1: types.Str("b")}})

	out := OuterUnionWith(u, v)

	if len(out.Columns) != 2 {
		t.Fatalf("columns = %d, want 2", len(out.Columns))
	}
	if len(out.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(out.Rows))
	}
	if !out.Rows[0][1].Equal(types.Null) {
		t.Errorf("row from u should get an unlabeled null for v's column, got %v", out.Rows[0][1])
	}
	if !out.Rows[1][0].Equal(types.Null) {
		t.Errorf("row from v should get an unlabeled null for u's column, got %v", out.Rows[1][0])
	}
}

func TestOuterUnionWithEmptySide(t *testing.T) {
	u := buildTable("u", []types.IntegrationID{0}, []types.Tuple{{0: types.Str("a")}})
	empty := buildTable("empty", []types.IntegrationID{0}, nil)

	if out := OuterUnionWith(u, empty); len(out.Rows) != 1 {
		t.Errorf("union with empty other should keep u's rows, got %d", len(out.Rows))
	}
	if out := OuterUnionWith(empty, u); len(out.Rows) != 1 {
		t.Errorf("union with empty self should return other's rows, got %d", len(out.Rows))
	}
}
