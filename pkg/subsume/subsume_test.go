package subsume

import (
	"testing"

	"github.com/galindo-legaria/alite/pkg/types"
)

func buildTable(cols []types.IntegrationID, rows []types.Tuple) *types.Table {
	t := types.NewTable("t")
	t.Columns = cols
	for _, c := range cols {
		t.ColumnNames[c] = "c"
	}
	t.Rows = rows
	return t
}

func TestSubsumeDropsLessSpecificTuple(t *testing.T) {
	cols := []types.IntegrationID{0, 1}
	tab := buildTable(cols, []types.Tuple{
		{0: types.Str("alice"), 1: types.Null},          // less specific
		{0: types.Str("alice"), 1: types.Int(30)},        // dominates the first
	})

	out := Subsume(tab)

	if len(out.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(out.Rows))
	}
	if !out.Rows[0][1].Equal(types.Int(30)) {
		t.Errorf("surviving row should be the fully-specified one, got %v", out.Rows[0])
	}
}

func TestSubsumeKeepsIncomparableTuples(t *testing.T) {
	cols := []types.IntegrationID{0, 1}
	tab := buildTable(cols, []types.Tuple{
		{0: types.Str("alice"), 1: types.Int(30)},
		{0: types.Str("bob"), 1: types.Int(40)},
	})

	out := Subsume(tab)
	if len(out.Rows) != 2 {
		t.Errorf("rows = %d, want 2 (neither dominates the other)", len(out.Rows))
	}
}

func TestSubsumeDeduplicatesExactCopies(t *testing.T) {
	cols := []types.IntegrationID{0}
	tab := buildTable(cols, []types.Tuple{
		{0: types.Str("alice")},
		{0: types.Str("alice")},
	})

	out := Subsume(tab)
	if len(out.Rows) != 1 {
		t.Errorf("rows = %d, want 1 (exact duplicates collapse to one)", len(out.Rows))
	}
}

func TestReplaceLabeledNulls(t *testing.T) {
	cols := []types.IntegrationID{0}
	tab := buildTable(cols, []types.Tuple{{0: types.LabeledNull(7)}})

	ReplaceLabeledNulls(tab)

	if tab.Rows[0][0].Kind != types.KindNull {
		t.Errorf("expected plain null, got %v", tab.Rows[0][0])
	}
}
