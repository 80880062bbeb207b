package complement

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

func TestComplementMergesAgreeingTuples(t *testing.T) {
	cols := []types.IntegrationID{0, 1}
	tab := buildTable(cols, []types.Tuple{
		{0: types.Str("alice"), 1: types.Null},
		{0: types.Null, 1: types.Int(30)},
	})

	c := &Complementer{}
	out, warnings := c.Complement(tab)

	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	found := false
	for _, row := range out.Rows {
		if row[0].Equal(types.Str("alice")) && row[1].Equal(types.Int(30)) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a merged tuple {alice, 30} among %v", out.Rows)
	}
}

func TestComplementRefusesConflictingTuples(t *testing.T) {
	cols := []types.IntegrationID{0, 1}
	tab := buildTable(cols, []types.Tuple{
		{0: types.Str("alice"), 1: types.Int(30)},
		{0: types.Str("alice"), 1: types.Int(40)},
	})

	c := &Complementer{}
	out, _ := c.Complement(tab)

	if len(out.Rows) != 2 {
		t.Errorf("conflicting tuples on a non-null column must not merge, got %d rows", len(out.Rows))
	}
}

func TestComplementIterationCapWarns(t *testing.T) {
	cols := []types.IntegrationID{0, 1, 2}
	// Three mutually-combinable tuples force repeated re-merging; with a
	// cap of 1 the fixed point won't be reached and a warning must surface.
	tab := buildTable(cols, []types.Tuple{
		{0: types.Str("a"), 1: types.Null, 2: types.Null},
		{0: types.Null, 1: types.Str("b"), 2: types.Null},
		{0: types.Null, 1: types.Null, 2: types.Str("c")},
	})

	c := &Complementer{MaxIterations: 1}
	_, warnings := c.Complement(tab)

	if len(warnings) == 0 {
		t.Error("expected an iteration-cap warning")
	}
}
