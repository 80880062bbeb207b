// Package union implements the L3 outer union stage: labeling pre-existing
// nulls so they survive alignment, then schema-aligning tables column by
// column.
package union

import (
	"sync/atomic"

	"github.com/galindo-legaria/alite/pkg/types"
)

// NullMinter hands out labeled-null ids that are unique among those the
// same minter has handed out (one minter per integration run). A table's cells
// must be labeled before outer union so a cell that was genuinely recorded
// as missing can be told apart, downstream, from a cell a later table never
// had at all (which outer union fills with a plain, unlabeled Null).
type NullMinter struct {
	next uint64
}

// Mint returns a fresh labeled null.
func (m *NullMinter) Mint() types.Value {
	id := atomic.AddUint64(&m.next, 1)
	return types.LabeledNull(id)
}

// GenerateLabeledNulls replaces every ordinary null cell in t with a
// distinct labeled null. Mirrors RelationalTable.GenerateLabeledNulls.
func GenerateLabeledNulls(t *types.Table, minter *NullMinter) {
	for _, row := range t.Rows {
		for col, v := range row {
			if v.Kind == types.KindNull {
				row[col] = minter.Mint()
			}
		}
	}
}

// OuterUnionWith aligns u and t onto the union of their columns and
// concatenates their rows. Columns either table lacks are filled with a
// plain, unlabeled Null — never a labeled one, since that would wrongly
// claim a table recorded an observation it never had. Mirrors
// RelationalTable.OuterUnionWith.
func OuterUnionWith(u, t *types.Table) *types.Table {
	if len(t.Rows) == 0 {
		return u.Clone()
	}
	if len(u.Rows) == 0 {
		return t.Clone()
	}

	cols := unionColumns(u, t)

	out := types.NewTable(u.Name)
	out.Columns = cols
	for _, id := range cols {
		if name, ok := u.ColumnNames[id]; ok {
			out.ColumnNames[id] = name
			out.ColumnTypes[id] = u.ColumnTypes[id]
		} else {
			out.ColumnNames[id] = t.ColumnNames[id]
			out.ColumnTypes[id] = t.ColumnTypes[id]
		}
	}

	out.Rows = make([]types.Tuple, 0, len(u.Rows)+len(t.Rows))
	out.Rows = append(out.Rows, alignRows(u, cols)...)
	out.Rows = append(out.Rows, alignRows(t, cols)...)

	return out
}

func unionColumns(u, t *types.Table) []types.IntegrationID {
	seen := make(map[types.IntegrationID]bool, len(u.Columns)+len(t.Columns))
	var cols []types.IntegrationID
	for _, id := range u.Columns {
		if !seen[id] {
			seen[id] = true
			cols = append(cols, id)
		}
	}
	for _, id := range t.Columns {
		if !seen[id] {
			seen[id] = true
			cols = append(cols, id)
		}
	}
	sortIDs(cols)
	return cols
}

func sortIDs(ids []types.IntegrationID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

func alignRows(src *types.Table, cols []types.IntegrationID) []types.Tuple {
	rows := make([]types.Tuple, len(src.Rows))
	for i, row := range src.Rows {
		aligned := make(types.Tuple, len(cols))
		for _, id := range cols {
			if v, ok := row[id]; ok {
				aligned[id] = v
			} else {
				aligned[id] = types.Null
			}
		}
		rows[i] = aligned
	}
	return rows
}
