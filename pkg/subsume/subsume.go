// Package subsume implements the L5 subsumer: dropping tuples that a more
// fully-specified tuple already dominates, and clearing labeled nulls back
// to plain nulls once their identity is no longer needed.
package subsume

import "github.com/galindo-legaria/alite/pkg/types"

// ReplaceLabeledNulls rewrites every labeled null in t back to a plain Null.
// Called between complement and subsume (RunALITE's stage order): dominance
// checking treats null as a wildcard regardless of label, so the labels'
// job is done once complementation has finished using them.
func ReplaceLabeledNulls(t *types.Table) {
	for _, row := range t.Rows {
		for col, v := range row {
			if v.Kind == types.KindLabeledNull {
				row[col] = types.Null
			}
		}
	}
}

// Subsume removes every tuple that another, more fully-specified tuple
// dominates. Mirrors RelationalTable.SubsumeTuples/is_subsumed.
func Subsume(t *types.Table) *types.Table {
	cols := t.SortedColumns()
	rows := t.Rows
	eliminated := make([]bool, len(rows))

	for i := range rows {
		if eliminated[i] {
			continue
		}
		for j := range rows {
			if i == j || eliminated[j] {
				continue
			}
			if !dominates(rows[j], rows[i], cols) {
				continue
			}
			if moreSpecific(rows[j], rows[i], cols) || (tiesBreakLower(rows[i], rows[j], cols) && j < i) {
				eliminated[i] = true
				break
			}
		}
	}

	out := t.Clone()
	kept := make([]types.Tuple, 0, len(rows))
	for i, row := range rows {
		if !eliminated[i] {
			kept = append(kept, row)
		}
	}
	out.Rows = kept
	return out
}

// dominates reports whether j could stand in for i: everywhere i has a
// non-null value, j has the same value. j may also be null there, or have
// additional information i lacks.
func dominates(j, i types.Tuple, cols []types.IntegrationID) bool {
	for _, c := range cols {
		vi := i[c]
		if vi.IsNullLike() {
			continue
		}
		if !vi.Equal(j[c]) {
			return false
		}
	}
	return true
}

// moreSpecific reports whether j has strictly fewer null-like cells than i,
// i.e. j genuinely carries more information than i rather than being an
// exact duplicate.
func moreSpecific(j, i types.Tuple, cols []types.IntegrationID) bool {
	return nullCount(j, cols) < nullCount(i, cols)
}

// tiesBreakLower handles exact duplicates: when i and j carry identical
// information, only one copy should survive, and lower index wins.
func tiesBreakLower(i, j types.Tuple, cols []types.IntegrationID) bool {
	return nullCount(i, cols) == nullCount(j, cols) && dominates(i, j, cols)
}

func nullCount(t types.Tuple, cols []types.IntegrationID) int {
	n := 0
	for _, c := range cols {
		if t[c].IsNullLike() {
			n++
		}
	}
	return n
}
