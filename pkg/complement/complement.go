// Package complement implements the L4 complementer: repeatedly merging
// tuples that agree everywhere they're both non-null, until no new tuple
// appears.
package complement

import (
	"fmt"

	"github.com/galindo-legaria/alite/pkg/types"
)

// DefaultMaxIterations bounds the fixed-point loop. original_source/table.py
// loops until a Python fixed point with no cap; an adversarial or malformed
// input can make that loop pathological, so this port caps it and reports
// the cap as a recoverable warning rather than hanging (spec.md's redesign
// flag on the complement loop).
const DefaultMaxIterations = 64

// Complementer runs the fixed-point tuple merge.
type Complementer struct {
	MaxIterations int
}

// Complement merges every pair of k-combinable tuples in u until reaching a
// fixed point or MaxIterations, whichever comes first. Returns the merged
// table and any warnings (currently: the iteration-cap warning).
func (c *Complementer) Complement(u *types.Table) (*types.Table, []string) {
	maxIter := c.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	cols := u.SortedColumns()
	rows := dedupe(u.Rows, cols)

	var warnings []string
	for iter := 0; iter < maxIter; iter++ {
		next := step(rows, cols)
		next = dedupe(next, cols)
		if sameSet(rows, next, cols) {
			rows = next
			break
		}
		rows = next
		if iter == maxIter-1 {
			warnings = append(warnings, fmt.Sprintf(
				"complement: reached iteration cap (%d) before a fixed point; result may be under-merged", maxIter))
		}
	}

	out := u.Clone()
	out.Rows = rows
	return out, warnings
}

// step produces rows ∪ {combine(a,b) : a,b ∈ rows, kCombinable(a,b)}.
func step(rows []types.Tuple, cols []types.IntegrationID) []types.Tuple {
	out := append([]types.Tuple(nil), rows...)
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			if kCombinable(rows[i], rows[j], cols) {
				out = append(out, combine(rows[i], rows[j], cols))
			}
		}
	}
	return out
}

// kCombinable is table.py's `k`: two tuples can merge when, for every
// column, at least one side is null-like or both sides agree exactly.
func kCombinable(a, b types.Tuple, cols []types.IntegrationID) bool {
	for _, c := range cols {
		va, vb := a[c], b[c]
		if va.IsNullLike() || vb.IsNullLike() {
			continue
		}
		if !va.Equal(vb) {
			return false
		}
	}
	return true
}

// combine takes, per column, whichever side is non-null, preferring a's;
// when both are null-like the result is a plain Null.
func combine(a, b types.Tuple, cols []types.IntegrationID) types.Tuple {
	out := make(types.Tuple, len(cols))
	for _, c := range cols {
		va, vb := a[c], b[c]
		switch {
		case !va.IsNullLike():
			out[c] = va
		case !vb.IsNullLike():
			out[c] = vb
		default:
			out[c] = types.Null
		}
	}
	return out
}

// dedupe drops rows that are duplicates under a canonical key that treats
// any null-like value as the same wildcard marker, regardless of which
// labeled-null id it carries — two tuples differing only in *which* missing
// observation a cell represents are still the same integrated row.
func dedupe(rows []types.Tuple, cols []types.IntegrationID) []types.Tuple {
	seen := make(map[string]bool, len(rows))
	out := make([]types.Tuple, 0, len(rows))
	for _, row := range rows {
		key := canonicalKey(row, cols)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

func canonicalKey(row types.Tuple, cols []types.IntegrationID) string {
	buf := make([]byte, 0, len(cols)*8)
	for _, c := range cols {
		v := row[c]
		if v.IsNullLike() {
			buf = append(buf, '\x00', '\x01')
			continue
		}
		buf = append(buf, []byte(fmt.Sprintf("%d:%s\x1f", v.Kind, v.String()))...)
	}
	return string(buf)
}

func sameSet(a, b []types.Tuple, cols []types.IntegrationID) bool {
	if len(a) != len(b) {
		return false
	}
	ka := make(map[string]bool, len(a))
	for _, r := range a {
		ka[canonicalKey(r, cols)] = true
	}
	for _, r := range b {
		if !ka[canonicalKey(r, cols)] {
			return false
		}
	}
	return true
}
