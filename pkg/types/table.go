package types

import "sort"

// Tuple is a total map from a table's integration-id set to a cell value.
type Tuple map[IntegrationID]Value

// Clone returns an independent copy of the tuple.
func (t Tuple) Clone() Tuple {
	c := make(Tuple, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// Table is an ordered sequence of tuples over a set of columns keyed by
// integration id. Integration ids within one table are always distinct;
// callers that violate this invariant get a panic from AssertColumnsDistinct,
// never a silently wrong result.
type Table struct {
	Name string

	// Columns lists this table's current integration ids. Order here is the
	// table's own bookkeeping order, not necessarily sorted; use
	// SortedColumns for the order outer union requires.
	Columns []IntegrationID

	// ColumnNames records, per integration id, the original source column
	// name(s) that id represents. Before L2 it is one name per id; after
	// RenameColumns it can be several, joined by the renaming step.
	ColumnNames map[IntegrationID]string

	// ColumnTypes records the inferred type per integration id.
	ColumnTypes map[IntegrationID]ColumnType

	Rows []Tuple
}

// NewTable creates an empty, initialized table.
func NewTable(name string) *Table {
	return &Table{
		Name:        name,
		ColumnNames: make(map[IntegrationID]string),
		ColumnTypes: make(map[IntegrationID]ColumnType),
	}
}

// TupleCount returns the number of rows.
func (t *Table) TupleCount() int { return len(t.Rows) }

// SortedColumns returns this table's integration ids in ascending order.
// Outer union requires this ordering for deterministic downstream equality
// (spec.md 4.4).
func (t *Table) SortedColumns() []IntegrationID {
	cols := make([]IntegrationID, len(t.Columns))
	copy(cols, t.Columns)
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	return cols
}

// HasColumn reports whether id is one of this table's current columns.
func (t *Table) HasColumn(id IntegrationID) bool {
	for _, c := range t.Columns {
		if c == id {
			return true
		}
	}
	return false
}

// AssertColumnsDistinct panics if the same integration id appears twice in
// Columns. This is the structural invariant spec.md section 3 requires; a
// violation is a programmer error, not a recoverable anomaly.
func (t *Table) AssertColumnsDistinct() {
	seen := make(map[IntegrationID]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c] {
			panic("types: duplicate integration id within one table: " + t.Name)
		}
		seen[c] = true
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Name:        t.Name,
		Columns:     append([]IntegrationID(nil), t.Columns...),
		ColumnNames: make(map[IntegrationID]string, len(t.ColumnNames)),
		ColumnTypes: make(map[IntegrationID]ColumnType, len(t.ColumnTypes)),
		Rows:        make([]Tuple, len(t.Rows)),
	}
	for k, v := range t.ColumnNames {
		c.ColumnNames[k] = v
	}
	for k, v := range t.ColumnTypes {
		c.ColumnTypes[k] = v
	}
	for i, row := range t.Rows {
		c.Rows[i] = row.Clone()
	}
	return c
}

// RawColumn is a source column's name and inferred type, as reported by the
// ingestion layer before any integration id has been assigned.
type RawColumn struct {
	Name string
	Type ColumnType
}

// RawTable is the collaborator contract the ingestion layer produces:
// positionally-addressed columns and rows, with no integration ids yet.
// This is spec.md section 6's `Table := { name, columns, rows }` contract.
type RawTable struct {
	Name    string
	Columns []RawColumn
	Rows    [][]Value
}

// AssignIntegrationIDs converts a RawTable into a Table whose columns are
// keyed by freshly minted, globally unique integration ids starting at
// offset, and returns the next free offset. This mirrors
// RelationalTable.InitializeIntegrationIDs in the original ALITE
// implementation: table i's ids are disjoint from table j's because each
// call continues from the previous table's returned offset.
func (r *RawTable) AssignIntegrationIDs(offset IntegrationID) (*Table, IntegrationID) {
	t := NewTable(r.Name)
	t.Columns = make([]IntegrationID, len(r.Columns))

	for i, col := range r.Columns {
		id := offset + IntegrationID(i)
		t.Columns[i] = id
		t.ColumnNames[id] = col.Name
		t.ColumnTypes[id] = col.Type
	}

	t.Rows = make([]Tuple, len(r.Rows))
	for i, row := range r.Rows {
		tuple := make(Tuple, len(t.Columns))
		for j, id := range t.Columns {
			if j < len(row) {
				tuple[id] = row[j]
			} else {
				tuple[id] = Null
			}
		}
		t.Rows[i] = tuple
	}

	return t, offset + IntegrationID(len(r.Columns))
}

// RenameColumns rewrites every column's integration id to clusterID[old id],
// the reassignment L2 performs once the clusterer and silhouette scorer have
// picked a cluster count. Rows are rewritten in place onto the new id set;
// ColumnNames is replaced with a reverse mapping from new id back to the
// original source name it now represents (mirrors
// RelationalTable.RenameColumns's reverse_map). L1's constraint keeps two
// columns of one table out of the same cluster; a clusterID that maps two
// of t's columns onto one id breaks the distinct-ids invariant, and the
// closing AssertColumnsDistinct call panics.
func (t *Table) RenameColumns(clusterID map[IntegrationID]IntegrationID) {
	newNames := make(map[IntegrationID]string, len(t.Columns))
	newTypes := make(map[IntegrationID]ColumnType, len(t.Columns))
	newColumns := make([]IntegrationID, len(t.Columns))

	for i, old := range t.Columns {
		id, ok := clusterID[old]
		if !ok {
			id = old
		}
		newColumns[i] = id
		if existing, ok := newNames[id]; ok {
			newNames[id] = existing + "/" + t.ColumnNames[old]
		} else {
			newNames[id] = t.ColumnNames[old]
		}
		newTypes[id] = t.ColumnTypes[old]
	}

	for i, row := range t.Rows {
		rewritten := make(Tuple, len(newColumns))
		for j, old := range t.Columns {
			rewritten[newColumns[j]] = row[old]
		}
		t.Rows[i] = rewritten
	}

	t.Columns = newColumns
	t.ColumnNames = newNames
	t.ColumnTypes = newTypes
	t.AssertColumnsDistinct()
}
