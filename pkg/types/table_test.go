package types

import "testing"

func TestAssignIntegrationIDs(t *testing.T) {
	raw := &RawTable{
		Name:    "people",
		Columns: []RawColumn{{Name: "name", Type: ColumnStr}, {Name: "age", Type: ColumnInt}},
		Rows: [][]Value{
			{Str("alice"), Int(30)},
			{Str("bob"), Null},
		},
	}

	tab, next := raw.AssignIntegrationIDs(0)

	if next != 2 {
		t.Fatalf("next offset = %d, want 2", next)
	}
	if len(tab.Columns) != 2 {
		t.Fatalf("columns = %d, want 2", len(tab.Columns))
	}
	if tab.ColumnNames[0] != "name" || tab.ColumnNames[1] != "age" {
		t.Errorf("column names = %v", tab.ColumnNames)
	}
	if !tab.Rows[0][0].Equal(Str("alice")) {
		t.Errorf("row0 col0 = %v", tab.Rows[0][0])
	}
	if !tab.Rows[1][1].Equal(Null) {
		t.Errorf("row1 col1 = %v, want Null", tab.Rows[1][1])
	}

	second, next2 := (&RawTable{
		Name:    "pets",
		Columns: []RawColumn{{Name: "species", Type: ColumnStr}},
		Rows:    [][]Value{{Str("cat")}},
	}).AssignIntegrationIDs(next)

	if next2 != 3 {
		t.Fatalf("next2 = %d, want 3", next2)
	}
	if second.Columns[0] != 2 {
		t.Errorf("second table's column id = %d, want 2 (disjoint from first table)", second.Columns[0])
	}
}

func TestRenameColumnsPanicsWhenTwoColumnsShareAnID(t *testing.T) {
	raw := &RawTable{
		Name:    "t",
		Columns: []RawColumn{{Name: "email"}, {Name: "addr"}},
		Rows:    [][]Value{{Str("a@example.com"), Str("1 Main St")}},
	}
	tab, _ := raw.AssignIntegrationIDs(0)

	defer func() {
		if recover() == nil {
			t.Error("expected panic when two columns of one table are renamed onto the same integration id")
		}
	}()
	tab.RenameColumns(map[IntegrationID]IntegrationID{0: 100, 1: 100})
}

func TestAssertColumnsDistinctPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate integration id")
		}
	}()
	tab := NewTable("bad")
	tab.Columns = []IntegrationID{1, 1}
	tab.AssertColumnsDistinct()
}
