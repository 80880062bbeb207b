package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/galindo-legaria/alite/pkg/types"
)

func TestReadCSVInfersColumnTypes(t *testing.T) {
	csv := "name,age,score\nalice,30,9.5\nbob,25,8\n"

	table, err := ReadCSV("employees", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if table.Name != "employees" {
		t.Errorf("expected table name employees, got %s", table.Name)
	}
	if len(table.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(table.Columns))
	}
	if table.Columns[0].Type != types.ColumnStr {
		t.Errorf("expected name column to be ColumnStr, got %v", table.Columns[0].Type)
	}
	if table.Columns[1].Type != types.ColumnInt {
		t.Errorf("expected age column to be ColumnInt, got %v", table.Columns[1].Type)
	}
	if table.Columns[2].Type != types.ColumnReal {
		t.Errorf("expected score column to be ColumnReal, got %v", table.Columns[2].Type)
	}

	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if !table.Rows[0][1].Equal(types.Int(30)) {
		t.Errorf("expected age 30, got %v", table.Rows[0][1])
	}
}

func TestReadCSVTreatsEmptyCellAsNull(t *testing.T) {
	csv := "name,age\nalice,30\nbob,\n"

	table, err := ReadCSV("employees", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if !table.Rows[1][1].IsNullLike() {
		t.Errorf("expected missing age to parse as null, got %v", table.Rows[1][1])
	}
}

func TestWriteCSVRendersNullsAsEmpty(t *testing.T) {
	tbl := types.NewTable("result")
	tbl.Columns = []types.IntegrationID{1, 2}
	tbl.ColumnNames[1] = "name"
	tbl.ColumnNames[2] = "age"
	tbl.Rows = []types.Tuple{
		{1: types.Str("alice"), 2: types.Int(30)},
		{1: types.Str("bob"), 2: types.Null},
	}

	var buf strings.Builder
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "name,age") {
		t.Errorf("expected header, got %q", out)
	}
	if !strings.Contains(out, "bob,\n") && !strings.Contains(out, "bob,\r\n") {
		t.Errorf("expected bob row with empty age, got %q", out)
	}
}

func TestLoadFilesLoadsConcurrentlyInOrder(t *testing.T) {
	dir := t.TempDir()

	path1 := filepath.Join(dir, "employees.csv")
	path2 := filepath.Join(dir, "contractors.csv")

	if err := os.WriteFile(path1, []byte("name,age\nalice,30\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if err := os.WriteFile(path2, []byte("name,rate\nbob,50\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	loader := NewLoader(Config{Workers: 2})
	tables, stats, err := loader.LoadFiles(context.Background(), []string{path1, path2}, nil)
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}

	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if tables[0].Name != "employees" || tables[1].Name != "contractors" {
		t.Errorf("expected tables in input order, got %s, %s", tables[0].Name, tables[1].Name)
	}
	if stats.FilesLoaded != 2 {
		t.Errorf("expected 2 files loaded, got %d", stats.FilesLoaded)
	}
}

func TestLoadFilesFailsOnMissingFile(t *testing.T) {
	loader := NewLoader(DefaultConfig())
	_, stats, err := loader.LoadFiles(context.Background(), []string{"/nonexistent/path.csv"}, nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if stats.FilesFailed != 1 {
		t.Errorf("expected 1 failed file, got %d", stats.FilesFailed)
	}
}
