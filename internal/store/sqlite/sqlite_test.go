package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"

	"pclima/internal/table"
)

func TestSaveTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pclima.db")
	st, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer st.Close()

	data := &table.Table{
		Columns: []string{"date", "tasmax", "tasmax"},
		Index:   []int{0, 1},
		Rows:    [][]string{{"2000-01", "30.1", "29.0"}, {"2000-02", "", "28.4"}},
	}
	if err := st.SaveTable(ctx, "CSVPontos", data); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}

	rows, err := st.db.QueryContext(ctx, `SELECT row_index, date, tasmax, tasmax_1 FROM "CSVPontos" ORDER BY row_index`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var got [][]any
	for rows.Next() {
		var (
			index         int
			date          string
			first, second sql.NullString
		)
		if err := rows.Scan(&index, &date, &first, &second); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, []any{index, date, first, second})
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}

	want := [][]any{
		{0, "2000-01", sql.NullString{String: "30.1", Valid: true}, sql.NullString{String: "29.0", Valid: true}},
		{1, "2000-02", sql.NullString{}, sql.NullString{String: "28.4", Valid: true}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSaveTableReplaces(t *testing.T) {
	ctx := context.Background()
	st, err := New(filepath.Join(t.TempDir(), "pclima.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer st.Close()

	first := &table.Table{Columns: []string{"a"}, Index: []int{0, 1}, Rows: [][]string{{"1"}, {"2"}}}
	second := &table.Table{Columns: []string{"b"}, Index: []int{0}, Rows: [][]string{{"3"}}}
	for _, data := range []*table.Table{first, second} {
		if err := st.SaveTable(ctx, "CSV", data); err != nil {
			t.Fatalf("SaveTable: %v", err)
		}
	}
	if err := st.SaveTable(ctx, "JSON", first); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}

	var count int
	if err := st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "CSV"`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected the second save to replace the table, got %d rows", count)
	}

	var rowCount int
	if err := st.db.QueryRowContext(ctx, `SELECT row_count FROM pclima_tables WHERE name = 'CSV'`).Scan(&rowCount); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if rowCount != 1 {
		t.Errorf("expected catalog row count 1, got %d", rowCount)
	}

	names, err := st.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if want := []string{"CSV", "JSON"}; !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestColumnNames(t *testing.T) {
	got := columnNames([]string{"", "v", "V", "row_index"})
	want := []string{"column_0", "v", "V_1", "row_index_1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
