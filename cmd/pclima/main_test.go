package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pclima/internal/grid"
	"pclima/internal/model"
	"pclima/internal/table"
)

func TestLoadSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.json")
	if err := os.WriteFile(path, []byte(`{"formato": "CSV", "conjunto": "PR0002"}`), 0o600); err != nil {
		t.Fatalf("write request: %v", err)
	}

	sel, err := loadSelection(path, []string{"ano=2000-2002", "conjunto = PR0003"})
	if err != nil {
		t.Fatalf("loadSelection: %v", err)
	}
	if sel.Get(model.KeyYearRange) != "2000-2002" {
		t.Errorf("unexpected ano %q", sel.Get(model.KeyYearRange))
	}
	if sel.Get(model.KeyDataset) != "PR0003" {
		t.Errorf("expected override to win, got %q", sel.Get(model.KeyDataset))
	}
}

func TestLoadSelectionErrors(t *testing.T) {
	tests := []struct {
		name      string
		overrides []string
	}{
		{name: "no format", overrides: []string{"conjunto=PR0002"}},
		{name: "bad pair", overrides: []string{"formato"}},
		{name: "empty key", overrides: []string{"=CSV"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadSelection("", tt.overrides); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFormatsCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"formats"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, format := range model.Formats() {
		if !strings.Contains(out.String(), string(format)) {
			t.Errorf("missing %s in output:\n%s", format, out.String())
		}
	}
}

func TestGetRequiresToken(t *testing.T) {
	t.Setenv("API_TOKEN", "")
	request := filepath.Join(t.TempDir(), "request.json")
	if err := os.WriteFile(request, []byte(`{"formato": "CSV"}`), 0o600); err != nil {
		t.Fatalf("write request: %v", err)
	}

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"get", "--request", request, "--rc", filepath.Join(t.TempDir(), "missing")})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("expected a missing token error, got %v", err)
	}
}

func TestPrintSummary(t *testing.T) {
	tests := []struct {
		name   string
		result model.Result
		want   []string
	}{
		{
			name: "table",
			result: model.Result{
				Format: model.FormatCSV,
				Table:  &table.Table{Columns: []string{"date", "tasmax"}, Rows: [][]string{{"2000-01", "30.1"}}},
			},
			want: []string{"CSV: 1 rows x 2 columns"},
		},
		{
			name: "grid",
			result: model.Result{
				Format: model.FormatNetCDF,
				Grid: &grid.Grid{
					Dimensions: []grid.Dimension{{Name: "time", Len: 12}},
					Attributes: []grid.Attribute{{Name: "title", Value: "tasmax monthly"}},
				},
			},
			want: []string{"NetCDF: 1 dimensions, 0 variables", "time = 12", "title: tasmax monthly"},
		},
		{
			name:   "empty",
			result: model.Result{Format: model.FormatJSON},
			want:   []string{"JSON: empty result"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			printSummary(&out, tt.result)
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("expected %q in output:\n%s", want, out.String())
				}
			}
		})
	}
}
