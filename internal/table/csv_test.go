package table

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDecodeCSV(t *testing.T) {
	payload := "\xEF\xBB\xBFdate,tasmax\n2000-01,30.1\n2000-02,29.5\n"

	got, err := DecodeCSV([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"date", "tasmax"}; !reflect.DeepEqual(got.Columns, want) {
		t.Errorf("expected columns %v, got %v", want, got.Columns)
	}
	if want := [][]string{{"2000-01", "30.1"}, {"2000-02", "29.5"}}; !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("expected rows %v, got %v", want, got.Rows)
	}
	if want := []int{0, 1}; !reflect.DeepEqual(got.Index, want) {
		t.Errorf("expected index %v, got %v", want, got.Index)
	}
}

func TestDecodeCSVShortRows(t *testing.T) {
	got, err := DecodeCSV([]byte("a,b\n1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := [][]string{{"1", ""}}; !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("expected rows %v, got %v", want, got.Rows)
	}
}

func TestDecodeCSVLongRows(t *testing.T) {
	_, err := DecodeCSV([]byte("a,b\n1,2\n1,2,3\n"))
	if !errors.Is(err, ErrRaggedRow) {
		t.Fatalf("expected ErrRaggedRow, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected the offending line in %q", err)
	}
}

func TestWriteCSVWithoutIndex(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, &Table{Columns: []string{"a"}, Rows: [][]string{{"1"}}}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if want := ",a\n0,1\n"; buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}

	err := WriteCSV(&buf, &Table{Columns: []string{"a"}, Index: []int{0, 1}, Rows: [][]string{{"1"}}})
	if !errors.Is(err, ErrIndexLength) {
		t.Errorf("expected ErrIndexLength, got %v", err)
	}
}

func TestDecodeCSVEmpty(t *testing.T) {
	if _, err := DecodeCSV([]byte("  \n")); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestReadCSVDelimiter(t *testing.T) {
	got, err := ReadCSV(strings.NewReader("a;b\n1;2\n"), CSVOptions{Comma: ';'})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(got.Columns, want) {
		t.Errorf("expected columns %v, got %v", want, got.Columns)
	}
}

func TestWriteCSVReadBack(t *testing.T) {
	source := &Table{
		Columns: []string{"date", "tasmax"},
		Index:   []int{2, 3},
		Rows:    [][]string{{"2000-03", "28.0"}, {"2000-04", ""}},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, source); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), ",date,tasmax\n2,2000-03,28.0\n") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	got, err := ReadCSV(&buf, CSVOptions{IndexColumn: true})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if !reflect.DeepEqual(got, source) {
		t.Errorf("expected %+v, got %+v", source, got)
	}
}

func TestReadCSVInvalidIndex(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(",a\nx,1\n"), CSVOptions{IndexColumn: true})
	if err == nil {
		t.Fatal("expected error for non-numeric index label")
	}
}
