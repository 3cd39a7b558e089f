package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrEmptyPayload = errors.New("table: empty payload")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions controls how delimited text is read.
type CSVOptions struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// IndexColumn treats the first column as the row index, as written by
	// WriteCSV.
	IndexColumn bool
}

// DecodeCSV parses a delimited payload whose first record is the header.
func DecodeCSV(data []byte) (*Table, error) {
	return ReadCSV(bytes.NewReader(data), CSVOptions{})
}

func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyPayload
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table: read csv: %w", err)
	}
	header := records[0]
	records = records[1:]

	t := &Table{Rows: make([][]string, 0, len(records))}
	first := 0
	if opts.IndexColumn && len(header) > 0 {
		first = 1
	}
	t.Columns = append([]string(nil), header[first:]...)
	index := make([]int, 0, len(records))
	for n, record := range records {
		if len(record)-first > len(t.Columns) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrRaggedRow, n+2, len(record), len(header))
		}
		row := make([]string, len(t.Columns))
		for i := range row {
			if first+i < len(record) {
				row[i] = record[first+i]
			}
		}
		t.Rows = append(t.Rows, row)

		label := n
		if first == 1 && len(record) > 0 {
			parsed, err := strconv.Atoi(strings.TrimSpace(record[0]))
			if err != nil {
				return nil, fmt.Errorf("table: invalid index label %q on line %d", record[0], n+2)
			}
			label = parsed
		}
		index = append(index, label)
	}
	t.Index = index
	return t, nil
}

// WriteCSV writes the table with its index as a leading unnamed column.
func WriteCSV(w io.Writer, t *Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, "")
	header = append(header, t.Columns...)
	if err := writer.Write(header); err != nil {
		return err
	}
	record := make([]string, len(t.Columns)+1)
	for i, row := range t.Rows {
		record[0] = strconv.Itoa(t.Label(i))
		copy(record[1:], row)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
