// Package table holds two-dimensional labeled tables decoded from the
// portal's CSV and JSON payloads.
package table

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	ErrRaggedRow   = errors.New("table: row length does not match columns")
	ErrIndexLength = errors.New("table: index length does not match rows")
)

// Table is a labeled table. Cells are kept in their textual form; an empty
// cell stands for a missing value.
type Table struct {
	Columns []string
	Index   []int
	Rows    [][]string
}

// New builds a table with a contiguous index starting at zero.
func New(columns []string, rows [][]string) (*Table, error) {
	for _, row := range rows {
		if len(row) != len(columns) {
			return nil, ErrRaggedRow
		}
	}
	t := &Table{Columns: columns, Rows: rows}
	t.ResetIndex()
	return t, nil
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Validate reports rows whose length differs from the columns and an index
// that does not label every row. A nil index is valid.
func (t *Table) Validate() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d cells for %d columns", ErrRaggedRow, i, len(row), len(t.Columns))
		}
	}
	if t.Index != nil && len(t.Index) != len(t.Rows) {
		return fmt.Errorf("%w: %d labels for %d rows", ErrIndexLength, len(t.Index), len(t.Rows))
	}
	return nil
}

// Label returns the index label of row i, or i when the table has no index.
func (t *Table) Label(i int) int {
	if i < len(t.Index) {
		return t.Index[i]
	}
	return i
}

// ResetIndex renumbers the row index from zero.
func (t *Table) ResetIndex() {
	t.Index = make([]int, len(t.Rows))
	for i := range t.Index {
		t.Index[i] = i
	}
}

// Column returns the position of the first column with the given name.
func (t *Table) Column(name string) int {
	for i, column := range t.Columns {
		if column == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row i of the named column.
func (t *Table) Cell(i int, name string) (string, bool) {
	col := t.Column(name)
	if col < 0 || i < 0 || i >= len(t.Rows) {
		return "", false
	}
	return t.Rows[i][col], true
}

func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	columns := append([]string(nil), t.Columns...)
	index := append([]int(nil), t.Index...)
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = append([]string(nil), row...)
	}
	return &Table{Columns: columns, Index: index, Rows: rows}
}

// DropHead returns a copy without the first n rows. Index labels of the
// remaining rows are kept.
func (t *Table) DropHead(n int) *Table {
	out := t.Clone()
	if len(out.Index) != len(out.Rows) {
		out.Index = make([]int, len(out.Rows))
		for i := range out.Index {
			out.Index[i] = t.Label(i)
		}
	}
	if n <= 0 {
		return out
	}
	if n > len(out.Rows) {
		n = len(out.Rows)
	}
	out.Rows = out.Rows[n:]
	out.Index = out.Index[n:]
	return out
}

// ConcatRows stacks the tables vertically. Columns are unioned in first-seen
// order and cells of columns a table lacks are left empty. The result is
// reindexed from zero.
func ConcatRows(tables ...*Table) *Table {
	columns := make([]string, 0)
	positions := make(map[string]int)
	for _, t := range tables {
		if t == nil {
			continue
		}
		seen := make(map[string]int)
		for _, column := range t.Columns {
			// duplicate names map to successive output columns
			key := occurrenceKey(column, seen[column])
			seen[column]++
			if _, ok := positions[key]; ok {
				continue
			}
			positions[key] = len(columns)
			columns = append(columns, column)
		}
	}

	out := &Table{Columns: columns, Rows: make([][]string, 0)}
	for _, t := range tables {
		if t == nil {
			continue
		}
		mapping := make([]int, len(t.Columns))
		seen := make(map[string]int)
		for i, column := range t.Columns {
			mapping[i] = positions[occurrenceKey(column, seen[column])]
			seen[column]++
		}
		for _, row := range t.Rows {
			merged := make([]string, len(columns))
			for i, value := range row {
				if i < len(mapping) {
					merged[mapping[i]] = value
				}
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	out.ResetIndex()
	return out
}

// ConcatColumns places the tables side by side, aligning rows on their index
// labels. Rows missing from a table are left empty. Column names may repeat.
func ConcatColumns(tables ...*Table) *Table {
	labels := make([]int, 0)
	rowOf := make(map[int]int)
	columns := make([]string, 0)
	for _, t := range tables {
		if t == nil {
			continue
		}
		columns = append(columns, t.Columns...)
		for i := range t.Rows {
			label := t.Label(i)
			if _, ok := rowOf[label]; ok {
				continue
			}
			rowOf[label] = len(labels)
			labels = append(labels, label)
		}
	}
	if !sort.IntsAreSorted(labels) {
		sort.Ints(labels)
		for i, label := range labels {
			rowOf[label] = i
		}
	}

	rows := make([][]string, len(labels))
	for i := range rows {
		rows[i] = make([]string, len(columns))
	}
	offset := 0
	for _, t := range tables {
		if t == nil {
			continue
		}
		for i, row := range t.Rows {
			target := rows[rowOf[t.Label(i)]]
			copy(target[offset:offset+len(t.Columns)], row)
		}
		offset += len(t.Columns)
	}
	return &Table{Columns: columns, Index: labels, Rows: rows}
}

func occurrenceKey(column string, n int) string {
	if n == 0 {
		return column
	}
	return column + "\x00" + strconv.Itoa(n)
}
