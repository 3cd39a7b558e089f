package table

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnexpectedShape  = errors.New("table: unexpected json shape")
	ErrDuplicateColumns = errors.New("table: column names must be unique")
)

// DecodeJSON parses a JSON table. Three layouts are accepted: an array of
// records, an object of columns mapping index labels to values, and an
// object of columns holding value arrays.
func DecodeJSON(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyPayload
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("table: read json: %w", err)
	}
	delim, ok := token.(json.Delim)
	if !ok {
		return nil, ErrUnexpectedShape
	}
	switch delim {
	case '[':
		return decodeRecords(decoder)
	case '{':
		return decodeColumns(decoder)
	default:
		return nil, ErrUnexpectedShape
	}
}

func decodeRecords(decoder *json.Decoder) (*Table, error) {
	var columns []string
	rows := make([][]string, 0)
	positions := make(map[string]int)
	for decoder.More() {
		keys, values, err := readObject(decoder)
		if err != nil {
			return nil, err
		}
		row := make([]string, len(columns))
		for i, key := range keys {
			pos, ok := positions[key]
			if !ok {
				pos = len(columns)
				positions[key] = pos
				columns = append(columns, key)
				for j := range rows {
					rows[j] = append(rows[j], "")
				}
				row = append(row, "")
			}
			row[pos] = cellText(values[i])
		}
		rows = append(rows, row)
	}
	return New(columns, rows)
}

func decodeColumns(decoder *json.Decoder) (*Table, error) {
	type column struct {
		labels []string
		values map[string]string
	}
	names := make([]string, 0)
	columns := make([]column, 0)
	labels := make([]string, 0)
	seenLabel := make(map[string]bool)

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		name, ok := token.(string)
		if !ok {
			return nil, ErrUnexpectedShape
		}
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			return nil, err
		}
		col := column{values: make(map[string]string)}
		trimmed := bytes.TrimSpace(raw)
		switch {
		case len(trimmed) > 0 && trimmed[0] == '{':
			inner := json.NewDecoder(bytes.NewReader(trimmed))
			inner.UseNumber()
			keys, values, err := readObject(inner)
			if err != nil {
				return nil, err
			}
			for i, key := range keys {
				col.labels = append(col.labels, key)
				col.values[key] = cellText(values[i])
			}
		case len(trimmed) > 0 && trimmed[0] == '[':
			var values []any
			inner := json.NewDecoder(bytes.NewReader(trimmed))
			inner.UseNumber()
			if err := inner.Decode(&values); err != nil {
				return nil, err
			}
			for i, value := range values {
				key := strconv.Itoa(i)
				col.labels = append(col.labels, key)
				col.values[key] = cellText(value)
			}
		default:
			return nil, ErrUnexpectedShape
		}
		for _, label := range col.labels {
			if !seenLabel[label] {
				seenLabel[label] = true
				labels = append(labels, label)
			}
		}
		names = append(names, name)
		columns = append(columns, col)
	}

	index, numeric := numericLabels(labels)
	if numeric {
		order := make([]int, len(labels))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return index[order[a]] < index[order[b]] })
		sortedLabels := make([]string, len(labels))
		sortedIndex := make([]int, len(labels))
		for i, pos := range order {
			sortedLabels[i] = labels[pos]
			sortedIndex[i] = index[pos]
		}
		labels, index = sortedLabels, sortedIndex
	}

	t := &Table{Columns: names, Rows: make([][]string, len(labels))}
	for i, label := range labels {
		row := make([]string, len(names))
		for j, col := range columns {
			row[j] = col.values[label]
		}
		t.Rows[i] = row
	}
	if numeric {
		t.Index = index
	} else {
		t.ResetIndex()
	}
	return t, nil
}

func readObject(decoder *json.Decoder) ([]string, []any, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, nil, ErrUnexpectedShape
	}
	keys := make([]string, 0)
	values := make([]any, 0)
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := token.(string)
		if !ok {
			return nil, nil, ErrUnexpectedShape
		}
		var value any
		if err := decoder.Decode(&value); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values = append(values, value)
	}
	if _, err := decoder.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}

func numericLabels(labels []string) ([]int, bool) {
	index := make([]int, len(labels))
	for i, label := range labels {
		value, err := strconv.Atoi(label)
		if err != nil {
			return nil, false
		}
		index[i] = value
	}
	return index, true
}

func cellText(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(encoded)
	}
}

// WriteJSON writes the table as an object of columns, each mapping index
// labels to values. Numeric cells are written as numbers and empty cells as
// null.
func WriteJSON(w io.Writer, t *Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, column := range t.Columns {
		if seen[column] {
			return fmt.Errorf("%w: %q", ErrDuplicateColumns, column)
		}
		seen[column] = true
	}

	bw := bufio.NewWriter(w)
	bw.WriteByte('{')
	for j, column := range t.Columns {
		if j > 0 {
			bw.WriteByte(',')
		}
		name, err := json.Marshal(column)
		if err != nil {
			return err
		}
		bw.Write(name)
		bw.WriteString(":{")
		for i, row := range t.Rows {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(strconv.Quote(strconv.Itoa(t.Label(i))))
			bw.WriteByte(':')
			cell, err := jsonCell(row[j])
			if err != nil {
				return err
			}
			bw.Write(cell)
		}
		bw.WriteByte('}')
	}
	bw.WriteByte('}')
	return bw.Flush()
}

func jsonCell(value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return []byte("null"), nil
	}
	if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(parsed, 0) && !math.IsNaN(parsed) {
		if json.Valid([]byte(trimmed)) {
			return []byte(trimmed), nil
		}
		return json.Marshal(parsed)
	}
	return json.Marshal(value)
}
