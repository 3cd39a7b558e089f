package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pclima/internal/grid"
	"pclima/internal/table"
)

type Format string

const (
	FormatNetCDF     Format = "NetCDF"
	FormatCSV        Format = "CSV"
	FormatJSON       Format = "JSON"
	FormatCSVPontos  Format = "CSVPontos"
	FormatCSVPontosT Format = "CSVPontosT"
)

var ErrUnknownFormat = errors.New("model: unknown format")

// Formats lists every supported format in a stable order.
func Formats() []Format {
	return []Format{FormatNetCDF, FormatCSV, FormatJSON, FormatCSVPontos, FormatCSVPontosT}
}

func ParseFormat(raw string) (Format, error) {
	trimmed := strings.TrimSpace(raw)
	for _, format := range Formats() {
		if strings.EqualFold(trimmed, string(format)) {
			return format, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
}

// IsTable reports whether results of the format are held in a table.
func (f Format) IsTable() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatCSVPontos, FormatCSVPontosT:
		return true
	default:
		return false
	}
}

// Selection keys understood by the portal.
const (
	KeyFormat         = "formato"
	KeyDataset        = "conjunto"
	KeyModel          = "modelo"
	KeyExperiment     = "experimento"
	KeyPeriod         = "periodo"
	KeyScenario       = "cenario"
	KeyVariable       = "variavel"
	KeyFrequencyURL   = "frequenciaURL"
	KeyFrequency      = "frequencia"
	KeyProduct        = "produto"
	KeyLocation       = "localizacao"
	KeyLocationPoints = "localizacao_pontos"
	KeyVariableFilter = "varCDO"
	KeyYearRange      = "ano"
)

// Selection is the set of options describing what to download.
type Selection map[string]string

func (s Selection) Get(key string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s[key])
}

func (s Selection) Has(key string) bool {
	return s.Get(key) != ""
}

func (s Selection) Format() (Format, error) {
	return ParseFormat(s.Get(KeyFormat))
}

// Clone returns a copy the caller may modify.
func (s Selection) Clone() Selection {
	copied := make(Selection, len(s))
	for key, value := range s {
		copied[key] = value
	}
	return copied
}

// ParseSelection decodes the request JSON produced by the portal.
// Non-string values are kept in their textual form.
func ParseSelection(data []byte) (Selection, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("model: decode selection: %w", err)
	}
	sel := make(Selection, len(raw))
	for key, value := range raw {
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			sel[key] = text
			continue
		}
		trimmed := strings.TrimSpace(string(value))
		if trimmed == "null" {
			continue
		}
		sel[key] = trimmed
	}
	return sel, nil
}

// Interval is an inclusive range of years. The zero value means a single period.
type Interval struct {
	Start int
	End   int
}

func (i Interval) IsZero() bool {
	return i.Start == 0 && i.End == 0
}

func (i Interval) Years() []int {
	if i.IsZero() || i.End < i.Start {
		return nil
	}
	years := make([]int, 0, i.End-i.Start+1)
	for year := i.Start; year <= i.End; year++ {
		years = append(years, year)
	}
	return years
}

func (i Interval) String() string {
	if i.IsZero() {
		return ""
	}
	return strconv.Itoa(i.Start) + "-" + strconv.Itoa(i.End)
}

// Result is a decoded download tagged with the format that produced it.
type Result struct {
	Format Format
	Table  *table.Table
	Grid   *grid.Grid
}

func (r Result) IsEmpty() bool {
	return r.Table == nil && r.Grid == nil
}

// Rows returns the number of table rows, or 0 for grids.
func (r Result) Rows() int {
	if r.Table == nil {
		return 0
	}
	return r.Table.Len()
}

func (r Result) Columns() int {
	if r.Table == nil {
		return 0
	}
	return len(r.Table.Columns)
}
