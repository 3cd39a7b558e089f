package pclima

import (
	"fmt"
	"strconv"
	"strings"

	"pclima/internal/model"
)

// DetectInterval reads the "YYYY-YYYY" year range of sel. A missing value or
// a single year yields the zero interval. Other malformed values yield the
// zero interval too, unless strict is set.
func DetectInterval(sel model.Selection, strict bool) (model.Interval, error) {
	raw := sel.Get(model.KeyYearRange)
	if raw == "" {
		return model.Interval{}, nil
	}
	if _, ok := parseYear(raw); ok {
		return model.Interval{}, nil
	}

	interval, err := parseInterval(raw)
	if err != nil {
		if strict {
			return model.Interval{}, err
		}
		return model.Interval{}, nil
	}
	return interval, nil
}

func parseInterval(raw string) (model.Interval, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return model.Interval{}, &ValidationError{Field: model.KeyYearRange, Message: fmt.Sprintf("%q is not a YYYY-YYYY range", raw)}
	}
	start, okStart := parseYear(parts[0])
	end, okEnd := parseYear(parts[1])
	if !okStart || !okEnd {
		return model.Interval{}, &ValidationError{Field: model.KeyYearRange, Message: fmt.Sprintf("%q is not a YYYY-YYYY range", raw)}
	}
	if start > end {
		return model.Interval{}, &ValidationError{Field: model.KeyYearRange, Message: fmt.Sprintf("start %d is after end %d", start, end)}
	}
	return model.Interval{Start: start, End: end}, nil
}

func parseYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}
