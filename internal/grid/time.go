package grid

import (
	"fmt"
	"strings"
	"time"
)

var unitSeconds = map[string]float64{
	"seconds": 1,
	"second":  1,
	"minutes": 60,
	"minute":  60,
	"hours":   3600,
	"hour":    3600,
	"days":    86400,
	"day":     86400,
}

var epochLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-1-2 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2",
}

// alignTimeUnits returns b's coordinate values expressed in a's units when
// both carry CF "<unit> since <epoch>" units with different epochs.
func alignTimeUnits(a, b *Variable) ([]float64, error) {
	unitsA, okA := textAttribute(a, "units")
	unitsB, okB := textAttribute(b, "units")
	if !okA || !okB || unitsA == unitsB {
		return b.Values, nil
	}
	stepA, epochA, okA := parseTimeUnits(unitsA)
	stepB, epochB, okB := parseTimeUnits(unitsB)
	if !okA || !okB {
		return nil, fmt.Errorf("%w: coordinate %s has units %q and %q", ErrMergeConflict, a.Name, unitsA, unitsB)
	}
	offset := epochB.Sub(epochA).Seconds()
	out := make([]float64, len(b.Values))
	for i, value := range b.Values {
		out[i] = (value*stepB + offset) / stepA
	}
	return out, nil
}

func parseTimeUnits(units string) (float64, time.Time, bool) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, false
	}
	step, ok := unitSeconds[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		return 0, time.Time{}, false
	}
	epoch := strings.TrimSpace(parts[1])
	epoch = strings.TrimSuffix(epoch, " UTC")
	for _, layout := range epochLayouts {
		if parsed, err := time.Parse(layout, epoch); err == nil {
			return step, parsed, true
		}
	}
	return 0, time.Time{}, false
}

func textAttribute(v *Variable, name string) (string, bool) {
	value, ok := v.Attribute(name)
	if !ok {
		return "", false
	}
	text, ok := value.(string)
	return strings.TrimSpace(text), ok
}
