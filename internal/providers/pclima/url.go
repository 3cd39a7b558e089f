package pclima

import (
	"fmt"
	"net/url"
	"strings"

	"pclima/internal/model"
)

// BuildURL fills the {key} placeholders of pathTemplate from sel and joins
// the result to baseURL. The {ano} placeholder takes period instead of the
// selection value. Placeholders that resolve to nothing drop their segment.
func BuildURL(baseURL, pathTemplate string, sel model.Selection, period string) (string, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return "", &ValidationError{Field: "base url", Message: "is required"}
	}
	if _, err := url.Parse(base); err != nil {
		return "", &ValidationError{Field: "base url", Message: err.Error()}
	}

	segments := make([]string, 0)
	for _, segment := range strings.Split(strings.Trim(pathTemplate, "/"), "/") {
		filled, err := fillSegment(segment, sel, period)
		if err != nil {
			return "", err
		}
		if filled != "" {
			segments = append(segments, filled)
		}
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/"), nil
}

func fillSegment(segment string, sel model.Selection, period string) (string, error) {
	var b strings.Builder
	rest := segment
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("pclima: unterminated placeholder in %q", segment)
		}
		b.WriteString(rest[:open])
		key := rest[open+1 : open+end]
		value := sel.Get(key)
		if key == model.KeyYearRange {
			value = strings.TrimSpace(period)
		}
		b.WriteString(escapePath(value))
		rest = rest[open+end+1:]
	}
	return b.String(), nil
}

// escapePath escapes each slash-separated piece so values such as point
// coordinates keep their segments.
func escapePath(value string) string {
	if value == "" {
		return ""
	}
	pieces := strings.Split(value, "/")
	for i, piece := range pieces {
		pieces[i] = url.PathEscape(strings.TrimSpace(piece))
	}
	return strings.Join(pieces, "/")
}
