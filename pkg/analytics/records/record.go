// Package records holds the flat rows the dashboards consume and the derived
// fields attached to them once per pipeline run.
package records

import (
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Record is one flat row as decoded from the backend API, a table or a CSV file.
type Record map[string]interface{}

// Text returns the field as a trimmed string; missing and null fields report false.
func (r Record) Text(field string) (string, bool) {
	if field == "" {
		return "", false
	}
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// FirstText returns the first non-empty field among candidates.
func (r Record) FirstText(fields []string) (string, bool) {
	for _, field := range fields {
		if s, ok := r.Text(field); ok {
			return s, true
		}
	}
	return "", false
}

// Float coerces the field to a number; missing or non-numeric values are 0.
func (r Record) Float(field string) float64 {
	f, _ := r.Number(field)
	return f
}

// Number coerces the field to a number and reports whether it held one.
func (r Record) Number(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	if s, isString := v.(string); isString {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FirstNumber returns the first numeric field among candidates.
func (r Record) FirstNumber(fields []string) (float64, bool) {
	for _, field := range fields {
		if f, ok := r.Number(field); ok {
			return f, true
		}
	}
	return 0, false
}

// Distinct returns the sorted, de-duplicated non-empty values picked by selector.
func Distinct(rows []Enriched, selector func(Enriched) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, row := range rows {
		v := selector(row)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
