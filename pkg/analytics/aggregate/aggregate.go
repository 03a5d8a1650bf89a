// Package aggregate folds enriched rows into keyed count and sum buckets.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zyntel-ai/labops/pkg/analytics/records"
)

// Unknown is the bucket label for rows whose category field is empty.
const Unknown = "UNKNOWN"

// Buckets maps a bucket key to its accumulated value. Keys are created on
// first contribution.
type Buckets map[string]float64

// KeyFunc returns the bucket a row contributes to, or false to skip the row.
type KeyFunc func(records.Enriched) (string, bool)

type ValueFunc func(records.Enriched) float64

// Field extracts a categorical value from a row.
type Field func(records.Enriched) string

var (
	LabSection  Field = func(r records.Enriched) string { return r.LabSection }
	Shift       Field = func(r records.Enriched) string { return r.Shift }
	Unit        Field = func(r records.Enriched) string { return r.Unit }
	Test        Field = func(r records.Enriched) string { return r.Test }
	DelayStatus Field = func(r records.Enriched) string { return r.DelayStatus }
)

type Strategy struct {
	Name  string
	Key   KeyFunc
	Value ValueFunc
}

func ByBusinessDay(r records.Enriched) (string, bool) {
	return r.BusinessDay, r.BusinessDay != ""
}

// ByHour keys rows by the zero-padded local hour "00".."23".
func ByHour(r records.Enriched) (string, bool) {
	if !r.HasHour {
		return "", false
	}
	return fmt.Sprintf("%02d", r.Hour), true
}

// ByField keys rows by a categorical value; empty values land in fallback,
// or are skipped when fallback is empty.
func ByField(f Field, fallback string) KeyFunc {
	return func(r records.Enriched) (string, bool) {
		v := strings.TrimSpace(f(r))
		if v == "" {
			return fallback, fallback != ""
		}
		return v, true
	}
}

func Count(records.Enriched) float64 { return 1 }

// Price sums the already coerced price; non-numeric source values contribute 0.
func Price(r records.Enriched) float64 { return r.Price }

// Fold applies one strategy. Empty input yields empty, non-nil buckets.
func Fold(rows []records.Enriched, s Strategy) Buckets {
	out := Buckets{}
	value := s.Value
	if value == nil {
		value = Count
	}
	for _, r := range rows {
		key, ok := s.Key(r)
		if !ok {
			continue
		}
		out[key] += value(r)
	}
	return out
}

// Aggregate runs every strategy over rows and returns the buckets by strategy name.
func Aggregate(rows []records.Enriched, strategies ...Strategy) map[string]Buckets {
	out := make(map[string]Buckets, len(strategies))
	for _, s := range strategies {
		out[s.Name] = Fold(rows, s)
	}
	return out
}

// Within re-filters rows to those whose field equals value (case-insensitive)
// and folds them with s.
func Within(rows []records.Enriched, f Field, value string, s Strategy) Buckets {
	scoped := make([]records.Enriched, 0, len(rows))
	for _, r := range rows {
		if strings.EqualFold(strings.TrimSpace(f(r)), strings.TrimSpace(value)) {
			scoped = append(scoped, r)
		}
	}
	return Fold(scoped, s)
}

type Entry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Sorted returns the entries in ascending key order, which is chronological
// for day and hour keys.
func (b Buckets) Sorted() []Entry {
	out := make([]Entry, 0, len(b))
	for k, v := range b {
		out = append(out, Entry{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// TopN ranks by value descending, breaking ties by key ascending. n <= 0
// returns every entry.
func (b Buckets) TopN(n int) []Entry {
	out := b.Sorted()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Max returns the highest entry, ties going to the smallest key.
func (b Buckets) Max() (Entry, bool) {
	top := b.TopN(1)
	if len(top) == 0 {
		return Entry{}, false
	}
	return top[0], true
}

func (b Buckets) Total() float64 {
	var sum float64
	for _, v := range b {
		sum += v
	}
	return sum
}
