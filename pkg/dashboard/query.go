package dashboard

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/zyntel-ai/labops/pkg/analytics/aggregate"
	"github.com/zyntel-ai/labops/pkg/analytics/dsl"
	"github.com/zyntel-ai/labops/pkg/analytics/tat"
)

// strategyFor builds the fold for one query group. Revenue sums prices,
// the other dashboards count rows.
func strategyFor(kind Kind, g dsl.Group) aggregate.Strategy {
	value := aggregate.ValueFunc(aggregate.Count)
	if kind == Revenue {
		value = aggregate.Price
	}
	s := aggregate.Strategy{Name: string(g), Value: value}
	switch g {
	case dsl.GroupDay:
		s.Key = aggregate.ByBusinessDay
	case dsl.GroupHour:
		s.Key = aggregate.ByHour
	case dsl.GroupLabSection:
		s.Key = aggregate.ByField(aggregate.LabSection, aggregate.Unknown)
	case dsl.GroupShift:
		s.Key = aggregate.ByField(aggregate.Shift, aggregate.Unknown)
	case dsl.GroupUnit:
		s.Key = aggregate.ByField(aggregate.Unit, aggregate.Unknown)
	case dsl.GroupTest:
		s.Key = aggregate.ByField(aggregate.Test, aggregate.Unknown)
	case dsl.GroupStatus:
		s.Key = tat.ByStatus
	}
	return s
}

// series renders buckets for a group. Day and hour keep their full sorted
// series; categorical groups are ranked and cut at limit.
func series(g dsl.Group, b aggregate.Buckets, limit int) []aggregate.Entry {
	if g == dsl.GroupDay || g == dsl.GroupHour {
		return b.Sorted()
	}
	return b.TopN(limit)
}

// Query runs an ad-hoc grouping such as
// "select unit, day where period = lastMonth limit 5" against one dashboard.
func (s *Service) Query(ctx context.Context, kind Kind, input string) (QueryResult, error) {
	parsed, err := dsl.Parse(input)
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	cfg, err := parsed.ToConfig()
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	r, err := s.prepare(ctx, kind, Request{Filter: cfg})
	if err != nil {
		return QueryResult{}, err
	}

	strategies := make([]aggregate.Strategy, 0, len(parsed.Groups))
	for _, g := range parsed.Groups {
		strategies = append(strategies, strategyFor(kind, g))
	}
	folded := aggregate.Aggregate(r.matched, strategies...)

	groups := make(map[string][]aggregate.Entry, len(parsed.Groups))
	for _, g := range parsed.Groups {
		groups[string(g)] = series(g, folded[string(g)], parsed.Limit)
	}
	return QueryResult{
		Dashboard: kind,
		Filter:    r.pred.Config(),
		Window:    r.pred.Window(),
		Counts:    r.counts,
		Groups:    groups,
	}, nil
}

// VerifyDSL reports whether a query parses and maps onto a filter.
func (s *Service) VerifyDSL(input string) error {
	parsed, err := dsl.Parse(input)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if _, err := parsed.ToConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return nil
}

// Export writes one grouping of the filtered rows as CSV with a
// "group,value" header.
func (s *Service) Export(ctx context.Context, kind Kind, req Request, group string, w io.Writer) error {
	g, ok := dsl.LookupGroup(group)
	if !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidQuery, dsl.ErrUnknownGroup, group)
	}
	r, err := s.prepare(ctx, kind, req)
	if err != nil {
		return err
	}
	b := aggregate.Fold(r.matched, strategyFor(kind, g))

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{string(g), "value"}); err != nil {
		return err
	}
	for _, e := range series(g, b, req.TopN) {
		if err := writer.Write([]string{e.Key, formatValue(e.Value)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
