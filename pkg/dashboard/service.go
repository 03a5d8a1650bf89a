package dashboard

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zyntel-ai/labops/pkg/analytics/aggregate"
	"github.com/zyntel-ai/labops/pkg/analytics/dates"
	"github.com/zyntel-ai/labops/pkg/analytics/filter"
	"github.com/zyntel-ai/labops/pkg/analytics/opday"
	"github.com/zyntel-ai/labops/pkg/analytics/period"
	"github.com/zyntel-ai/labops/pkg/analytics/records"
	"github.com/zyntel-ai/labops/pkg/analytics/tat"
	"github.com/zyntel-ai/labops/pkg/analytics/units"
	"github.com/zyntel-ai/labops/pkg/common/logger"
	"github.com/zyntel-ai/labops/pkg/common/models"
	"github.com/zyntel-ai/labops/pkg/observability/metrics"
	"github.com/zyntel-ai/labops/pkg/source"
)

const serviceName = "dashboard-service"

// Publisher announces dataset changes to other replicas.
type Publisher interface {
	PublishDatasetEvent(ctx context.Context, eventType, dataset, source string) error
}

// Service holds only immutable collaborators; every run starts from freshly
// loaded rows and keeps nothing afterwards.
type Service struct {
	sources    map[Kind]source.Source
	normalizer *dates.Normalizer
	days       *opday.Resolver
	units      *units.Catalog
	metrics    *metrics.Metrics
	publisher  Publisher
	clock      func() time.Time
	topN       int
}

type Option func(*Service)

func WithSource(kind Kind, src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.sources[kind] = src
		}
	}
}

func WithNormalizer(n *dates.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

func WithResolver(r *opday.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.days = r
		}
	}
}

func WithCatalog(c *units.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.units = c
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithDefaultTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

func NewService(opts ...Option) *Service {
	svc := &Service{
		sources:    make(map[Kind]source.Source),
		normalizer: dates.NewNormalizer(),
		days:       opday.NewResolver(nil),
		units:      units.DefaultCatalog(),
		clock:      time.Now,
		topN:       10,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

func (s *Service) Catalog() *units.Catalog {
	return s.units
}

// Sources describes the configured source per dashboard.
func (s *Service) Sources() map[string]string {
	out := make(map[string]string, len(s.sources))
	for k, src := range s.sources {
		out[string(k)] = src.Describe()
	}
	return out
}

type run struct {
	kind    Kind
	now     time.Time
	pred    *filter.Predicate
	all     []records.Enriched
	matched []records.Enriched
	counts  Counts
}

func (s *Service) prepare(ctx context.Context, kind Kind, req Request) (*run, error) {
	src, ok := s.sources[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDashboard, kind)
	}
	if err := req.Filter.Validate(); err != nil {
		return nil, err
	}
	now := req.Now
	if now.IsZero() {
		now = s.clock()
	}

	rows, err := src.Load(ctx)
	if err != nil {
		s.metrics.SourceError(string(kind))
		logger.WithDashboard(string(kind)).WithError(err).WithField("source", src.Describe()).Error("Failed to load rows")
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceFailed, kind, err)
	}

	all := records.NewEnricher(kind.Schema(), s.normalizer, s.days).EnrichAll(rows)
	pred := filter.NewPredicate(req.Filter, filter.Env{Now: now, Days: s.days, Units: s.units})
	matched := filter.Apply(all, pred)

	r := &run{kind: kind, now: now, pred: pred, all: all, matched: matched}
	r.counts.Loaded = len(all)
	r.counts.Matched = len(matched)
	for _, e := range all {
		if !e.Valid() {
			r.counts.Invalid++
		}
	}
	return r, nil
}

func (s *Service) topFor(n int) int {
	if n > 0 {
		return n
	}
	return s.topN
}

// Run loads, filters and aggregates one dashboard.
func (s *Service) Run(ctx context.Context, kind Kind, req Request) (Result, error) {
	start := time.Now()
	r, err := s.prepare(ctx, kind, req)
	if err != nil {
		return Result{}, err
	}
	topN := s.topFor(req.TopN)

	res := Result{
		Dashboard:   kind,
		Filter:      r.pred.Config(),
		Window:      r.pred.Window(),
		Counts:      r.counts,
		Series:      make(map[string][]aggregate.Entry),
		Top:         make(map[string][]aggregate.Entry),
		Options:     s.options(r.all),
		GeneratedAt: r.now.UTC(),
	}
	switch kind {
	case TAT:
		s.buildTAT(&res, r, topN)
	case Revenue:
		s.buildRevenue(&res, r, req.FocusUnit, topN)
	case Numbers:
		s.buildNumbers(&res, r, topN)
	}

	s.metrics.ObserveRun(string(kind), r.counts.Loaded, r.counts.Invalid, r.counts.Matched, time.Since(start))
	logger.WithDashboard(string(kind)).WithFields(logrus.Fields{
		"records": r.counts.Loaded,
		"invalid": r.counts.Invalid,
		"matched": r.counts.Matched,
		"window":  r.pred.Window().Source,
	}).Debug("Dashboard run complete")
	return res, nil
}

func (s *Service) options(all []records.Enriched) Options {
	valid := make([]records.Enriched, 0, len(all))
	for _, e := range all {
		if e.Valid() {
			valid = append(valid, e)
		}
	}
	out := Options{
		LabSections: records.Distinct(valid, aggregate.LabSection),
		Shifts:      records.Distinct(valid, aggregate.Shift),
		Units:       records.Distinct(valid, aggregate.Unit),
		UnitGroups:  make(map[string]string),
	}
	for _, unit := range out.Units {
		if g, ok := s.units.GroupOf(unit); ok {
			out.UnitGroups[unit] = string(g)
		}
	}
	return out
}

func putSeries(res *Result, buckets map[string]aggregate.Buckets) {
	for name, b := range buckets {
		res.Series[name] = b.Sorted()
	}
}

func (s *Service) buildTAT(res *Result, r *run, topN int) {
	putSeries(res, aggregate.Aggregate(r.matched,
		aggregate.Strategy{Name: "daily", Key: aggregate.ByBusinessDay, Value: aggregate.Count},
		aggregate.Strategy{Name: "dailyDelayed", Key: aggregate.ByBusinessDay, Value: tat.DelayedCount},
		aggregate.Strategy{Name: "dailyOnTime", Key: aggregate.ByBusinessDay, Value: tat.OnTimeCount},
		aggregate.Strategy{Name: "dailyNotUploaded", Key: aggregate.ByBusinessDay, Value: tat.NotUploadedCount},
		aggregate.Strategy{Name: "hourly", Key: aggregate.ByHour, Value: aggregate.Count},
		aggregate.Strategy{Name: "hourlyDelayed", Key: aggregate.ByHour, Value: tat.DelayedCount},
		aggregate.Strategy{Name: "byLabSection", Key: aggregate.ByField(aggregate.LabSection, aggregate.Unknown), Value: aggregate.Count},
		aggregate.Strategy{Name: "byUnit", Key: aggregate.ByField(aggregate.Unit, aggregate.Unknown), Value: aggregate.Count},
		aggregate.Strategy{Name: "byShift", Key: aggregate.ByField(aggregate.Shift, aggregate.Unknown), Value: aggregate.Count},
	))
	res.Series["statuses"] = tat.StatusBuckets(r.matched).Sorted()

	res.Top["delayedUnits"] = aggregate.Fold(r.matched, aggregate.Strategy{
		Key: aggregate.ByField(aggregate.Unit, aggregate.Unknown), Value: tat.DelayedCount,
	}).TopN(topN)
	res.Top["delayedSections"] = aggregate.Fold(r.matched, aggregate.Strategy{
		Key: aggregate.ByField(aggregate.LabSection, aggregate.Unknown), Value: tat.DelayedCount,
	}).TopN(topN)
	res.Top["delayedTests"] = aggregate.Fold(r.matched, aggregate.Strategy{
		Key: aggregate.ByField(aggregate.Test, aggregate.Unknown), Value: tat.DelayedCount,
	}).TopN(topN)

	out := &TATResult{Summary: tat.Summarize(r.matched)}
	if w, ok := s.previousWindow(r); ok {
		prev := tat.Summarize(filter.Apply(r.all, r.pred.WithWindow(w)))
		out.Previous = &prev
		out.Trends = tat.CompareSummaries(out.Summary, prev)
	}
	res.TAT = out
}

// previousWindow is the comparison window for trends. Explicit date ranges
// have none.
func (s *Service) previousWindow(r *run) (filter.Window, bool) {
	ref := r.now.In(s.days.Location())
	var (
		w  period.Window
		ok bool
	)
	switch r.pred.Window().Source {
	case filter.WindowExplicit:
		return filter.Window{}, false
	case filter.WindowPeriod:
		w, ok = period.Preceding(r.pred.Config().Period, ref)
	default:
		w, ok = period.Resolve(string(period.LastMonth), ref)
	}
	if !ok {
		return filter.Window{}, false
	}
	return filter.Window{Source: filter.WindowPeriod, Period: w}, true
}

func (s *Service) buildRevenue(res *Result, r *run, focusUnit string, topN int) {
	byTest := aggregate.Strategy{Name: "byTest", Key: aggregate.ByField(aggregate.Test, aggregate.Unknown), Value: aggregate.Price}
	agg := aggregate.Aggregate(r.matched,
		aggregate.Strategy{Name: "daily", Key: aggregate.ByBusinessDay, Value: aggregate.Price},
		aggregate.Strategy{Name: "dailyTests", Key: aggregate.ByBusinessDay, Value: aggregate.Count},
		aggregate.Strategy{Name: "byLabSection", Key: aggregate.ByField(aggregate.LabSection, aggregate.Unknown), Value: aggregate.Price},
		aggregate.Strategy{Name: "byUnit", Key: aggregate.ByField(aggregate.Unit, aggregate.Unknown), Value: aggregate.Price},
		byTest,
		aggregate.Strategy{Name: "testCount", Key: aggregate.ByField(aggregate.Test, aggregate.Unknown), Value: aggregate.Count},
	)
	for _, name := range []string{"daily", "dailyTests", "byLabSection", "byUnit"} {
		res.Series[name] = agg[name].Sorted()
	}
	res.Top["testsByRevenue"] = agg["byTest"].TopN(topN)
	res.Top["testsByCount"] = agg["testCount"].TopN(topN)

	focus := strings.TrimSpace(focusUnit)
	if focus == "" {
		busiest := aggregate.Fold(r.matched, aggregate.Strategy{Key: aggregate.ByField(aggregate.Unit, ""), Value: aggregate.Count})
		if top, ok := busiest.Max(); ok {
			focus = top.Key
		}
	}
	if focus != "" {
		res.Top["focusUnitTests"] = aggregate.Within(r.matched, aggregate.Unit, focus, byTest).TopN(topN)
	}

	res.Revenue = &RevenueResult{
		Total:     agg["daily"].Total(),
		Tests:     len(r.matched),
		FocusUnit: focus,
	}
}

func (s *Service) buildNumbers(res *Result, r *run, topN int) {
	agg := aggregate.Aggregate(r.matched,
		aggregate.Strategy{Name: "daily", Key: aggregate.ByBusinessDay, Value: aggregate.Count},
		aggregate.Strategy{Name: "hourly", Key: aggregate.ByHour, Value: aggregate.Count},
		aggregate.Strategy{Name: "byLabSection", Key: aggregate.ByField(aggregate.LabSection, aggregate.Unknown), Value: aggregate.Count},
		aggregate.Strategy{Name: "byUnit", Key: aggregate.ByField(aggregate.Unit, aggregate.Unknown), Value: aggregate.Count},
		aggregate.Strategy{Name: "byShift", Key: aggregate.ByField(aggregate.Shift, aggregate.Unknown), Value: aggregate.Count},
	)
	putSeries(res, agg)
	res.Top["tests"] = aggregate.Fold(r.matched, aggregate.Strategy{
		Key: aggregate.ByField(aggregate.Test, aggregate.Unknown), Value: aggregate.Count,
	}).TopN(topN)

	out := &NumbersResult{Total: len(r.matched), Days: len(agg["daily"])}
	if out.Days > 0 {
		out.AvgDaily = int(math.Round(float64(out.Total) / float64(out.Days)))
	}
	if top, ok := agg["daily"].Max(); ok {
		out.BusiestDay = &top
	}
	if top, ok := agg["hourly"].Max(); ok {
		out.BusiestHour = &top
	}
	res.Numbers = out
}

// Verify validates a filter and reports the window it would resolve to.
func (s *Service) Verify(cfg filter.Config, now time.Time) VerifyResult {
	if now.IsZero() {
		now = s.clock()
	}
	out := VerifyResult{Valid: true, Filter: cfg.Normalized()}
	if err := cfg.Validate(); err != nil {
		out.Valid = false
		out.Error = err.Error()
		return out
	}
	out.Window = filter.ResolveWindow(cfg, filter.Env{Now: now, Days: s.days, Units: s.units})
	switch out.Window.Source {
	case filter.WindowExplicit:
		if out.Window.StartDay != "" {
			if start, _, err := s.days.DayBounds(out.Window.StartDay); err == nil {
				out.From = &start
			}
		}
		if out.Window.EndDay != "" {
			if _, end, err := s.days.DayBounds(out.Window.EndDay); err == nil {
				out.To = &end
			}
		}
	case filter.WindowPeriod:
		from, to := out.Window.Period.Start, out.Window.Period.End
		out.From, out.To = &from, &to
	}
	return out
}

// Refresh drops this replica's cached rows and tells the others to do the same.
func (s *Service) Refresh(ctx context.Context, kind Kind) error {
	if err := s.invalidate(ctx, kind, "refresh"); err != nil {
		return err
	}
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishDatasetEvent(ctx, models.DatasetRefresh, string(kind), serviceName)
}

// HandleDatasetEvent invalidates the cache of the dashboard named by the event.
// Events for unknown datasets are acknowledged and ignored.
func (s *Service) HandleDatasetEvent(ctx context.Context, event models.DatasetEvent) error {
	kind, err := ParseKind(event.Dataset)
	if err != nil {
		logger.Log.WithField("dataset", event.Dataset).WithField("event_id", event.ID).Warn("Ignoring event for unknown dataset")
		return nil
	}
	if _, ok := s.sources[kind]; !ok {
		return nil
	}
	return s.invalidate(ctx, kind, "event")
}

func (s *Service) invalidate(ctx context.Context, kind Kind, trigger string) error {
	src, ok := s.sources[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDashboard, kind)
	}
	inv, ok := src.(source.Invalidator)
	if !ok {
		return nil
	}
	if err := inv.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate %s: %w", kind, err)
	}
	s.metrics.Invalidated(string(kind), trigger)
	logger.WithDashboard(string(kind)).WithField("trigger", trigger).Info("Row cache invalidated")
	return nil
}
