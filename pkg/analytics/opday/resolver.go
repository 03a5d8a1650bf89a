// Package opday maps instants onto laboratory business days, which run from
// 08:00 to 07:59:59.999 the next calendar day in the deployment zone.
package opday

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
	"github.com/zyntel-ai/labops/pkg/analytics/dates"
)

const (
	DefaultDayStart = 8 * time.Hour
	DayLayout       = "2006-01-02"
)

type Resolver struct {
	loc      *time.Location
	dayStart time.Duration
}

type Option func(*Resolver)

// WithDayStart overrides the 08:00 business day start.
func WithDayStart(offset time.Duration) Option {
	return func(r *Resolver) {
		if offset >= 0 && offset < 24*time.Hour {
			r.dayStart = offset
		}
	}
}

func NewResolver(loc *time.Location, opts ...Option) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	r := &Resolver{loc: loc, dayStart: DefaultDayStart}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

func (r *Resolver) DayStart() time.Duration {
	return r.dayStart
}

// BusinessDay returns the YYYY-MM-DD business day an instant belongs to.
// Date-only instants have no time of day and keep their own calendar date.
func (r *Resolver) BusinessDay(inst dates.Instant) (string, bool) {
	if !inst.Valid() {
		return "", false
	}
	if inst.DateOnly() {
		return inst.Time.Format(DayLayout), true
	}
	return r.BusinessDate(inst.Time), true
}

// BusinessDate resolves a timestamp in the resolver's zone.
func (r *Resolver) BusinessDate(t time.Time) string {
	local := t.In(r.loc)
	midnight := now.With(local).BeginningOfDay()
	if local.Sub(midnight) < r.dayStart {
		midnight = midnight.AddDate(0, 0, -1)
	}
	return midnight.Format(DayLayout)
}

// Hour returns the local hour of day. Date-only instants carry no hour.
func (r *Resolver) Hour(inst dates.Instant) (int, bool) {
	if !inst.Valid() || inst.DateOnly() {
		return 0, false
	}
	return inst.Time.In(r.loc).Hour(), true
}

// DayBounds returns the half-open window [day 08:00, next day 08:00).
func (r *Resolver) DayBounds(day string) (time.Time, time.Time, error) {
	d, err := time.ParseInLocation(DayLayout, day, r.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid business day %q: %w", day, err)
	}
	start := now.With(d).BeginningOfDay().Add(r.dayStart)
	end := now.With(d.AddDate(0, 0, 1)).BeginningOfDay().Add(r.dayStart)
	return start, end, nil
}
