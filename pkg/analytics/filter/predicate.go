package filter

import (
	"strings"
	"time"

	"github.com/zyntel-ai/labops/pkg/analytics/opday"
	"github.com/zyntel-ai/labops/pkg/analytics/period"
	"github.com/zyntel-ai/labops/pkg/analytics/records"
	"github.com/zyntel-ai/labops/pkg/analytics/units"
)

type WindowSource string

const (
	WindowNone     WindowSource = "none"
	WindowExplicit WindowSource = "explicit"
	WindowPeriod   WindowSource = "period"
)

// Window is the effective date constraint. Explicit bounds are business days
// compared inclusively; period bounds are instants compared inclusively.
type Window struct {
	Source   WindowSource  `json:"source"`
	StartDay string        `json:"startDay,omitempty"`
	EndDay   string        `json:"endDay,omitempty"`
	Period   period.Window `json:"period"`
}

// Env carries the collaborators a predicate needs; nothing is read from globals.
type Env struct {
	Now   time.Time
	Days  *opday.Resolver
	Units *units.Catalog
}

func (e Env) withDefaults() Env {
	if e.Days == nil {
		e.Days = opday.NewResolver(nil)
	}
	if e.Units == nil {
		e.Units = units.DefaultCatalog()
	}
	if e.Now.IsZero() {
		e.Now = time.Now()
	}
	return e
}

// ResolveWindow picks exactly one of explicit dates, named period or nothing.
func ResolveWindow(cfg Config, env Env) Window {
	cfg = cfg.Normalized()
	env = env.withDefaults()
	if cfg.HasExplicitDates() {
		w := Window{Source: WindowExplicit, StartDay: canonicalDay(cfg.StartDate), EndDay: canonicalDay(cfg.EndDate)}
		if w.StartDay != "" || w.EndDay != "" {
			return w
		}
	}
	if pw, ok := period.Resolve(cfg.Period, env.Now.In(env.Days.Location())); ok {
		return Window{Source: WindowPeriod, Period: pw}
	}
	return Window{Source: WindowNone}
}

func canonicalDay(v string) string {
	if v == "" {
		return ""
	}
	d, err := time.Parse(opday.DayLayout, v)
	if err != nil {
		return ""
	}
	return d.Format(opday.DayLayout)
}

type Predicate struct {
	cfg    Config
	window Window
	units  *units.Catalog
}

func NewPredicate(cfg Config, env Env) *Predicate {
	env = env.withDefaults()
	return &Predicate{
		cfg:    cfg.Normalized(),
		window: ResolveWindow(cfg, env),
		units:  env.Units,
	}
}

// WithWindow returns a copy evaluating the same categorical filters over another window.
func (p *Predicate) WithWindow(w Window) *Predicate {
	cp := *p
	cp.window = w
	return &cp
}

func (p *Predicate) Window() Window {
	return p.window
}

func (p *Predicate) Config() Config {
	return p.cfg
}

// Match reports whether a row passes every condition; the first failure short-circuits.
func (p *Predicate) Match(r records.Enriched) bool {
	if !r.Valid() {
		return false
	}
	if !p.matchWindow(r) {
		return false
	}
	if !matchCategory(p.cfg.LabSection, r.LabSection) {
		return false
	}
	if !matchCategory(p.cfg.Shift, r.Shift) {
		return false
	}
	return p.matchUnit(r.Unit)
}

func (p *Predicate) matchWindow(r records.Enriched) bool {
	switch p.window.Source {
	case WindowExplicit:
		if p.window.StartDay != "" && r.BusinessDay < p.window.StartDay {
			return false
		}
		if p.window.EndDay != "" && r.BusinessDay > p.window.EndDay {
			return false
		}
		return true
	case WindowPeriod:
		return p.window.Period.Contains(r.Instant.Time)
	default:
		return true
	}
}

func matchCategory(want, got string) bool {
	if isAll(want) {
		return true
	}
	if got == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(got), want)
}

func (p *Predicate) matchUnit(unit string) bool {
	want := p.cfg.HospitalUnit
	if isAll(want) {
		return true
	}
	if unit == "" {
		return false
	}
	if group, ok := units.LookupGroup(want); ok {
		return p.units.Contains(group, unit)
	}
	return strings.EqualFold(strings.TrimSpace(unit), want)
}

// Apply returns the matching rows in input order. The input slice is not modified.
func Apply(rows []records.Enriched, p *Predicate) []records.Enriched {
	out := make([]records.Enriched, 0, len(rows))
	for _, r := range rows {
		if p.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
