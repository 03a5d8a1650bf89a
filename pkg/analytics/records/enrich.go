package records

import (
	"github.com/zyntel-ai/labops/pkg/analytics/dates"
	"github.com/zyntel-ai/labops/pkg/analytics/opday"
)

// Schema names the fields a dashboard's rows use for each concept. Every
// concept lists candidate field names tried in order; the first non-empty
// value wins, so CSV exports and backend tables share one schema. Minutes is
// a stored delay in minutes, used when the time-outs are absent.
type Schema struct {
	Name        string
	DateFields  []string
	HourFields  []string
	LabSection  []string
	Shift       []string
	Unit        []string
	Test        []string
	Price       []string
	DelayStatus []string
	Minutes     []string
	ExpectedOut []string
	ActualOut   []string
}

var (
	TATSchema = Schema{
		Name:        "tat",
		DateFields:  []string{"Timestamp", "Date", "date"},
		HourFields:  []string{"Time_In", "request_time_in"},
		LabSection:  []string{"LabSection", "lab_section"},
		Shift:       []string{"Shift", "shift"},
		Unit:        []string{"Hospital_Unit", "unit"},
		Test:        []string{"TestName", "test_name"},
		DelayStatus: []string{"Delay_Status", "request_delay_status"},
		Minutes:     []string{"daily_tat"},
		ExpectedOut: []string{"Expected_Time_Out", "expected_time_out"},
		ActualOut:   []string{"Actual_Time_Out", "actual_time_out"},
	}
	RevenueSchema = Schema{
		Name:        "revenue",
		DateFields:  []string{"Date", "EncounterDate", "date"},
		LabSection:  []string{"LabSection", "lab_section"},
		Shift:       []string{"Shift", "shift"},
		Unit:        []string{"Hospital_Unit", "unit"},
		Test:        []string{"TestName", "test_name"},
		Price:       []string{"Price", "price"},
		ExpectedOut: []string{"Expected_Time_Out", "expected_time_out"},
		ActualOut:   []string{"Actual_Time_Out", "actual_time_out"},
	}
	NumbersSchema = Schema{
		Name:       "numbers",
		DateFields: []string{"date", "time_received"},
		HourFields: []string{"request_time_in", "time_received"},
		LabSection: []string{"lab_section", "LabSection"},
		Shift:      []string{"shift", "Shift"},
		Unit:       []string{"unit", "Hospital_Unit"},
		Test:       []string{"test_name", "TestName"},
	}
)

// Enriched is a source row plus the fields derived from it. Source is shared
// with the input and must be treated as read-only. HasMinutes is false when
// the row stores no delay.
type Enriched struct {
	Source      Record
	Instant     dates.Instant
	BusinessDay string
	Hour        int
	HasHour     bool
	LabSection  string
	Shift       string
	Unit        string
	Test        string
	Price       float64
	DelayStatus string
	Minutes     float64
	HasMinutes  bool
	ExpectedOut dates.Instant
	ActualOut   dates.Instant
}

func (e Enriched) Valid() bool {
	return e.Instant.Valid()
}

type Enricher struct {
	schema     Schema
	normalizer *dates.Normalizer
	days       *opday.Resolver
}

func NewEnricher(schema Schema, normalizer *dates.Normalizer, days *opday.Resolver) *Enricher {
	if normalizer == nil {
		normalizer = dates.NewNormalizer()
	}
	if days == nil {
		days = opday.NewResolver(nil)
	}
	return &Enricher{schema: schema, normalizer: normalizer, days: days}
}

func (e *Enricher) Schema() Schema {
	return e.schema
}

func (e *Enricher) Enrich(r Record) Enriched {
	out := Enriched{Source: r}
	out.Instant = e.firstInstant(r, e.schema.DateFields)
	out.BusinessDay, _ = e.days.BusinessDay(out.Instant)

	hourInstant := out.Instant
	if len(e.schema.HourFields) > 0 {
		hourInstant = e.firstInstant(r, e.schema.HourFields)
	}
	out.Hour, out.HasHour = e.days.Hour(hourInstant)

	out.LabSection, _ = r.FirstText(e.schema.LabSection)
	out.Shift, _ = r.FirstText(e.schema.Shift)
	out.Unit, _ = r.FirstText(e.schema.Unit)
	out.Test, _ = r.FirstText(e.schema.Test)
	out.DelayStatus, _ = r.FirstText(e.schema.DelayStatus)
	out.Price, _ = r.FirstNumber(e.schema.Price)
	out.Minutes, out.HasMinutes = r.FirstNumber(e.schema.Minutes)
	out.ExpectedOut = e.firstInstant(r, e.schema.ExpectedOut)
	out.ActualOut = e.firstInstant(r, e.schema.ActualOut)
	return out
}

// EnrichAll enriches every row exactly once, preserving order.
func (e *Enricher) EnrichAll(rows []Record) []Enriched {
	out := make([]Enriched, len(rows))
	for i, r := range rows {
		out[i] = e.Enrich(r)
	}
	return out
}

func (e *Enricher) firstInstant(r Record, fields []string) dates.Instant {
	for _, field := range fields {
		v, ok := r[field]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		return e.normalizer.ParseValue(v)
	}
	return dates.Invalid
}
