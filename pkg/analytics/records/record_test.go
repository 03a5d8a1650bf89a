package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zyntel-ai/labops/pkg/analytics/dates"
	"github.com/zyntel-ai/labops/pkg/analytics/opday"
)

func TestRecordFloatCoercion(t *testing.T) {
	r := Record{
		"a": "100",
		"b": "abc",
		"c": nil,
		"d": 12.5,
		"f": " 40 ",
	}
	assert.Equal(t, 100.0, r.Float("a"))
	assert.Equal(t, 0.0, r.Float("b"))
	assert.Equal(t, 0.0, r.Float("c"))
	assert.Equal(t, 12.5, r.Float("d"))
	assert.Equal(t, 40.0, r.Float("f"))
	assert.Equal(t, 0.0, r.Float("missing"))
}

func TestRecordText(t *testing.T) {
	r := Record{"s": " Hematology ", "n": 42, "nil": nil, "empty": ""}
	v, ok := r.Text("s")
	require.True(t, ok)
	assert.Equal(t, "Hematology", v)

	v, ok = r.Text("n")
	require.True(t, ok)
	assert.Equal(t, "42", v)

	_, ok = r.Text("nil")
	assert.False(t, ok)
	_, ok = r.Text("empty")
	assert.False(t, ok)
	_, ok = r.Text("absent")
	assert.False(t, ok)
	_, ok = r.Text("")
	assert.False(t, ok)
}

func TestEnrichTATRow(t *testing.T) {
	e := NewEnricher(TATSchema, dates.NewNormalizer(), opday.NewResolver(time.UTC))
	src := Record{
		"Timestamp":     "2025-06-01 07:30:00.000",
		"Time_In":       "6/1/2025 20:25",
		"LabSection":    "Chemistry",
		"Shift":         "Night",
		"Hospital_Unit": "icu",
		"Delay_Status":  "On Time",
	}

	got := e.Enrich(src)
	require.True(t, got.Valid())
	assert.Equal(t, "2025-05-31", got.BusinessDay)
	require.True(t, got.HasHour)
	assert.Equal(t, 20, got.Hour)
	assert.Equal(t, "Chemistry", got.LabSection)
	assert.Equal(t, "icu", got.Unit)
	assert.Equal(t, "On Time", got.DelayStatus)

	// source fields are untouched and nothing is added to the map
	assert.Len(t, src, 6)
	assert.Equal(t, "icu", src["Hospital_Unit"])
}

func TestEnrichTATBackendRow(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	e := NewEnricher(TATSchema, dates.NewNormalizer(), opday.NewResolver(nairobi))
	got := e.Enrich(Record{
		"date":                 "Sun, 23 Feb 2025 00:00:00 GMT",
		"request_time_in":      "2025-02-23 06:15:00",
		"lab_section":          "chemistry",
		"unit":                 "icu",
		"shift":                "day",
		"request_delay_status": "Delayed for less than 15 minutes",
		"daily_tat":            "12",
	})
	require.True(t, got.Valid())
	// a DATE column keeps its own calendar day
	assert.Equal(t, "2025-02-23", got.BusinessDay)
	require.True(t, got.HasHour)
	assert.Equal(t, 9, got.Hour)
	assert.Equal(t, "chemistry", got.LabSection)
	assert.Equal(t, "icu", got.Unit)
	assert.Equal(t, "day", got.Shift)
	assert.Equal(t, "Delayed for less than 15 minutes", got.DelayStatus)
	require.True(t, got.HasMinutes)
	assert.Equal(t, 12.0, got.Minutes)
}

func TestFirstTextAndNumber(t *testing.T) {
	r := Record{"a": "", "b": " x ", "n": "abc", "m": "7"}
	v, ok := r.FirstText([]string{"missing", "a", "b"})
	require.True(t, ok)
	assert.Equal(t, "x", v)
	_, ok = r.FirstText(nil)
	assert.False(t, ok)

	f, ok := r.FirstNumber([]string{"n", "m"})
	require.True(t, ok)
	assert.Equal(t, 7.0, f)
	_, ok = r.Number("a")
	assert.False(t, ok)
}

func TestEnrichFallsBackToSecondDateField(t *testing.T) {
	e := NewEnricher(TATSchema, nil, nil)
	got := e.Enrich(Record{"Timestamp": "", "Date": "6/25/2025"})
	require.True(t, got.Valid())
	assert.Equal(t, "2025-06-25", got.BusinessDay)
	// no Time_In, so no hour
	assert.False(t, got.HasHour)
}

func TestEnrichInvalidDate(t *testing.T) {
	e := NewEnricher(RevenueSchema, nil, nil)
	got := e.Enrich(Record{"Date": "garbage", "Price": "abc"})
	assert.False(t, got.Valid())
	assert.Empty(t, got.BusinessDay)
	assert.Equal(t, 0.0, got.Price)
}

func TestEnrichNumbersHourFromArrival(t *testing.T) {
	eat := time.FixedZone("EAT", 3*60*60)
	e := NewEnricher(NumbersSchema, nil, opday.NewResolver(eat))
	got := e.Enrich(Record{
		"date":            "2025-06-25T04:00:00Z",
		"request_time_in": "2025-06-25T17:25:00.000Z",
		"unit":            "ANNEX",
	})
	require.True(t, got.Valid())
	assert.Equal(t, "2025-06-24", got.BusinessDay)
	assert.Equal(t, 20, got.Hour)
	assert.Equal(t, "ANNEX", got.Unit)
}

func TestEnrichAllPreservesOrder(t *testing.T) {
	e := NewEnricher(RevenueSchema, nil, nil)
	rows := []Record{{"Date": "2025-06-02", "Price": 5}, {"Date": "2025-06-01", "Price": "7"}}
	got := e.EnrichAll(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-06-02", got[0].BusinessDay)
	assert.Equal(t, 7.0, got[1].Price)
	assert.Empty(t, e.EnrichAll(nil))
}

func TestDistinct(t *testing.T) {
	rows := []Enriched{{Shift: "night"}, {Shift: "day"}, {Shift: ""}, {Shift: "night"}}
	assert.Equal(t, []string{"day", "night"}, Distinct(rows, func(e Enriched) string { return e.Shift }))
	assert.Empty(t, Distinct(nil, func(e Enriched) string { return e.Shift }))
}
