// Package tat classifies turn-around-time rows and derives the dashboard KPIs.
package tat

import (
	"math"
	"strings"

	"github.com/zyntel-ai/labops/pkg/analytics/dates"
	"github.com/zyntel-ai/labops/pkg/analytics/records"
)

type Status string

const (
	OverDelayed    Status = "Over Delayed"
	DelayedUnder15 Status = "Delayed <15min"
	OnTime         Status = "On Time"
	Swift          Status = "Swift"
	NotUploaded    Status = "Not Uploaded"
)

// Statuses lists the known statuses in chart order.
var Statuses = []Status{OverDelayed, DelayedUnder15, OnTime, Swift, NotUploaded}

const (
	overDelayedAfter = 15.0
	swiftBefore      = -30.0
	legacyUnder15    = "Delayed for less than 15 minutes"
)

func (s Status) Delayed() bool {
	return s == OverDelayed || s == DelayedUnder15
}

func (s Status) OnTime() bool {
	return s == OnTime || s == Swift
}

// Normalize maps a stored status label onto a Status. Empty labels mean the
// result was never uploaded; unknown labels are kept verbatim.
func Normalize(raw string) Status {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NotUploaded
	}
	if strings.EqualFold(raw, legacyUnder15) {
		return DelayedUnder15
	}
	for _, s := range Statuses {
		if strings.EqualFold(raw, string(s)) {
			return s
		}
	}
	return Status(raw)
}

// Classify derives a status from the expected and actual time-out. Minutes
// late d: d >= 15 over delayed, 0 < d < 15 delayed, -30 <= d <= 0 on time,
// d < -30 swift.
func Classify(expected, actual dates.Instant) Status {
	if !actual.Valid() || !expected.Valid() {
		return NotUploaded
	}
	d := actual.Time.Sub(expected.Time).Minutes()
	switch {
	case d >= overDelayedAfter:
		return OverDelayed
	case d > 0:
		return DelayedUnder15
	case d >= swiftBefore:
		return OnTime
	default:
		return Swift
	}
}

// StatusOf prefers the stored label and falls back to classifying the
// expected and actual time-out.
func StatusOf(r records.Enriched) Status {
	if r.DelayStatus != "" {
		return Normalize(r.DelayStatus)
	}
	return Classify(r.ExpectedOut, r.ActualOut)
}

// MinutesLate is the signed delay in minutes taken from the time-outs, or
// from the stored delay when either time-out is missing.
func MinutesLate(r records.Enriched) (float64, bool) {
	if r.ExpectedOut.Valid() && r.ActualOut.Valid() {
		return math.Round(r.ActualOut.Time.Sub(r.ExpectedOut.Time).Minutes()), true
	}
	if r.HasMinutes {
		return r.Minutes, true
	}
	return 0, false
}
