package tat

import (
	"math"

	"github.com/zyntel-ai/labops/pkg/analytics/aggregate"
	"github.com/zyntel-ai/labops/pkg/analytics/records"
)

type DayCount struct {
	Day     string `json:"day"`
	Delayed int    `json:"delayed"`
	Total   int    `json:"total"`
}

type HourCount struct {
	Hour    string `json:"hour"`
	Samples int    `json:"samples"`
}

type Summary struct {
	Total               int        `json:"total"`
	Delayed             int        `json:"delayed"`
	OnTime              int        `json:"onTime"`
	NotUploaded         int        `json:"notUploaded"`
	DelayedPercent      float64    `json:"delayedPercent"`
	OnTimePercent       float64    `json:"onTimePercent"`
	Days                int        `json:"days"`
	AvgDailyDelayed     int        `json:"avgDailyDelayed"`
	AvgDailyOnTime      int        `json:"avgDailyOnTime"`
	AvgDailyNotUploaded int        `json:"avgDailyNotUploaded"`
	AvgMinutesLate      float64    `json:"avgMinutesLate"`
	MostDelayedDay      *DayCount  `json:"mostDelayedDay,omitempty"`
	MostDelayedHour     *HourCount `json:"mostDelayedHour,omitempty"`
}

func indicator(pred func(Status) bool) aggregate.ValueFunc {
	return func(r records.Enriched) float64 {
		if pred(StatusOf(r)) {
			return 1
		}
		return 0
	}
}

// Per-row indicators for folding status counts into buckets.
var (
	DelayedCount     = indicator(Status.Delayed)
	OnTimeCount      = indicator(Status.OnTime)
	NotUploadedCount = indicator(func(s Status) bool { return s == NotUploaded })

	// ByStatus keys rows by their normalized status.
	ByStatus aggregate.KeyFunc = func(r records.Enriched) (string, bool) {
		return string(StatusOf(r)), true
	}
)

// StatusBuckets counts rows per status, every known status present.
func StatusBuckets(rows []records.Enriched) aggregate.Buckets {
	out := aggregate.Buckets{}
	for _, s := range Statuses {
		out[string(s)] = 0
	}
	for _, r := range rows {
		out[string(StatusOf(r))]++
	}
	return out
}

// Summarize computes the KPI tiles over already filtered rows. Rows are
// expected to be valid; days are business days.
func Summarize(rows []records.Enriched) Summary {
	daily := aggregate.Aggregate(rows,
		aggregate.Strategy{Name: "total", Key: aggregate.ByBusinessDay, Value: aggregate.Count},
		aggregate.Strategy{Name: "delayed", Key: aggregate.ByBusinessDay, Value: DelayedCount},
		aggregate.Strategy{Name: "onTime", Key: aggregate.ByBusinessDay, Value: OnTimeCount},
		aggregate.Strategy{Name: "notUploaded", Key: aggregate.ByBusinessDay, Value: NotUploadedCount},
	)

	s := Summary{Total: len(rows), Days: len(daily["total"])}
	for _, r := range rows {
		st := StatusOf(r)
		switch {
		case st.Delayed():
			s.Delayed++
		case st.OnTime():
			s.OnTime++
		case st == NotUploaded:
			s.NotUploaded++
		}
	}
	s.DelayedPercent = percent(s.Delayed, s.Total)
	s.OnTimePercent = percent(s.OnTime, s.Total)
	s.AvgDailyDelayed = average(daily["delayed"])
	s.AvgDailyOnTime = average(daily["onTime"])
	s.AvgDailyNotUploaded = average(daily["notUploaded"])

	var late float64
	var timed int
	for _, r := range rows {
		if m, ok := MinutesLate(r); ok {
			late += m
			timed++
		}
	}
	if timed > 0 {
		s.AvgMinutesLate = math.Round(late/float64(timed)*10) / 10
	}

	if top, ok := daily["delayed"].Max(); ok {
		s.MostDelayedDay = &DayCount{
			Day:     top.Key,
			Delayed: int(top.Value),
			Total:   int(daily["total"][top.Key]),
		}
	}

	hourly := aggregate.Fold(rows, aggregate.Strategy{Key: aggregate.ByHour, Value: aggregate.Count})
	if top, ok := hourly.Max(); ok && top.Value > 0 {
		s.MostDelayedHour = &HourCount{Hour: top.Key, Samples: int(top.Value)}
	}
	return s
}

// percent rounds to one decimal place.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

func average(b aggregate.Buckets) int {
	if len(b) == 0 {
		return 0
	}
	return int(math.Round(b.Total() / float64(len(b))))
}
