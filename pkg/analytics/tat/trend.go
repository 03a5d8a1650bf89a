package tat

import "math"

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	Flat Direction = "flat"
	// New marks growth from a zero baseline, where a percentage is undefined.
	New Direction = "new"
)

type Trend struct {
	Metric        string    `json:"metric"`
	Current       float64   `json:"current"`
	Previous      float64   `json:"previous"`
	Direction     Direction `json:"direction"`
	ChangePercent float64   `json:"changePercent"`
	Improved      bool      `json:"improved"`
}

// Compare builds one trend. higherIsBetter selects whether an increase is an improvement.
func Compare(metric string, current, previous float64, higherIsBetter bool) Trend {
	t := Trend{Metric: metric, Current: current, Previous: previous, Direction: Flat}
	switch {
	case previous == 0 && current == 0:
		return t
	case previous == 0:
		t.Direction = New
		t.Improved = higherIsBetter
		return t
	}
	t.ChangePercent = math.Round(math.Abs((current-previous)/previous)*1000) / 10
	switch {
	case current > previous:
		t.Direction = Up
		t.Improved = higherIsBetter
	case current < previous:
		t.Direction = Down
		t.Improved = !higherIsBetter
	}
	return t
}

// CompareSummaries reports the trend of each averaged KPI against the
// preceding window.
func CompareSummaries(current, previous Summary) []Trend {
	return []Trend{
		Compare("delayedPercent", current.DelayedPercent, previous.DelayedPercent, false),
		Compare("avgDailyOnTime", float64(current.AvgDailyOnTime), float64(previous.AvgDailyOnTime), true),
		Compare("avgDailyDelayed", float64(current.AvgDailyDelayed), float64(previous.AvgDailyDelayed), false),
		Compare("avgDailyNotUploaded", float64(current.AvgDailyNotUploaded), float64(previous.AvgDailyNotUploaded), false),
	}
}
