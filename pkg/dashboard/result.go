package dashboard

import (
	"time"

	"github.com/zyntel-ai/labops/pkg/analytics/aggregate"
	"github.com/zyntel-ai/labops/pkg/analytics/filter"
	"github.com/zyntel-ai/labops/pkg/analytics/tat"
)

// Request is the per-run input. Now anchors relative periods; zero uses the service clock.
type Request struct {
	Filter    filter.Config `json:"filter"`
	FocusUnit string        `json:"focusUnit,omitempty"`
	TopN      int           `json:"top,omitempty"`
	Now       time.Time     `json:"-"`
}

type Counts struct {
	Loaded  int `json:"loaded"`
	Invalid int `json:"invalid"`
	Matched int `json:"matched"`
}

// Options feed the filter selectors and are drawn from every valid row, not
// only the matched ones.
type Options struct {
	LabSections []string          `json:"labSections"`
	Shifts      []string          `json:"shifts"`
	Units       []string          `json:"units"`
	UnitGroups  map[string]string `json:"unitGroups"`
}

type TATResult struct {
	Summary  tat.Summary  `json:"summary"`
	Previous *tat.Summary `json:"previous,omitempty"`
	Trends   []tat.Trend  `json:"trends,omitempty"`
}

type RevenueResult struct {
	Total     float64 `json:"total"`
	Tests     int     `json:"tests"`
	FocusUnit string  `json:"focusUnit,omitempty"`
}

type NumbersResult struct {
	Total       int              `json:"total"`
	Days        int              `json:"days"`
	AvgDaily    int              `json:"avgDaily"`
	BusiestDay  *aggregate.Entry `json:"busiestDay,omitempty"`
	BusiestHour *aggregate.Entry `json:"busiestHour,omitempty"`
}

type Result struct {
	Dashboard   Kind                         `json:"dashboard"`
	Filter      filter.Config                `json:"filter"`
	Window      filter.Window                `json:"window"`
	Counts      Counts                       `json:"counts"`
	Series      map[string][]aggregate.Entry `json:"series"`
	Top         map[string][]aggregate.Entry `json:"top"`
	Options     Options                      `json:"options"`
	TAT         *TATResult                   `json:"tat,omitempty"`
	Revenue     *RevenueResult               `json:"revenue,omitempty"`
	Numbers     *NumbersResult               `json:"numbers,omitempty"`
	GeneratedAt time.Time                    `json:"generatedAt"`
}

type QueryResult struct {
	Dashboard Kind                         `json:"dashboard"`
	Filter    filter.Config                `json:"filter"`
	Window    filter.Window                `json:"window"`
	Counts    Counts                       `json:"counts"`
	Groups    map[string][]aggregate.Entry `json:"groups"`
}

// VerifyResult reports the instants a filter would cover. From is inclusive,
// To is exclusive for explicit days and inclusive for periods.
type VerifyResult struct {
	Valid  bool          `json:"valid"`
	Error  string        `json:"error,omitempty"`
	Filter filter.Config `json:"filter"`
	Window filter.Window `json:"window"`
	From   *time.Time    `json:"from,omitempty"`
	To     *time.Time    `json:"to,omitempty"`
}
