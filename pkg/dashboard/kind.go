// Package dashboard runs the load, filter and aggregate pipeline behind the
// TAT, revenue and numbers dashboards.
package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zyntel-ai/labops/pkg/analytics/records"
)

var (
	ErrUnknownDashboard = errors.New("unknown dashboard")
	ErrInvalidQuery     = errors.New("invalid query")
	ErrSourceFailed     = errors.New("source failed")
)

type Kind string

const (
	TAT     Kind = "tat"
	Revenue Kind = "revenue"
	Numbers Kind = "numbers"
)

var Kinds = []Kind{TAT, Revenue, Numbers}

func ParseKind(raw string) (Kind, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, k := range Kinds {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDashboard, raw)
}

func (k Kind) Schema() records.Schema {
	switch k {
	case Revenue:
		return records.RevenueSchema
	case Numbers:
		return records.NumbersSchema
	default:
		return records.TATSchema
	}
}
