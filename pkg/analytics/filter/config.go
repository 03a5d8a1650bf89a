// Package filter evaluates dashboard rows against an explicit filter configuration.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zyntel-ai/labops/pkg/analytics/opday"
)

// All is the wildcard value for categorical filters.
const All = "all"

// Config is built once at the boundary from the dashboard's controls.
type Config struct {
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Period       string `json:"period,omitempty"`
	LabSection   string `json:"labSection,omitempty"`
	Shift        string `json:"shift,omitempty"`
	HospitalUnit string `json:"hospitalUnit,omitempty"`
}

// HasExplicitDates reports whether either calendar bound is set. Explicit dates
// take precedence over a named period.
func (c Config) HasExplicitDates() bool {
	return strings.TrimSpace(c.StartDate) != "" || strings.TrimSpace(c.EndDate) != ""
}

// Normalized trims values and maps empty categorical filters to All.
func (c Config) Normalized() Config {
	out := Config{
		StartDate:    strings.TrimSpace(c.StartDate),
		EndDate:      strings.TrimSpace(c.EndDate),
		Period:       strings.TrimSpace(c.Period),
		LabSection:   wildcard(c.LabSection),
		Shift:        wildcard(c.Shift),
		HospitalUnit: wildcard(c.HospitalUnit),
	}
	return out
}

func wildcard(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, All) {
		return All
	}
	return v
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, All)
}

var (
	errInvalidStart = errors.New("startDate must be YYYY-MM-DD")
	errInvalidEnd   = errors.New("endDate must be YYYY-MM-DD")
	errEndBefore    = errors.New("endDate is before startDate")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Validate checks the calendar bounds. Unknown periods are not an error;
// they simply impose no constraint.
func (c Config) Validate() error {
	c = c.Normalized()
	var start, end time.Time
	var err error
	if c.StartDate != "" {
		if start, err = time.Parse(opday.DayLayout, c.StartDate); err != nil {
			return ValidationError{reason: fmt.Errorf("%w: %q", errInvalidStart, c.StartDate)}
		}
	}
	if c.EndDate != "" {
		if end, err = time.Parse(opday.DayLayout, c.EndDate); err != nil {
			return ValidationError{reason: fmt.Errorf("%w: %q", errInvalidEnd, c.EndDate)}
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return ValidationError{reason: errEndBefore}
	}
	return nil
}
