// Package dsl parses the ad-hoc dashboard query language:
//
//	select day, hour where period = lastMonth and unit = mainLab limit 5
package dsl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/zyntel-ai/labops/pkg/analytics/filter"
)

type Group string

const (
	GroupDay        Group = "day"
	GroupHour       Group = "hour"
	GroupLabSection Group = "labsection"
	GroupShift      Group = "shift"
	GroupUnit       Group = "unit"
	GroupTest       Group = "test"
	GroupStatus     Group = "status"
)

var Groups = []Group{GroupDay, GroupHour, GroupLabSection, GroupShift, GroupUnit, GroupTest, GroupStatus}

var (
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrUnknownField        = errors.New("unknown filter field")
	ErrUnknownGroup        = errors.New("unknown group")
)

type Clause struct {
	Field    string
	Operator string
	Value    string
}

type Query struct {
	Groups  []Group
	Filters []Clause
	Limit   int
}

var (
	selectRegex = regexp.MustCompile(`(?i)^select\s+([a-zA-Z0-9_,\s]+?)(?:\s+where\b|\s+limit\b|$)`)
	whereRegex  = regexp.MustCompile(`(?i)\swhere\s+(.+?)(?:\s+limit\s+\d+\s*$|$)`)
	limitRegex  = regexp.MustCompile(`(?i)\slimit\s+(\d+)\s*$`)
	andRegex    = regexp.MustCompile(`(?i)\s+and\s+|,`)
	filterRegex = regexp.MustCompile(`^([a-zA-Z0-9_]+)\s*(!=|>=|<=|=|>|<|(?i:in\b))\s*(.+)$`)
)

// Parse reads a query. Keywords, group and field names are case-insensitive;
// values keep their case.
func Parse(input string) (Query, error) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(strings.ToLower(input), "select") {
		return Query{}, fmt.Errorf("query must start with select")
	}

	var query Query

	selectMatch := selectRegex.FindStringSubmatch(input)
	if len(selectMatch) < 2 {
		return Query{}, fmt.Errorf("missing select fields")
	}
	for _, field := range strings.Split(selectMatch[1], ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		if field == "" {
			continue
		}
		g, ok := LookupGroup(field)
		if !ok {
			return Query{}, fmt.Errorf("%w: %q", ErrUnknownGroup, field)
		}
		query.Groups = append(query.Groups, g)
	}

	if whereMatch := whereRegex.FindStringSubmatch(input); len(whereMatch) >= 2 {
		for _, part := range andRegex.Split(whereMatch[1], -1) {
			match := filterRegex.FindStringSubmatch(strings.TrimSpace(part))
			if len(match) < 4 {
				continue
			}
			query.Filters = append(query.Filters, Clause{
				Field:    strings.ToLower(match[1]),
				Operator: strings.ToLower(match[2]),
				Value:    unquote(strings.TrimSpace(match[3])),
			})
		}
	}

	if limitMatch := limitRegex.FindStringSubmatch(input); len(limitMatch) >= 2 {
		fmt.Sscanf(limitMatch[1], "%d", &query.Limit)
	}

	if len(query.Groups) == 0 {
		return Query{}, fmt.Errorf("at least one group must be selected")
	}

	return query, nil
}

// LookupGroup matches a group name case-insensitively.
func LookupGroup(raw string) (Group, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, g := range Groups {
		if string(g) == raw {
			return g, true
		}
	}
	return "", false
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '\'' || v[0] == '"') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// ToConfig turns the where clause into a filter configuration. Only equality
// is supported.
func (q Query) ToConfig() (filter.Config, error) {
	var cfg filter.Config
	for _, c := range q.Filters {
		if c.Operator != "=" {
			return filter.Config{}, fmt.Errorf("%w: %s %s", ErrUnsupportedOperator, c.Field, c.Operator)
		}
		switch c.Field {
		case "period":
			cfg.Period = c.Value
		case "startdate", "from":
			cfg.StartDate = c.Value
		case "enddate", "to":
			cfg.EndDate = c.Value
		case "labsection", "section":
			cfg.LabSection = c.Value
		case "shift":
			cfg.Shift = c.Value
		case "unit", "hospitalunit":
			cfg.HospitalUnit = c.Value
		default:
			return filter.Config{}, fmt.Errorf("%w: %q", ErrUnknownField, c.Field)
		}
	}
	return cfg, nil
}
