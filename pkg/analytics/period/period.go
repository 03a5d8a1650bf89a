// Package period expands named relative periods ("this month", "last quarter")
// into concrete inclusive windows anchored to a reference instant.
package period

import (
	"strings"
	"time"

	"github.com/jinzhu/now"
)

type Token string

const (
	ThisMonth   Token = "thisMonth"
	LastMonth   Token = "lastMonth"
	ThisQuarter Token = "thisQuarter"
	LastQuarter Token = "lastQuarter"
	ThisYear    Token = "thisYear"
	LastYear    Token = "lastYear"
)

var Tokens = []Token{ThisMonth, LastMonth, ThisQuarter, LastQuarter, ThisYear, LastYear}

// Lookup matches a token case-insensitively.
func Lookup(raw string) (Token, bool) {
	raw = strings.TrimSpace(raw)
	for _, tok := range Tokens {
		if strings.EqualFold(string(tok), raw) {
			return tok, true
		}
	}
	return "", false
}

// Window is an inclusive [Start, End] range. The zero Window means no constraint.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// Resolve returns the window for a token relative to ref, in ref's location.
// Unknown or empty tokens resolve to the zero window and false.
func Resolve(token string, ref time.Time) (Window, bool) {
	tok, ok := Lookup(token)
	if !ok {
		return Window{}, false
	}
	return resolve(tok, ref, 0), true
}

// Preceding returns the window immediately before the one Resolve yields,
// e.g. last month for thisMonth and the month before last for lastMonth.
func Preceding(token string, ref time.Time) (Window, bool) {
	tok, ok := Lookup(token)
	if !ok {
		return Window{}, false
	}
	return resolve(tok, ref, 1), true
}

func resolve(tok Token, ref time.Time, back int) Window {
	n := now.With(ref)
	switch tok {
	case ThisMonth, LastMonth:
		if tok == LastMonth {
			back++
		}
		start := n.BeginningOfMonth().AddDate(0, -back, 0)
		return Window{Start: start, End: now.With(start).EndOfMonth()}
	case ThisQuarter, LastQuarter:
		if tok == LastQuarter {
			back++
		}
		start := n.BeginningOfQuarter().AddDate(0, -3*back, 0)
		return Window{Start: start, End: now.With(start).EndOfQuarter()}
	default:
		if tok == LastYear {
			back++
		}
		start := n.BeginningOfYear().AddDate(-back, 0, 0)
		return Window{Start: start, End: now.With(start).EndOfYear()}
	}
}
