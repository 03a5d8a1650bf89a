// Package dates turns the heterogeneous date strings found in LIMS exports and
// backend rows into unambiguous instants.
package dates

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Format pairs the pattern name used by the dashboards with its Go layout.
type Format struct {
	Name     string
	Layout   string
	DateOnly bool
}

var (
	FormatShortDate     = Format{Name: "M/D/YY", Layout: "1/2/06", DateOnly: true}
	FormatUSDate        = Format{Name: "M/DD/YYYY", Layout: "1/02/2006", DateOnly: true}
	FormatISODate       = Format{Name: "YYYY-MM-DD", Layout: "2006-01-02", DateOnly: true}
	FormatDayFirstDate  = Format{Name: "DD-MM-YYYY", Layout: "02-01-2006", DateOnly: true}
	FormatUSClock12     = Format{Name: "M/D/YYYY h:mm A", Layout: "1/2/2006 3:04 PM"}
	FormatShortClock12  = Format{Name: "M/D/YY h:mm A", Layout: "1/2/06 3:04 PM"}
	FormatUSClock24     = Format{Name: "M/D/YYYY H:mm", Layout: "1/2/2006 15:04"}
	FormatShortClock24  = Format{Name: "M/D/YY H:mm", Layout: "1/2/06 15:04"}
	FormatLIMSTimestamp = Format{Name: "YYYY-MM-DD HH:mm:ss.SSS", Layout: "2006-01-02 15:04:05.000"}
	FormatISOClock      = Format{Name: "YYYY-MM-DD HH:mm:ss", Layout: "2006-01-02 15:04:05"}
	FormatHTTPDate      = Format{Name: "ddd, DD MMM YYYY HH:mm:ss [GMT]", Layout: "Mon, 02 Jan 2006 15:04:05 GMT"}
	FormatRFC3339       = Format{Name: "RFC3339", Layout: time.RFC3339Nano}
)

// FormatHTTPDay marks a FormatHTTPDate value at exactly midnight GMT, which is
// how backends serialise a DATE column. It keeps its own calendar date.
var FormatHTTPDay = Format{Name: "ddd, DD MMM YYYY [00:00:00 GMT]", Layout: FormatHTTPDate.Layout, DateOnly: true}

// DefaultFormats is the ordered candidate list; the first strict match wins.
var DefaultFormats = []Format{
	FormatShortDate,
	FormatUSDate,
	FormatISODate,
	FormatDayFirstDate,
	FormatUSClock12,
	FormatShortClock12,
	FormatUSClock24,
	FormatShortClock24,
	FormatLIMSTimestamp,
	FormatISOClock,
	FormatHTTPDate,
	FormatRFC3339,
}

// Instant is a parsed point in time together with the format it matched.
// The zero value is the invalid sentinel.
type Instant struct {
	Time   time.Time
	Format Format
}

// Invalid is returned for empty or unparseable input.
var Invalid = Instant{}

func (i Instant) Valid() bool {
	return i.Format.Layout != ""
}

// DateOnly reports whether the source value carried no time of day.
func (i Instant) DateOnly() bool {
	return i.Valid() && i.Format.DateOnly
}

// String formats the instant back with the layout it was parsed from.
func (i Instant) String() string {
	if !i.Valid() {
		return ""
	}
	return i.Time.Format(i.Format.Layout)
}

// Normalizer parses raw values against an ordered list of formats.
type Normalizer struct {
	formats []Format
	zone    *time.Location
}

type Option func(*Normalizer)

// WithFormats replaces the candidate format list.
func WithFormats(formats ...Format) Option {
	return func(n *Normalizer) {
		if len(formats) > 0 {
			n.formats = append([]Format(nil), formats...)
		}
	}
}

// WithSourceZone sets the zone used for values whose format carries no zone.
func WithSourceZone(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.zone = loc
		}
	}
}

func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		formats: DefaultFormats,
		zone:    time.UTC,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

var defaultNormalizer = NewNormalizer()

// Parse uses the default formats and interprets zone-less values as UTC.
func Parse(raw string) Instant {
	return defaultNormalizer.Parse(raw)
}

func (n *Normalizer) Parse(raw string) Instant {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Invalid
	}
	for _, f := range n.formats {
		zone := n.zone
		if f.Layout == FormatHTTPDate.Layout {
			zone = time.UTC
		}
		value := raw
		if strings.HasSuffix(f.Layout, "PM") {
			value = upperMeridiem(raw)
		}
		t, err := time.ParseInLocation(f.Layout, value, zone)
		if err != nil {
			continue
		}
		// time accepts a fractional second after "05" even when the layout has none
		if t.Nanosecond() != 0 && !strings.Contains(f.Layout, ".") {
			continue
		}
		if f.Layout == FormatRFC3339.Layout {
			t = t.UTC()
		}
		if f == FormatHTTPDate && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			f = FormatHTTPDay
		}
		return Instant{Time: t, Format: f}
	}
	return Invalid
}

// upperMeridiem uppercases a trailing am/pm so "8:25 pm" reads like "8:25 PM".
func upperMeridiem(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	suffix := raw[len(raw)-2:]
	if strings.EqualFold(suffix, "AM") || strings.EqualFold(suffix, "PM") {
		return raw[:len(raw)-2] + strings.ToUpper(suffix)
	}
	return raw
}

// ParseValue accepts the loosely typed values found in decoded JSON or table rows.
func (n *Normalizer) ParseValue(v interface{}) Instant {
	switch value := v.(type) {
	case nil:
		return Invalid
	case Instant:
		return value
	case time.Time:
		if value.IsZero() {
			return Invalid
		}
		return Instant{Time: value.UTC(), Format: FormatRFC3339}
	case *time.Time:
		if value == nil {
			return Invalid
		}
		return n.ParseValue(*value)
	case string:
		return n.Parse(value)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return Invalid
	}
	return n.Parse(s)
}
