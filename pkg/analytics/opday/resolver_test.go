package opday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zyntel-ai/labops/pkg/analytics/dates"
)

var eat = time.FixedZone("EAT", 3*60*60)

func instant(t time.Time) dates.Instant {
	return dates.Instant{Time: t, Format: dates.FormatRFC3339}
}

func TestBusinessDayBoundary(t *testing.T) {
	r := NewResolver(eat)

	before := instant(time.Date(2025, 6, 1, 7, 59, 59, int(999*time.Millisecond), eat))
	at := instant(time.Date(2025, 6, 1, 8, 0, 0, 0, eat))

	day, ok := r.BusinessDay(before)
	require.True(t, ok)
	assert.Equal(t, "2025-05-31", day)

	day, ok = r.BusinessDay(at)
	require.True(t, ok)
	assert.Equal(t, "2025-06-01", day)
}

func TestBusinessDayUsesResolverZone(t *testing.T) {
	r := NewResolver(eat)
	// 06:00 UTC is 09:00 in Nairobi
	day, ok := r.BusinessDay(instant(time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)))
	require.True(t, ok)
	assert.Equal(t, "2025-06-01", day)

	// 04:30 UTC is 07:30 in Nairobi
	day, _ = r.BusinessDay(instant(time.Date(2025, 6, 1, 4, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2025-05-31", day)
}

func TestBusinessDayAcrossMonthAndYear(t *testing.T) {
	r := NewResolver(time.UTC)
	day, _ := r.BusinessDay(instant(time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-12-31", day)
	day, _ = r.BusinessDay(instant(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-02-28", day)
}

func TestDateOnlyInstantsKeepTheirDate(t *testing.T) {
	r := NewResolver(eat)
	inst := dates.Parse("2025-06-01")
	require.True(t, inst.Valid())

	day, ok := r.BusinessDay(inst)
	require.True(t, ok)
	assert.Equal(t, "2025-06-01", day)

	_, ok = r.Hour(inst)
	assert.False(t, ok)
}

func TestInvalidInstant(t *testing.T) {
	r := NewResolver(nil)
	_, ok := r.BusinessDay(dates.Invalid)
	assert.False(t, ok)
	_, ok = r.Hour(dates.Invalid)
	assert.False(t, ok)
}

func TestHourUsesLocalTime(t *testing.T) {
	r := NewResolver(eat)
	h, ok := r.Hour(dates.Parse("2025-06-25T17:25:00Z"))
	require.True(t, ok)
	assert.Equal(t, 20, h)

	h, ok = NewResolver(time.UTC).Hour(dates.Parse("6/25/2025 20:25"))
	require.True(t, ok)
	assert.Equal(t, 20, h)
}

func TestDayBounds(t *testing.T) {
	r := NewResolver(eat)
	start, end, err := r.DayBounds("2025-06-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 30, 8, 0, 0, 0, eat).Unix(), start.Unix())
	assert.Equal(t, time.Date(2025, 7, 1, 8, 0, 0, 0, eat).Unix(), end.Unix())

	_, _, err = r.DayBounds("30/06/2025")
	assert.Error(t, err)
}

func TestWithDayStart(t *testing.T) {
	r := NewResolver(time.UTC, WithDayStart(6*time.Hour))
	assert.Equal(t, 6*time.Hour, r.DayStart())
	day, _ := r.BusinessDay(instant(time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-06-01", day)

	ignored := NewResolver(time.UTC, WithDayStart(30*time.Hour))
	assert.Equal(t, DefaultDayStart, ignored.DayStart())
}
