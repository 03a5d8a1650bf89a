package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eat = time.FixedZone("EAT", 3*60*60)

func endOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}

func TestResolveThisQuarter(t *testing.T) {
	ref := time.Date(2025, 5, 15, 10, 0, 0, 0, eat)
	w, ok := Resolve("thisQuarter", ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, eat), w.Start)
	assert.Equal(t, endOfDay(2025, 6, 30, eat), w.End)
	assert.Equal(t, time.Date(2025, 6, 30, 23, 59, 59, int(999*time.Millisecond), eat), w.End.Truncate(time.Millisecond))
}

func TestResolveAllTokens(t *testing.T) {
	ref := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		token string
		start time.Time
		end   time.Time
	}{
		{"thisMonth", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), endOfDay(2025, 3, 31, time.UTC)},
		{"lastMonth", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), endOfDay(2025, 2, 28, time.UTC)},
		{"thisQuarter", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), endOfDay(2025, 3, 31, time.UTC)},
		{"lastQuarter", time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), endOfDay(2024, 12, 31, time.UTC)},
		{"thisYear", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), endOfDay(2025, 12, 31, time.UTC)},
		{"lastYear", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), endOfDay(2024, 12, 31, time.UTC)},
	}
	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			w, ok := Resolve(tc.token, ref)
			require.True(t, ok)
			assert.Equal(t, tc.start, w.Start)
			assert.Equal(t, tc.end, w.End)
		})
	}
}

func TestResolveUnknownTokenIsUnconstrained(t *testing.T) {
	for _, token := range []string{"", "custom", "nextMonth"} {
		w, ok := Resolve(token, time.Now())
		assert.False(t, ok)
		assert.True(t, w.IsZero())
		assert.True(t, w.Contains(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)))
	}
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	ref := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	w, ok := Resolve("LASTMONTH", ref)
	require.True(t, ok)
	assert.Equal(t, time.February, w.Start.Month())
}

func TestLastMonthWindowContains(t *testing.T) {
	ref := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	w, _ := Resolve("lastMonth", ref)
	assert.False(t, w.Contains(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
}

func TestPreceding(t *testing.T) {
	ref := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

	w, ok := Preceding("thisMonth", ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), w.Start)

	w, _ = Preceding("lastMonth", ref)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, endOfDay(2024, 11, 30, time.UTC), w.End)

	w, _ = Preceding("lastQuarter", ref)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), w.Start)

	w, _ = Preceding("thisYear", ref)
	assert.Equal(t, 2024, w.Start.Year())

	_, ok = Preceding("custom", ref)
	assert.False(t, ok)
}
