package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextBillingDateMonthly(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  time.Time
	}{
		{"mid month", date(2026, time.March, 15), date(2026, time.April, 15)},
		{"clamps jan 31 to feb 28", date(2026, time.January, 31), date(2026, time.February, 28)},
		{"clamps jan 31 to feb 29 on leap year", date(2028, time.January, 31), date(2028, time.February, 29)},
		{"december wraps to january", date(2026, time.December, 10), date(2027, time.January, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextBillingDate(tt.start, BillingCycleMonthly)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestAddClampedDateAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	// March 31 2024 is a 23-hour day in London. Clamping must still land
	// on the 31st, not slip back a day.
	got := AddClampedDate(time.Date(2024, time.January, 31, 0, 0, 0, 0, loc), 0, 2, 0)
	want := time.Date(2024, time.March, 31, 0, 0, 0, 0, loc)
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestNextBillingDateAnnual(t *testing.T) {
	got, err := NextBillingDate(date(2026, time.June, 1), BillingCycleAnnual)
	require.NoError(t, err)
	assert.True(t, got.Equal(date(2027, time.June, 1)))

	// Feb 29 clamps to Feb 28 in a non-leap year
	got, err = NextBillingDate(date(2028, time.February, 29), BillingCycleAnnual)
	require.NoError(t, err)
	assert.True(t, got.Equal(date(2029, time.February, 28)))
}

func TestNextBillingDateInvalidCycle(t *testing.T) {
	_, err := NextBillingDate(date(2026, time.June, 1), BillingCycle("WEEKLY"))
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 31, DaysBetween(date(2026, time.January, 1), date(2026, time.February, 1)))
	assert.Equal(t, 1, DaysBetween(date(2026, time.January, 1), date(2026, time.January, 2)))
	assert.Equal(t, 0, DaysBetween(date(2026, time.January, 2), date(2026, time.January, 2)))
	assert.Equal(t, 0, DaysBetween(date(2026, time.January, 3), date(2026, time.January, 1)))

	// Partial days count from the start of the day
	late := time.Date(2026, time.January, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(late, date(2026, time.January, 2)))
}
