package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocationBadTimezone(t *testing.T) {
	_, err := NewLocation("Nowhere", 0, 0, "Not/AZone")
	assert.Error(t, err)
}

func TestSunsetSummerEvening(t *testing.T) {
	loc, err := Bethpage()
	require.NoError(t, err)

	// Around the summer solstice on Long Island, sunset is roughly 8:30pm
	// local. The filter only relies on gross seasonal behavior, not
	// minute-level precision.
	sunset := loc.Sunset(time.Date(2026, time.June, 21, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2026, sunset.Year())
	assert.GreaterOrEqual(t, sunset.Hour(), 19)
	assert.LessOrEqual(t, sunset.Hour(), 21)
}

func TestFarEnoughBeforeSunset(t *testing.T) {
	loc, err := Bethpage()
	require.NoError(t, err)

	summer := time.Date(2026, time.June, 21, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		minMinutes int
		timeOfDay  int // minutes since midnight
		want       bool
	}{
		{"morning well before cutoff", 240, 8 * 60, true},
		{"evening past cutoff", 240, 20 * 60, false},
		{"small buffer allows afternoon", 60, 17 * 60, true},
		{"huge buffer rejects everything reasonable", 14 * 60, 8 * 60, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := loc.FarEnoughBeforeSunset(tt.minMinutes, summer, tt.timeOfDay)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFarEnoughBeforeSunsetBoundaryIsStrict(t *testing.T) {
	loc, err := Bethpage()
	require.NoError(t, err)

	date := time.Date(2026, time.June, 21, 0, 0, 0, 0, time.UTC)
	cutoff := loc.Sunset(date).Add(-240 * time.Minute)
	cutoffMinutes := cutoff.Hour()*60 + cutoff.Minute()

	// Exactly at the cutoff is rejected; one minute earlier is accepted.
	assert.False(t, loc.FarEnoughBeforeSunset(240, date, cutoffMinutes))
	assert.True(t, loc.FarEnoughBeforeSunset(240, date, cutoffMinutes-1))
}

func TestSeasonalDifference(t *testing.T) {
	loc, err := Bethpage()
	require.NoError(t, err)

	winter := loc.Sunset(time.Date(2026, time.December, 21, 0, 0, 0, 0, time.UTC))
	summer := loc.Sunset(time.Date(2026, time.June, 21, 0, 0, 0, 0, time.UTC))

	winterMinutes := winter.Hour()*60 + winter.Minute()
	summerMinutes := summer.Hour()*60 + summer.Minute()
	assert.Greater(t, summerMinutes-winterMinutes, 120)
}
