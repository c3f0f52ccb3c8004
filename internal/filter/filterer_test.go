package filter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teewatch/internal/dates"
	"teewatch/internal/model"
	"teewatch/internal/solar"
)

// stubConfigStore returns a fixed config for every user.
type stubConfigStore struct {
	cfg model.UserConfig
	err error
}

func (s *stubConfigStore) GetUserConfig(ctx context.Context, email string) (model.UserConfig, error) {
	return s.cfg, s.err
}

func newTestFilterer(t *testing.T, cfg model.UserConfig, holidaySet map[string]struct{}) *Filterer {
	t.Helper()
	loc, err := solar.Bethpage()
	require.NoError(t, err)
	logger := zerolog.Nop()
	return New(&stubConfigStore{cfg: cfg}, loc, holidaySet, &logger)
}

// juneSaturday returns the tee sheet text and date key for June 20 of the
// current year, which the slot date parser assumes.
func juneSaturday() (text, key string) {
	d := time.Date(time.Now().Year(), time.June, 20, 0, 0, 0, 0, time.UTC)
	return fmt.Sprintf("%s June 20th", d.Weekday()), dates.FormatDateKey(d)
}

func TestForUserFiltersByAllCriteria(t *testing.T) {
	dateText, _ := juneSaturday()
	weekday := time.Date(time.Now().Year(), time.June, 20, 0, 0, 0, 0, time.UTC).Weekday().String()

	cfg := model.DefaultUserConfig()
	cfg.PlayableDaysOfWeek = []string{weekday}
	cfg.EarliestPlayableTime = "7:00am"
	cfg.MinimumMinutesBeforeSunset = 60
	cfg.MinPlayers = 2

	f := newTestFilterer(t, cfg, nil)

	slots := []model.TimeSlot{
		{Date: dateText, Time: "9:00am", Players: "3", Holes: "18"}, // good
		{Date: dateText, Time: "9:00am", Players: "3", Holes: "9"},  // 9 holes
		{Date: dateText, Time: "9:00am", Players: "1", Holes: "18"}, // too few players
	}

	result, err := f.ForUser(context.Background(), slots, "user@test.com")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "3", result[0].Players)
	assert.Equal(t, "18", result[0].Holes)
}

func TestForUserEndToEndScenario(t *testing.T) {
	dateText, _ := juneSaturday()
	weekday := time.Date(time.Now().Year(), time.June, 20, 0, 0, 0, 0, time.UTC).Weekday().String()

	cfg := model.DefaultUserConfig()
	cfg.PlayableDaysOfWeek = []string{weekday}
	cfg.MinPlayers = 2
	cfg.EarliestPlayableTime = "7:00am"
	cfg.MinimumMinutesBeforeSunset = 60

	f := newTestFilterer(t, cfg, nil)

	slots := []model.TimeSlot{
		{Date: dateText, Time: "9:00am", Players: "3", Holes: "18"},
		{Date: dateText, Time: "9:00am", Players: "1", Holes: "18"},
	}

	result, err := f.ForUser(context.Background(), slots, "user@test.com")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, slots[0], result[0])
}

func TestForUserNotificationsDisabledShortCircuits(t *testing.T) {
	dateText, _ := juneSaturday()

	cfg := model.DefaultUserConfig()
	cfg.NotificationsEnabled = false

	f := newTestFilterer(t, cfg, nil)

	slots := []model.TimeSlot{
		{Date: dateText, Time: "9:00am", Players: "4", Holes: "18"},
	}
	result, err := f.ForUser(context.Background(), slots, "user@test.com")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestForUserConfigLoadErrorAbortsPass(t *testing.T) {
	loc, err := solar.Bethpage()
	require.NoError(t, err)
	logger := zerolog.Nop()
	f := New(&stubConfigStore{err: errors.New("store down")}, loc, nil, &logger)

	_, err = f.ForUser(context.Background(), nil, "user@test.com")
	assert.Error(t, err)
}

func TestForUserBadEarliestTimeIsConfigurationError(t *testing.T) {
	cfg := model.DefaultUserConfig()
	cfg.EarliestPlayableTime = "not a time"

	f := newTestFilterer(t, cfg, nil)
	_, err := f.ForUser(context.Background(), []model.TimeSlot{}, "user@test.com")
	assert.Error(t, err)
}

func TestForUserSkipsUnparseableSlot(t *testing.T) {
	dateText, _ := juneSaturday()
	weekday := time.Date(time.Now().Year(), time.June, 20, 0, 0, 0, 0, time.UTC).Weekday().String()

	cfg := model.DefaultUserConfig()
	cfg.PlayableDaysOfWeek = []string{weekday}
	cfg.EarliestPlayableTime = "7:00am"
	cfg.MinimumMinutesBeforeSunset = 60

	f := newTestFilterer(t, cfg, nil)

	slots := []model.TimeSlot{
		{Date: "garbage", Time: "9:00am", Players: "3", Holes: "18"},
		{Date: dateText, Time: "9:00am", Players: "3", Holes: "18"},
		{Date: dateText, Time: "9:00am", Players: "lots", Holes: "18"},
	}

	result, err := f.ForUser(context.Background(), slots, "user@test.com")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, slots[1], result[0])
}

func TestForUserEighteenHolesOptional(t *testing.T) {
	dateText, _ := juneSaturday()
	weekday := time.Date(time.Now().Year(), time.June, 20, 0, 0, 0, 0, time.UTC).Weekday().String()

	cfg := model.DefaultUserConfig()
	cfg.PlayableDaysOfWeek = []string{weekday}
	cfg.EarliestPlayableTime = "7:00am"
	cfg.MinimumMinutesBeforeSunset = 60
	cfg.RequireEighteenHoles = false

	f := newTestFilterer(t, cfg, nil)

	slots := []model.TimeSlot{
		{Date: dateText, Time: "9:00am", Players: "2", Holes: "9"},
	}
	result, err := f.ForUser(context.Background(), slots, "user@test.com")
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestIsPlayableDayDisjunction(t *testing.T) {
	_, dateKey := juneSaturday()
	weekday := time.Date(time.Now().Year(), time.June, 20, 0, 0, 0, 0, time.UTC).Weekday().String()

	tests := []struct {
		name       string
		mutate     func(*model.UserConfig)
		holidaySet map[string]struct{}
		dayOfWeek  string
		want       bool
	}{
		{
			name: "weekday match alone",
			mutate: func(c *model.UserConfig) {
				c.PlayableDaysOfWeek = []string{weekday}
			},
			dayOfWeek: weekday,
			want:      true,
		},
		{
			name: "no criterion matches",
			mutate: func(c *model.UserConfig) {
				c.PlayableDaysOfWeek = []string{}
			},
			dayOfWeek: weekday,
			want:      false,
		},
		{
			name: "extra day match alone",
			mutate: func(c *model.UserConfig) {
				c.PlayableDaysOfWeek = []string{}
				c.ExtraPlayableDays = []string{dateKey}
			},
			dayOfWeek: weekday,
			want:      true,
		},
		{
			name: "holiday match alone",
			mutate: func(c *model.UserConfig) {
				c.PlayableDaysOfWeek = []string{}
				c.IncludeHolidays = true
			},
			holidaySet: map[string]struct{}{dateKey: {}},
			dayOfWeek:  weekday,
			want:       true,
		},
		{
			name: "holiday match disabled",
			mutate: func(c *model.UserConfig) {
				c.PlayableDaysOfWeek = []string{}
				c.IncludeHolidays = false
			},
			holidaySet: map[string]struct{}{dateKey: {}},
			dayOfWeek:  weekday,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := model.DefaultUserConfig()
			tt.mutate(&cfg)
			f := newTestFilterer(t, cfg, tt.holidaySet)
			got := f.isPlayableDay(cfg, tt.dayOfWeek, dateKey)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateEarliestTimeBoundaryIsStrict(t *testing.T) {
	dateText, _ := juneSaturday()
	weekday := time.Date(time.Now().Year(), time.June, 20, 0, 0, 0, 0, time.UTC).Weekday().String()

	cfg := model.DefaultUserConfig()
	cfg.PlayableDaysOfWeek = []string{weekday}
	cfg.EarliestPlayableTime = "8:00am"
	cfg.MinimumMinutesBeforeSunset = 60

	f := newTestFilterer(t, cfg, nil)

	// Exactly the earliest playable time is rejected; a minute later passes.
	atBoundary := []model.TimeSlot{{Date: dateText, Time: "8:00am", Players: "2", Holes: "18"}}
	result, err := f.ForUser(context.Background(), atBoundary, "user@test.com")
	require.NoError(t, err)
	assert.Empty(t, result)

	after := []model.TimeSlot{{Date: dateText, Time: "8:01am", Players: "2", Holes: "18"}}
	result, err = f.ForUser(context.Background(), after, "user@test.com")
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestEvaluateSunsetRejectsEvening(t *testing.T) {
	dateText, _ := juneSaturday()
	weekday := time.Date(time.Now().Year(), time.June, 20, 0, 0, 0, 0, time.UTC).Weekday().String()

	cfg := model.DefaultUserConfig()
	cfg.PlayableDaysOfWeek = []string{weekday}
	cfg.EarliestPlayableTime = "7:00am"
	cfg.MinimumMinutesBeforeSunset = 240

	f := newTestFilterer(t, cfg, nil)

	slots := []model.TimeSlot{
		{Date: dateText, Time: "8:00am", Players: "2", Holes: "18"}, // morning ok
		{Date: dateText, Time: "8:00pm", Players: "2", Holes: "18"}, // evening too late
	}
	result, err := f.ForUser(context.Background(), slots, "user@test.com")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "8:00am", result[0].Time)
}
