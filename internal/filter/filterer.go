// Package filter evaluates scraped tee times against per-user eligibility
// settings and diffs the result against the previously surfaced set.
package filter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"teewatch/internal/dates"
	"teewatch/internal/model"
	"teewatch/internal/solar"
)

// ConfigStore loads a user's eligibility settings. Implementations return
// the defaults when no stored config exists for the user.
type ConfigStore interface {
	GetUserConfig(ctx context.Context, email string) (model.UserConfig, error)
}

// Filterer applies one user's config to a batch of scraped slots. It is
// built once per run so the holiday set is recomputed each pass and shared
// read-only across users.
type Filterer struct {
	configs  ConfigStore
	location solar.Location
	holidays map[string]struct{}
	logger   *zerolog.Logger
}

// New creates a Filterer for a single run. holidaySet must already have the
// policy exclusions applied.
func New(configs ConfigStore, location solar.Location, holidaySet map[string]struct{}, logger *zerolog.Logger) *Filterer {
	return &Filterer{
		configs:  configs,
		location: location,
		holidays: holidaySet,
		logger:   logger,
	}
}

// ForUser returns the subset of slots the user wants to hear about, in input
// order. A slot that fails to parse is skipped and logged rather than
// aborting the rest of the user's batch; a config that cannot be loaded or
// parsed aborts the whole pass for that user.
func (f *Filterer) ForUser(ctx context.Context, slots []model.TimeSlot, email string) ([]model.TimeSlot, error) {
	cfg, err := f.configs.GetUserConfig(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("loading config for %s: %w", email, err)
	}

	if !cfg.NotificationsEnabled {
		f.logger.Debug().Str("user", email).Msg("notifications disabled, skipping filter")
		return []model.TimeSlot{}, nil
	}

	earliest, err := dates.ParseClockTime(cfg.EarliestPlayableTime)
	if err != nil {
		return nil, fmt.Errorf("config for %s has bad earliest_playable_time: %w", email, err)
	}

	filtered := []model.TimeSlot{}
	for _, slot := range slots {
		ok, err := f.evaluate(cfg, earliest, slot)
		if err != nil {
			f.logger.Warn().Err(err).Str("user", email).Str("slot_date", slot.Date).
				Str("slot_time", slot.Time).Msg("skipping unparseable slot")
			continue
		}
		if ok {
			filtered = append(filtered, slot)
		}
	}
	return filtered, nil
}

func (f *Filterer) evaluate(cfg model.UserConfig, earliest int, slot model.TimeSlot) (bool, error) {
	dayOfWeek, date, err := dates.ParseSlotDate(slot.Date)
	if err != nil {
		return false, err
	}

	timeOfDay, err := dates.ParseClockTime(slot.Time)
	if err != nil {
		return false, err
	}

	players, err := strconv.Atoi(strings.TrimSpace(slot.Players))
	if err != nil {
		return false, fmt.Errorf("bad player count %q: %w", slot.Players, err)
	}

	isPlayableDay := f.isPlayableDay(cfg, dayOfWeek, dates.FormatDateKey(date))
	isAcceptableTime := f.location.FarEnoughBeforeSunset(cfg.MinimumMinutesBeforeSunset, date, timeOfDay) &&
		timeOfDay > earliest
	hitsMinPlayers := players >= cfg.MinPlayers
	hasRequiredHoles := !cfg.RequireEighteenHoles || strings.TrimSpace(slot.Holes) == "18"

	return isPlayableDay && isAcceptableTime && hitsMinPlayers && hasRequiredHoles, nil
}

// isPlayableDay is a pure disjunction: a weekday match, an explicit extra
// day, or (when enabled) a recognized holiday each suffice on their own.
func (f *Filterer) isPlayableDay(cfg model.UserConfig, dayOfWeek, dateKey string) bool {
	isPlayableDayOfWeek := false
	for _, d := range cfg.PlayableDaysOfWeek {
		if d == dayOfWeek {
			isPlayableDayOfWeek = true
			break
		}
	}

	isExtraDay := false
	for _, d := range cfg.ExtraPlayableDays {
		if d == dateKey {
			isExtraDay = true
			break
		}
	}

	isHoliday := false
	if cfg.IncludeHolidays {
		_, isHoliday = f.holidays[dateKey]
	}

	return isPlayableDayOfWeek || isExtraDay || isHoliday
}
