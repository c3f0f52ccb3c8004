package model

import (
	"encoding/json"
	"fmt"
)

// DefaultConfigID is the identifier used when a stored config item is not
// tied to a specific user.
const DefaultConfigID = "config"

// UserConfig holds one user's tee time eligibility settings. Every field has
// a defined default; a partial update merges field-by-field against the
// defaults and never nulls out unspecified fields.
type UserConfig struct {
	EarliestPlayableTime       string   `json:"earliest_playable_time"`
	ExtraPlayableDays          []string `json:"extra_playable_days"` // "M/D/YYYY", unpadded
	IncludeHolidays            bool     `json:"include_holidays"`
	MinimumMinutesBeforeSunset int      `json:"minimum_minutes_before_sunset"`
	MinPlayers                 int      `json:"min_players"`
	PlayableDaysOfWeek         []string `json:"playable_days_of_week"`
	NotificationsEnabled       bool     `json:"notifications_enabled"`
	RequireEighteenHoles       bool     `json:"require_eighteen_holes"`
}

// DefaultUserConfig returns the settings a user starts with on registration.
func DefaultUserConfig() UserConfig {
	return UserConfig{
		EarliestPlayableTime:       "8:00am",
		ExtraPlayableDays:          []string{},
		IncludeHolidays:            true,
		MinimumMinutesBeforeSunset: 240,
		MinPlayers:                 2,
		PlayableDaysOfWeek:         []string{"Saturday", "Sunday"},
		NotificationsEnabled:       true,
		RequireEighteenHoles:       true,
	}
}

// UserConfigPatch is a partial config update. Nil fields are "not supplied"
// and keep their current value; present-but-falsy values (false, 0) are
// applied. Numeric fields are json.Number so that fixed-point encodings like
// "240.0" coming from external stores normalize to plain integers.
type UserConfigPatch struct {
	EarliestPlayableTime       *string      `json:"earliest_playable_time"`
	ExtraPlayableDays          *[]string    `json:"extra_playable_days"`
	IncludeHolidays            *bool        `json:"include_holidays"`
	MinimumMinutesBeforeSunset *json.Number `json:"minimum_minutes_before_sunset"`
	MinPlayers                 *json.Number `json:"min_players"`
	PlayableDaysOfWeek         *[]string    `json:"playable_days_of_week"`
	NotificationsEnabled       *bool        `json:"notifications_enabled"`
	RequireEighteenHoles       *bool        `json:"require_eighteen_holes"`
}

// Apply merges the patch onto cfg and returns the result.
func (p *UserConfigPatch) Apply(cfg UserConfig) (UserConfig, error) {
	if p == nil {
		return cfg, nil
	}
	if p.EarliestPlayableTime != nil {
		cfg.EarliestPlayableTime = *p.EarliestPlayableTime
	}
	if p.ExtraPlayableDays != nil {
		cfg.ExtraPlayableDays = append([]string{}, (*p.ExtraPlayableDays)...)
	}
	if p.IncludeHolidays != nil {
		cfg.IncludeHolidays = *p.IncludeHolidays
	}
	if p.MinimumMinutesBeforeSunset != nil {
		n, err := intFromNumber(*p.MinimumMinutesBeforeSunset)
		if err != nil {
			return cfg, fmt.Errorf("minimum_minutes_before_sunset: %w", err)
		}
		cfg.MinimumMinutesBeforeSunset = n
	}
	if p.MinPlayers != nil {
		n, err := intFromNumber(*p.MinPlayers)
		if err != nil {
			return cfg, fmt.Errorf("min_players: %w", err)
		}
		cfg.MinPlayers = n
	}
	if p.PlayableDaysOfWeek != nil {
		cfg.PlayableDaysOfWeek = append([]string{}, (*p.PlayableDaysOfWeek)...)
	}
	if p.NotificationsEnabled != nil {
		cfg.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.RequireEighteenHoles != nil {
		cfg.RequireEighteenHoles = *p.RequireEighteenHoles
	}
	return cfg, nil
}

// BuildUserConfig merges an optional patch onto the defaults.
func BuildUserConfig(patch *UserConfigPatch) (UserConfig, error) {
	return patch.Apply(DefaultUserConfig())
}

// ConfigItem is the flat persisted form of a UserConfig: the config fields
// plus an identifier, one item per user (keyed by email) or one shared
// default item.
type ConfigItem struct {
	ID string `json:"id"`
	UserConfig
}

// Item flattens the config into a stored record. An empty id falls back to
// DefaultConfigID.
func (c UserConfig) Item(id string) ConfigItem {
	if id == "" {
		id = DefaultConfigID
	}
	return ConfigItem{ID: id, UserConfig: c}
}

// intFromNumber normalizes an external numeric value to a plain int,
// accepting whole-valued decimals like "240.0".
func intFromNumber(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", n.String())
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("expected a whole number, got %q", n.String())
	}
	return int(f), nil
}
