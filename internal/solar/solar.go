// Package solar computes the sunset cutoff for a fixed course location.
package solar

import (
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// Location is the fixed geographic position of the course, with the IANA
// timezone sunset times are evaluated in.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
	TZ        *time.Location
}

// Bethpage returns the Bethpage State Park location.
func Bethpage() (Location, error) {
	return NewLocation("Farmingdale", 40.7326, -73.4457, "America/New_York")
}

// NewLocation builds a Location, resolving the IANA timezone name.
func NewLocation(name string, lat, lon float64, tzName string) (Location, error) {
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return Location{}, fmt.Errorf("loading timezone %q: %w", tzName, err)
	}
	return Location{Name: name, Latitude: lat, Longitude: lon, TZ: tz}, nil
}

// Sunset returns the local sunset time at the location on the given date.
func (l Location) Sunset(date time.Time) time.Time {
	_, set := sunrise.SunriseSunset(l.Latitude, l.Longitude, date.Year(), date.Month(), date.Day())
	return set.In(l.TZ)
}

// FarEnoughBeforeSunset reports whether a time of day (minutes since
// midnight) falls strictly before the cutoff minMinutes ahead of sunset on
// the given date. A slot exactly at the cutoff is rejected.
func (l Location) FarEnoughBeforeSunset(minMinutes int, date time.Time, timeOfDay int) bool {
	cutoff := l.Sunset(date).Add(-time.Duration(minMinutes) * time.Minute)
	cutoffMinutes := cutoff.Hour()*60 + cutoff.Minute()
	return timeOfDay < cutoffMinutes
}
