package model

import "fmt"

// TimeSlot is one bookable tee time as it appears on the scraped tee sheet.
// All fields are kept as the raw strings from the site; there is no unique
// identifier, so two slots are the same slot iff every field matches.
type TimeSlot struct {
	Date    string `json:"date"`    // e.g. "Saturday June 20th"
	Time    string `json:"time"`    // e.g. "9:00am"
	Players string `json:"players"` // e.g. "3"
	Holes   string `json:"holes"`   // "9" or "18"
}

// Key returns a canonical string covering every field, used for set
// membership when diffing against a previous snapshot.
func (s TimeSlot) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", s.Date, s.Time, s.Players, s.Holes)
}

// Equal reports structural equality of all fields.
func (s TimeSlot) Equal(other TimeSlot) bool {
	return s == other
}
