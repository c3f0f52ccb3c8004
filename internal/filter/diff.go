package filter

import "teewatch/internal/model"

// RemoveExisting returns the slots in current that have no field-equal match
// in previous, preserving the order of current. An empty or nil previous
// means everything in current is new. Multiplicities are not tracked: one
// occurrence in previous suppresses every matching slot in current.
func RemoveExisting(current, previous []model.TimeSlot) []model.TimeSlot {
	if len(previous) == 0 {
		return current
	}

	existing := make(map[string]struct{}, len(previous))
	for _, slot := range previous {
		existing[slot.Key()] = struct{}{}
	}

	fresh := []model.TimeSlot{}
	for _, slot := range current {
		if _, ok := existing[slot.Key()]; !ok {
			fresh = append(fresh, slot)
		}
	}
	return fresh
}
