package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotStep is the spacing of the candidate grid. It is a policy constant,
// independent of service duration, so services of different lengths share
// the same start times.
const SlotStep = 30 * time.Minute

// A slot may start up to 23:00; the generation loop stops one minute past it.
const (
	lastSlotHour   = 23
	lastSlotMinute = 1
)

// OccupiedInterval is the half-open window [Start, End) blocked by an
// existing non-canceled appointment.
type OccupiedInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the half-open candidate [slotStart, slotEnd)
// intersects occ. Touching endpoints do not overlap: a slot may end exactly
// when an appointment begins and vice versa.
func (occ OccupiedInterval) Overlaps(slotStart, slotEnd time.Time) bool {
	return slotStart.Before(occ.End) && slotEnd.After(occ.Start)
}

type AvailabilityInput struct {
	// Date is the calendar day being queried; only year, month and day are
	// used, interpreted in Location.
	Date time.Time
	// OpeningTime is the shop's "HH:MM" opening boundary for that day.
	OpeningTime string
	// DurationMinutes is the chosen service's stored duration. It is always
	// what the interval math uses, regardless of how the service displays
	// its duration.
	DurationMinutes int
	// Occupied holds the day's blocked windows. Canceled appointments must
	// already be filtered out by the caller.
	Occupied []OccupiedInterval
	// Now is the current instant; on the query day itself, slots at or
	// before Now are not offered.
	Now time.Time
	// Location is the shop's timezone. When nil, Date's location is used.
	Location *time.Location
}

// ComputeAvailableSlots walks the slot grid from the opening time to the
// last-slot boundary and returns the bookable "HH:MM" start times in
// ascending order. It is pure: same input, same output, no I/O. An empty
// result is a valid answer, not an error.
//
// The result is advisory. Two clients may both see a slot as free; the
// store's conflict-checked insert is the only gate against double booking.
func ComputeAvailableSlots(in AvailabilityInput) ([]string, error) {
	if in.DurationMinutes <= 0 {
		return nil, errors.New("duration_minutes must be positive")
	}
	openHour, openMinute, err := ParseClock(in.OpeningTime)
	if err != nil {
		return nil, fmt.Errorf("invalid opening time: %w", err)
	}

	loc := in.Location
	if loc == nil {
		loc = in.Date.Location()
	}
	year, month, day := in.Date.In(loc).Date()

	cursor := time.Date(year, month, day, openHour, openMinute, 0, 0, loc)
	limit := time.Date(year, month, day, lastSlotHour, lastSlotMinute, 0, 0, loc)
	duration := time.Duration(in.DurationMinutes) * time.Minute

	now := in.Now.In(loc)
	sameDay := now.Year() == year && now.Month() == month && now.Day() == day

	slots := make([]string, 0, 16)
	for cursor.Before(limit) {
		slotEnd := cursor.Add(duration)

		// A slot starting at or before now is gone; the comparison is
		// strict, so a slot exactly equal to now is excluded too.
		past := sameDay && !cursor.After(now)

		if !past && !overlapsAny(cursor, slotEnd, in.Occupied) {
			slots = append(slots, cursor.Format("15:04"))
		}
		cursor = cursor.Add(SlotStep)
	}
	return slots, nil
}

func overlapsAny(slotStart, slotEnd time.Time, occupied []OccupiedInterval) bool {
	for _, occ := range occupied {
		if occ.Overlaps(slotStart, slotEnd) {
			return true
		}
	}
	return false
}

// ParseClock parses a strict "HH:MM" wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, 0, fmt.Errorf("%q is not HH:MM", s)
	}
	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%q is not HH:MM", s)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%q is not HH:MM", s)
	}
	return hour, minute, nil
}
