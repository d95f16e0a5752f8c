package domain

import (
	"testing"
	"time"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	return loc
}

func TestComputeAvailableSlots_FullGridOnEmptyDay(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	slots, err := ComputeAvailableSlots(AvailabilityInput{
		Date:            date,
		OpeningTime:     "09:00",
		DurationMinutes: 90,
		Now:             date.AddDate(0, 0, -1),
		Location:        loc,
	})
	if err != nil {
		t.Fatalf("ComputeAvailableSlots error: %v", err)
	}

	// 09:00 through 23:00 on a 30 minute grid.
	if len(slots) != 29 {
		t.Fatalf("len(slots) = %d, want 29", len(slots))
	}
	if slots[0] != "09:00" || slots[1] != "09:30" || slots[2] != "10:00" {
		t.Fatalf("first slots = %v, want 09:00 09:30 10:00", slots[:3])
	}
	if slots[len(slots)-1] != "23:00" {
		t.Fatalf("last slot = %q, want %q", slots[len(slots)-1], "23:00")
	}
}

func TestComputeAvailableSlots_Deterministic(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	in := AvailabilityInput{
		Date:            date,
		OpeningTime:     "08:30",
		DurationMinutes: 45,
		Occupied: []OccupiedInterval{
			{Start: time.Date(2026, 3, 10, 10, 0, 0, 0, loc), End: time.Date(2026, 3, 10, 11, 0, 0, 0, loc)},
		},
		Now:      date.AddDate(0, 0, -1),
		Location: loc,
	}

	first, err := ComputeAvailableSlots(in)
	if err != nil {
		t.Fatalf("ComputeAvailableSlots error: %v", err)
	}
	second, err := ComputeAvailableSlots(in)
	if err != nil {
		t.Fatalf("ComputeAvailableSlots error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("len mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("slots[%d] = %q vs %q", i, first[i], second[i])
		}
	}
}

func TestComputeAvailableSlots_PastFilterIsStrict(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	// Now is exactly 14:00: the 14:00 slot is gone, 14:30 is the first offer.
	slots, err := ComputeAvailableSlots(AvailabilityInput{
		Date:            date,
		OpeningTime:     "09:00",
		DurationMinutes: 30,
		Now:             time.Date(2026, 3, 10, 14, 0, 0, 0, loc),
		Location:        loc,
	})
	if err != nil {
		t.Fatalf("ComputeAvailableSlots error: %v", err)
	}
	if len(slots) == 0 {
		t.Fatalf("expected slots")
	}
	if slots[0] != "14:30" {
		t.Fatalf("first slot = %q, want %q", slots[0], "14:30")
	}
	for _, s := range slots {
		if s == "14:00" {
			t.Fatalf("14:00 offered at now=14:00")
		}
	}
}

func TestComputeAvailableSlots_PastFilterOnlyAppliesToQueryDay(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	tomorrow := time.Date(2026, 3, 11, 0, 0, 0, 0, loc)

	slots, err := ComputeAvailableSlots(AvailabilityInput{
		Date:            tomorrow,
		OpeningTime:     "09:00",
		DurationMinutes: 30,
		Now:             time.Date(2026, 3, 10, 22, 0, 0, 0, loc),
		Location:        loc,
	})
	if err != nil {
		t.Fatalf("ComputeAvailableSlots error: %v", err)
	}
	if slots[0] != "09:00" {
		t.Fatalf("first slot = %q, want %q", slots[0], "09:00")
	}
}

func TestComputeAvailableSlots_TouchingIntervalsDoNotBlock(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	slots, err := ComputeAvailableSlots(AvailabilityInput{
		Date:            date,
		OpeningTime:     "09:00",
		DurationMinutes: 30,
		Occupied: []OccupiedInterval{
			{Start: time.Date(2026, 3, 10, 10, 30, 0, 0, loc), End: time.Date(2026, 3, 10, 11, 0, 0, 0, loc)},
		},
		Now:      date.AddDate(0, 0, -1),
		Location: loc,
	})
	if err != nil {
		t.Fatalf("ComputeAvailableSlots error: %v", err)
	}

	// A 30 minute slot at 10:00 ends exactly when the appointment starts,
	// and 11:00 starts exactly when it ends. Both stay bookable.
	if !contains(slots, "10:00") {
		t.Fatalf("10:00 missing from %v", slots)
	}
	if !contains(slots, "11:00") {
		t.Fatalf("11:00 missing from %v", slots)
	}
	if contains(slots, "10:30") {
		t.Fatalf("10:30 offered while occupied")
	}
}

func TestComputeAvailableSlots_PartialOverlapBlocks(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	slots, err := ComputeAvailableSlots(AvailabilityInput{
		Date:            date,
		OpeningTime:     "09:00",
		DurationMinutes: 30,
		Occupied: []OccupiedInterval{
			{Start: time.Date(2026, 3, 10, 10, 15, 0, 0, loc), End: time.Date(2026, 3, 10, 10, 45, 0, 0, loc)},
		},
		Now:      date.AddDate(0, 0, -1),
		Location: loc,
	})
	if err != nil {
		t.Fatalf("ComputeAvailableSlots error: %v", err)
	}
	if contains(slots, "10:00") {
		t.Fatalf("10:00 offered across a partial overlap")
	}
	if contains(slots, "10:30") {
		t.Fatalf("10:30 offered across a partial overlap")
	}
	if !contains(slots, "11:00") {
		t.Fatalf("11:00 missing from %v", slots)
	}
}

func TestComputeAvailableSlots_LongDurationBlocksEarlierStarts(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	// A 2 hour service cannot start at 09:00 when 10:00-10:30 is taken.
	slots, err := ComputeAvailableSlots(AvailabilityInput{
		Date:            date,
		OpeningTime:     "09:00",
		DurationMinutes: 120,
		Occupied: []OccupiedInterval{
			{Start: time.Date(2026, 3, 10, 10, 0, 0, 0, loc), End: time.Date(2026, 3, 10, 10, 30, 0, 0, loc)},
		},
		Now:      date.AddDate(0, 0, -1),
		Location: loc,
	})
	if err != nil {
		t.Fatalf("ComputeAvailableSlots error: %v", err)
	}
	for _, s := range []string{"09:00", "09:30", "10:00"} {
		if contains(slots, s) {
			t.Fatalf("%s offered for a 2h service over a 10:00 appointment", s)
		}
	}
	if !contains(slots, "10:30") {
		t.Fatalf("10:30 missing from %v", slots)
	}
}

func TestComputeAvailableSlots_FullyOccupiedDayIsEmptyNotError(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	slots, err := ComputeAvailableSlots(AvailabilityInput{
		Date:            date,
		OpeningTime:     "09:00",
		DurationMinutes: 30,
		Occupied: []OccupiedInterval{
			{Start: time.Date(2026, 3, 10, 0, 0, 0, 0, loc), End: time.Date(2026, 3, 11, 0, 0, 0, 0, loc)},
		},
		Now:      date.AddDate(0, 0, -1),
		Location: loc,
	})
	if err != nil {
		t.Fatalf("ComputeAvailableSlots error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("slots = %v, want empty", slots)
	}
}

func TestComputeAvailableSlots_InvalidInputs(t *testing.T) {
	loc := mustLocation(t, "America/Sao_Paulo")
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	if _, err := ComputeAvailableSlots(AvailabilityInput{
		Date:            date,
		OpeningTime:     "09:00",
		DurationMinutes: 0,
		Now:             date,
		Location:        loc,
	}); err == nil {
		t.Fatalf("expected error for zero duration")
	}

	if _, err := ComputeAvailableSlots(AvailabilityInput{
		Date:            date,
		OpeningTime:     "9am",
		DurationMinutes: 30,
		Now:             date,
		Location:        loc,
	}); err == nil {
		t.Fatalf("expected error for bad opening time")
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{in: "09:00", hour: 9},
		{in: "23:59", hour: 23, minute: 59},
		{in: "00:00"},
		{in: " 10:30 ", hour: 10, minute: 30},
		{in: "24:00", wantErr: true},
		{in: "10:60", wantErr: true},
		{in: "9:00", wantErr: true},
		{in: "10:5", wantErr: true},
		{in: "1000", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		h, m, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseClock(%q) error: %v", tc.in, err)
		}
		if h != tc.hour || m != tc.minute {
			t.Fatalf("ParseClock(%q) = %d:%d, want %d:%d", tc.in, h, m, tc.hour, tc.minute)
		}
	}
}

func contains(slots []string, want string) bool {
	for _, s := range slots {
		if s == want {
			return true
		}
	}
	return false
}
