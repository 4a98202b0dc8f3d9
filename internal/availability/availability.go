// Package availability turns (staff, date, already-booked times, now) into
// the set of bookable time labels for one business day. It is pure: callers
// supply the clock instant and the booked list.
package availability

import (
	"strconv"
	"strings"
	"time"

	"github.com/gabrieldeelay/jnducorte2/internal/catalog"
)

type Slot struct {
	Label    string `json:"label"`
	Bookable bool   `json:"bookable"`
}

// DateAllowed reports whether the staff member works on the given date at
// all. Weekday-restricted staff filter selectable dates before any time
// label is considered.
func DateAllowed(staff catalog.Staff, date time.Time) bool {
	if staff.Weekday == nil {
		return true
	}
	return date.Weekday() == *staff.Weekday
}

// Dates returns the selectable calendar days for the staff member, starting
// at from, scanning n consecutive days.
func Dates(staff catalog.Staff, from time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for i := 0; i < n; i++ {
		d := day.AddDate(0, 0, i)
		if DateAllowed(staff, d) {
			out = append(out, d)
		}
	}
	return out
}

// Day evaluates every label of the fixed grid for one (staff, date) pair.
// Rules run in order, first false wins:
//  1. weekday-restricted staff outside their day: nothing is bookable;
//  2. Sunday labels at or after the cutoff hour are closed;
//  3. labels already present in booked are taken;
//  4. on the current day a label must lie at or beyond now plus the booking
//     buffer; future days are never subject to this rule.
//
// The result always covers the full grid, so an all-false day is an explicit
// empty state rather than an absent one.
func Day(date time.Time, staff catalog.Staff, booked []string, now time.Time) []Slot {
	taken := make(map[string]struct{}, len(booked))
	for _, label := range booked {
		taken[label] = struct{}{}
	}

	allowed := DateAllowed(staff, date)
	today := sameDay(date, now)
	cutoff := now.Add(catalog.BookingBuffer)

	slots := make([]Slot, 0, len(catalog.TimeLabels))
	for _, label := range catalog.TimeLabels {
		slots = append(slots, Slot{
			Label:    label,
			Bookable: allowed && bookable(date, label, taken, today, cutoff),
		})
	}
	return slots
}

// Bookable reports whether a single label is open, applying the same rules
// as Day.
func Bookable(date time.Time, staff catalog.Staff, label string, booked []string, now time.Time) bool {
	for _, s := range Day(date, staff, booked, now) {
		if s.Label == label {
			return s.Bookable
		}
	}
	return false
}

func bookable(date time.Time, label string, taken map[string]struct{}, today bool, cutoff time.Time) bool {
	hour, minute, ok := splitLabel(label)
	if !ok {
		return false
	}
	if date.Weekday() == time.Sunday && hour >= catalog.SundayCutoffHour {
		return false
	}
	if _, busy := taken[label]; busy {
		return false
	}
	if !today {
		return true
	}
	at := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
	// A label exactly at now+buffer is still bookable.
	return !at.Before(cutoff)
}

func splitLabel(label string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(label, ":")
	if !found {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(m)
	if err != nil {
		return 0, 0, false
	}
	return hour, minute, true
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
