// Package period converts day/week/month leaderboard requests into
// half-open UTC time ranges. All boundary arithmetic happens in civil time
// within the configured zone, never by adding fixed UTC offsets, so a "day"
// that spans a daylight-saving transition comes out 23 or 25 wall-clock
// hours long and still filters the right deals.
//
// The package is pure and does no logging; callers decide how to report
// invalid input.
package period

import (
	"fmt"
	"strings"
	"time"
)

// Kind selects the civil-calendar window a leaderboard covers.
type Kind string

const (
	// Day is midnight to next midnight in the local zone.
	Day Kind = "day"
	// Week is the most recent Monday midnight plus seven days.
	Week Kind = "week"
	// Month is first-of-month midnight to first-of-next-month midnight.
	Month Kind = "month"
)

// ParseKind maps a user-supplied period token to a Kind. It accepts the
// aliases reps historically typed ("today", "thisweek", "thismonth").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day", "today":
		return Day, nil
	case "week", "thisweek":
		return Week, nil
	case "month", "thismonth":
		return Month, nil
	}
	return "", fmt.Errorf("unknown period kind %q", s)
}

// Bounds returns the half-open interval [start, end) of the period of the
// given kind containing ref, computed in loc and returned as UTC instants
// for storage-layer comparison.
func Bounds(kind Kind, ref time.Time, loc *time.Location) (start, end time.Time) {
	local := ref.In(loc)
	y, m, d := local.Date()

	switch kind {
	case Week:
		// Monday start-of-week; Go's Weekday has Sunday == 0.
		offset := (int(local.Weekday()) + 6) % 7
		monday := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -offset)
		return monday.UTC(), monday.AddDate(0, 0, 7).UTC()
	case Month:
		first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		// AddDate handles the December → January rollover.
		return first.UTC(), first.AddDate(0, 1, 0).UTC()
	default: // Day
		midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return midnight.UTC(), midnight.AddDate(0, 0, 1).UTC()
	}
}

// Contains reports whether t falls inside the half-open interval [start, end).
func Contains(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// Label renders the human-readable period label carried by leaderboard
// payloads: "2026-02-10" for a day, "2026-02-09 → 2026-02-15" for a week
// (last day inclusive), "2026-02" for a month.
func Label(kind Kind, startUTC time.Time, loc *time.Location) string {
	start := startUTC.In(loc)
	switch kind {
	case Week:
		last := start.AddDate(0, 0, 6)
		return start.Format("2006-01-02") + " → " + last.Format("2006-01-02")
	case Month:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}
