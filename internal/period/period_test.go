package period

import (
	"testing"
	"time"

	_ "time/tzdata"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return loc
}

func TestParseKind(t *testing.T) {
	ok := map[string]Kind{
		"":          Day,
		"day":       Day,
		"Today":     Day,
		"week":      Week,
		"thisweek":  Week,
		"MONTH":     Month,
		"thismonth": Month,
	}
	for in, want := range ok {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = (%q, %v), want %q", in, got, err, want)
		}
	}
	if _, err := ParseKind("quarter"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestBoundsDayCST(t *testing.T) {
	loc := chicago(t)
	ref := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)
	start, end := Bounds(Day, ref, loc)

	wantStart := time.Date(2026, 2, 10, 6, 0, 0, 0, time.UTC) // midnight CST = UTC-6
	wantEnd := time.Date(2026, 2, 11, 6, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) || !end.Equal(wantEnd) {
		t.Fatalf("Bounds(day) = [%v, %v), want [%v, %v)", start, end, wantStart, wantEnd)
	}
}

func TestBoundsDaySpringForward(t *testing.T) {
	// 2026-03-08: DST starts in Chicago; the civil day is 23 hours long.
	loc := chicago(t)
	ref := time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC)
	start, end := Bounds(Day, ref, loc)
	if got := end.Sub(start); got != 23*time.Hour {
		t.Fatalf("spring-forward day length = %v, want 23h", got)
	}
}

func TestBoundsDayFallBack(t *testing.T) {
	// 2026-11-01: DST ends in Chicago; the civil day is 25 hours long.
	loc := chicago(t)
	ref := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	start, end := Bounds(Day, ref, loc)
	if got := end.Sub(start); got != 25*time.Hour {
		t.Fatalf("fall-back day length = %v, want 25h", got)
	}
}

func TestBoundsWeekStartsMonday(t *testing.T) {
	loc := chicago(t)
	// 2026-02-10 is a Tuesday; the week starts Monday 2026-02-09.
	ref := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)
	start, end := Bounds(Week, ref, loc)

	local := start.In(loc)
	if local.Weekday() != time.Monday || local.Hour() != 0 {
		t.Fatalf("week start = %v, want Monday midnight local", local)
	}
	if local.Day() != 9 || local.Month() != time.February {
		t.Fatalf("week start date = %v, want 2026-02-09", local)
	}
	if got := end.Sub(start); got != 7*24*time.Hour {
		t.Fatalf("week length = %v, want 168h", got)
	}
}

func TestBoundsWeekOnMonday(t *testing.T) {
	loc := chicago(t)
	// Reference already on a Monday: window starts that same day.
	ref := time.Date(2026, 2, 9, 12, 0, 0, 0, loc)
	start, _ := Bounds(Week, ref, loc)
	if got := start.In(loc).Day(); got != 9 {
		t.Fatalf("week start day = %d, want 9", got)
	}
}

func TestBoundsMonthYearRollover(t *testing.T) {
	loc := chicago(t)
	ref := time.Date(2026, 12, 15, 12, 0, 0, 0, loc)
	start, end := Bounds(Month, ref, loc)

	s, e := start.In(loc), end.In(loc)
	if s.Year() != 2026 || s.Month() != time.December || s.Day() != 1 {
		t.Fatalf("month start = %v, want 2026-12-01", s)
	}
	if e.Year() != 2027 || e.Month() != time.January || e.Day() != 1 {
		t.Fatalf("month end = %v, want 2027-01-01", e)
	}
}

func TestContainsHalfOpen(t *testing.T) {
	start := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)
	if !Contains(start, start, end) {
		t.Error("start instant should be inside")
	}
	if Contains(end, start, end) {
		t.Error("end instant should be outside (half-open)")
	}
}

func TestLabel(t *testing.T) {
	loc := chicago(t)
	dayStart, _ := Bounds(Day, time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC), loc)
	if got := Label(Day, dayStart, loc); got != "2026-02-10" {
		t.Errorf("day label = %q", got)
	}
	weekStart, _ := Bounds(Week, time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC), loc)
	if got := Label(Week, weekStart, loc); got != "2026-02-09 → 2026-02-15" {
		t.Errorf("week label = %q", got)
	}
	monthStart, _ := Bounds(Month, time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC), loc)
	if got := Label(Month, monthStart, loc); got != "2026-02" {
		t.Errorf("month label = %q", got)
	}
}
