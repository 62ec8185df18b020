package stats

import (
	"time"

	"github.com/solartrack/go-deal-ledger/internal/domain"
)

// Streak returns the number of consecutive civil days (in loc, counting
// back from ref's day) on which the actor closed at least one of the given
// deals. A streak is still "alive" if the most recent sale day is yesterday
// — today simply hasn't produced a sale yet — so counting starts at today
// and is allowed to skip it once.
//
// The streak is recomputed from the full deal set on every call rather than
// cached: volumes are small and the derivation cannot drift from the
// ledger. Only sold deals count; the sale day is taken from ClosedAt
// (CreatedAt when absent).
func Streak(deals []domain.Deal, actor domain.Actor, ref time.Time, loc *time.Location) int {
	if actor.Zero() {
		return 0
	}
	key := actor.Key()

	saleDays := make(map[string]struct{})
	for i := range deals {
		d := &deals[i]
		if d.Status != domain.StatusSold || d.Closer().Key() != key {
			continue
		}
		at := d.CreatedAt
		if d.ClosedAt != nil {
			at = *d.ClosedAt
		}
		saleDays[at.In(loc).Format("2006-01-02")] = struct{}{}
	}
	if len(saleDays) == 0 {
		return 0
	}

	day := ref.In(loc)
	if _, ok := saleDays[day.Format("2006-01-02")]; !ok {
		// No sale yet today; the streak may still end yesterday.
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := saleDays[day.Format("2006-01-02")]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
