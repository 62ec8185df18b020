// Package stats is the pure aggregation engine behind leaderboards and
// personal stats: grouping sold deals by rep, splitting them into product
// categories, deriving revenue and pay splits, and recomputing sale
// streaks. It is deliberately small and dependency-light:
//
//   - No logging in the library (callers decide how/what to log)
//   - Deterministic scoring and sorting (stable order for ties)
//   - Order-independent grouping: permuting the input changes nothing
//     beyond stable tie-breaks
//
// Money math uses shopspring/decimal; everything else is plain values.
package stats

import (
	"sort"

	"github.com/solartrack/go-deal-ledger/internal/domain"
)

// Role selects which actor snapshot of a deal a grouping keys on.
type Role string

const (
	// Closer groups by who finalized each sale.
	Closer Role = "closer"
	// Setter groups by who generated each lead.
	Setter Role = "setter"
)

// Row is one leaderboard line: a rep with their deal count and kW total.
//
// ActorID is empty for name-only reps (deals logged without a resolvable
// mention); ActorKey is the grouping key actually used.
type Row struct {
	ActorKey  string  `json:"-"`
	ActorID   string  `json:"actor_id,omitempty"`
	ActorName string  `json:"actor_name"`
	Count     int     `json:"count"`
	TotalKW   float64 `json:"total_kw"`
}

// actorFor extracts the role's actor snapshot from a deal.
func actorFor(d *domain.Deal, role Role) domain.Actor {
	if role == Setter {
		return d.Setter()
	}
	return d.Closer()
}

// Aggregate groups the given deals by the role's actor and returns one Row
// per rep, sorted by deal count descending, then total kW descending,
// stable beyond that (first-seen order breaks exact ties, which is
// insertion-order deterministic for a given input).
//
// Grouping keys on the platform id when present and falls back to the
// case-folded display name otherwise; deals whose role actor is entirely
// absent are skipped. The caller is responsible for pre-filtering to the
// deals it wants counted (normally status == sold within a period). Nil kW
// sums as 0.
func Aggregate(deals []domain.Deal, role Role) []Row {
	byKey := make(map[string]*Row, len(deals))
	order := make([]string, 0, len(deals))

	for i := range deals {
		a := actorFor(&deals[i], role)
		if a.Zero() {
			continue
		}
		key := a.Key()
		row, ok := byKey[key]
		if !ok {
			row = &Row{ActorKey: key, ActorID: a.ID, ActorName: a.Name}
			byKey[key] = row
			order = append(order, key)
		}
		row.Count++
		row.TotalKW += deals[i].KWValue()
	}

	out := make([]Row, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].TotalKW > out[j].TotalKW
	})
	return out
}

// SplitByCategory partitions deals into the primary (solar + battery) and
// secondary (battery-only) product categories. A deal is secondary iff its
// kW is exactly zero — a domain rule, not a threshold: 0 kW is what reps
// type for an add-on-only sale. Nil kW coerces to 0 and lands in secondary,
// matching legacy records logged before the field existed.
func SplitByCategory(deals []domain.Deal) (primary, secondary []domain.Deal) {
	for _, d := range deals {
		if d.BatteryOnly() {
			secondary = append(secondary, d)
		} else {
			primary = append(primary, d)
		}
	}
	return primary, secondary
}

// TotalKW sums kilowatts across deals, nil coerced to 0.
func TotalKW(deals []domain.Deal) float64 {
	var total float64
	for i := range deals {
		total += deals[i].KWValue()
	}
	return total
}
