// Package services – LeaderboardService
//
// This file implements the read models: period leaderboards (top closers
// and setters, solar vs battery-only sections, totals, optional revenue),
// per-rep personal stats with streaks, and period-filtered audit listings.
// All derivation is delegated to the pure stats and period packages; this
// service only loads, filters, and assembles render-ready payloads for the
// chat collaborator.
package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solartrack/go-deal-ledger/internal/domain"
	"github.com/solartrack/go-deal-ledger/internal/period"
	"github.com/solartrack/go-deal-ledger/internal/repo"
	"github.com/solartrack/go-deal-ledger/internal/stats"
)

// defaultTopN caps leaderboard tables at the ten rows the chat embed shows.
const defaultTopN = 10

// LeaderboardService derives leaderboards and personal stats from the
// ledger. All fields are read-only after construction.
type LeaderboardService struct {
	// Store is the ledger persistence backend.
	Store repo.Store
	// Loc is the organization's civil time zone for period boundaries.
	Loc *time.Location
	// TopN caps each leaderboard table.
	TopN int

	// RevenueEnabled switches revenue totals on. RatePerKW is the
	// configured dollar rate per kilowatt; PayMode/PayValue configure the
	// per-rep pay split shown in personal stats.
	RevenueEnabled bool
	RatePerKW      decimal.Decimal
	PayMode        stats.SplitMode
	PayValue       decimal.Decimal
}

// NewLeaderboardService constructs a LeaderboardService with the default
// table size and revenue disabled.
func NewLeaderboardService(store repo.Store, loc *time.Location) *LeaderboardService {
	return &LeaderboardService{
		Store:   store,
		Loc:     loc,
		TopN:    defaultTopN,
		PayMode: stats.SplitNone,
	}
}

// Totals summarizes a leaderboard's window.
type Totals struct {
	Deals        int     `json:"deals"`
	TotalKW      float64 `json:"total_kw"`
	SolarDeals   int     `json:"solar_deals"`
	BatteryDeals int     `json:"battery_deals"`
	Revenue      string  `json:"revenue,omitempty"`
}

// Leaderboard is the render-ready payload for one organization and period.
// The collaborator turns it into a chat embed; no formatting happens here.
type Leaderboard struct {
	GuildID        string      `json:"guild_id"`
	Period         period.Kind `json:"period"`
	Label          string      `json:"label"`
	Start          time.Time   `json:"start"`
	End            time.Time   `json:"end"`
	Closers        []stats.Row `json:"closers"`
	Setters        []stats.Row `json:"setters"`
	BatteryClosers []stats.Row `json:"battery_closers,omitempty"`
	Totals         Totals      `json:"totals"`
}

// closedTime is the instant a sold deal counts toward: closed_at, falling
// back to created_at for direct-logged sales stored before the field.
func closedTime(d *domain.Deal) time.Time {
	if d.ClosedAt != nil {
		return *d.ClosedAt
	}
	return d.CreatedAt
}

// soldInWindow filters to sold deals whose close instant falls in [start, end).
func soldInWindow(deals []domain.Deal, start, end time.Time) []domain.Deal {
	out := make([]domain.Deal, 0, len(deals))
	for i := range deals {
		if deals[i].Status != domain.StatusSold {
			continue
		}
		if period.Contains(closedTime(&deals[i]), start, end) {
			out = append(out, deals[i])
		}
	}
	return out
}

func (s *LeaderboardService) topN(rows []stats.Row) []stats.Row {
	if n := s.TopN; n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

// Leaderboard assembles the leaderboard for the period of the given kind
// containing ref.
func (s *LeaderboardService) Leaderboard(ctx context.Context, guildID string, kind period.Kind, ref time.Time) (*Leaderboard, error) {
	deals, err := s.Store.Load(ctx, guildID)
	if err != nil {
		return nil, err
	}

	start, end := period.Bounds(kind, ref, s.Loc)
	sold := soldInWindow(deals, start, end)
	primary, secondary := stats.SplitByCategory(sold)

	lb := &Leaderboard{
		GuildID:        guildID,
		Period:         kind,
		Label:          period.Label(kind, start, s.Loc),
		Start:          start,
		End:            end,
		Closers:        s.topN(stats.Aggregate(sold, stats.Closer)),
		Setters:        s.topN(stats.Aggregate(sold, stats.Setter)),
		BatteryClosers: s.topN(stats.Aggregate(secondary, stats.Closer)),
		Totals: Totals{
			Deals:        len(sold),
			TotalKW:      stats.TotalKW(sold),
			SolarDeals:   len(primary),
			BatteryDeals: len(secondary),
		},
	}
	if s.RevenueEnabled {
		lb.Totals.Revenue = stats.TotalRevenue(sold, s.RatePerKW).StringFixed(2)
	}
	return lb, nil
}

// PeriodStats is one window of a rep's personal stats.
type PeriodStats struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	TotalKW float64 `json:"total_kw"`
	Pay     string  `json:"pay,omitempty"`
}

// PersonalStats is the render-ready !mystats payload for one rep.
type PersonalStats struct {
	GuildID   string      `json:"guild_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	ActorName string      `json:"actor_name,omitempty"`
	Day       PeriodStats `json:"day"`
	Week      PeriodStats `json:"week"`
	Month     PeriodStats `json:"month"`
	Streak    int         `json:"streak"`
}

// MyStats derives the rep's closed-deal counts and kW for the current day,
// week, and month, plus their sale streak. Pay figures appear only when
// revenue is enabled and a split mode is configured.
func (s *LeaderboardService) MyStats(ctx context.Context, guildID string, actor domain.Actor, ref time.Time) (*PersonalStats, error) {
	deals, err := s.Store.Load(ctx, guildID)
	if err != nil {
		return nil, err
	}

	key := actor.Key()
	mine := make([]domain.Deal, 0, len(deals))
	for i := range deals {
		if deals[i].Status == domain.StatusSold && deals[i].Closer().Key() == key {
			mine = append(mine, deals[i])
		}
	}

	ps := &PersonalStats{
		GuildID:   guildID,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Streak:    stats.Streak(deals, actor, ref, s.Loc),
	}
	for _, w := range []struct {
		kind period.Kind
		dst  *PeriodStats
	}{
		{period.Day, &ps.Day},
		{period.Week, &ps.Week},
		{period.Month, &ps.Month},
	} {
		start, end := period.Bounds(w.kind, ref, s.Loc)
		in := soldInWindow(mine, start, end)
		w.dst.Label = period.Label(w.kind, start, s.Loc)
		w.dst.Count = len(in)
		w.dst.TotalKW = stats.TotalKW(in)
		if s.RevenueEnabled && s.PayMode != stats.SplitNone {
			revenue := stats.TotalRevenue(in, s.RatePerKW)
			w.dst.Pay = stats.Pay(s.PayMode, s.PayValue, revenue, len(in)).StringFixed(2)
		}
	}
	return ps, nil
}

// DealsInPeriod returns the organization's deals created in the period of
// the given kind containing ref, all statuses, oldest first. A zero kind
// returns the full ledger.
func (s *LeaderboardService) DealsInPeriod(ctx context.Context, guildID string, kind period.Kind, ref time.Time) ([]domain.Deal, error) {
	deals, err := s.Store.Load(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return deals, nil
	}
	start, end := period.Bounds(kind, ref, s.Loc)
	out := make([]domain.Deal, 0, len(deals))
	for i := range deals {
		if period.Contains(deals[i].CreatedAt, start, end) {
			out = append(out, deals[i])
		}
	}
	return out, nil
}
