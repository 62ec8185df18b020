// Package domain defines the persistence model for deals — the single
// tracked record of a solar sales pipeline entry (appointment → sold /
// no-sale / canceled) — together with the actor and status value types the
// rest of the application shares. The Deal type is mapped with GORM for the
// SQLite backend and carries JSON tags matching the legacy ledger file
// layout, so both store backends serialize identical records.
package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// DealStatus enumerates the deal state machine.
//
// Allowed transitions:
//
//	pending → sold → canceled
//	pending → no_sale
//
// sold may also be reached directly when no pending appointment exists
// (policy-gated in the service layer). canceled is terminal.
type DealStatus string

const (
	// StatusPending is an appointment that has been set but not resolved.
	StatusPending DealStatus = "pending"
	// StatusSold is a finalized sale.
	StatusSold DealStatus = "sold"
	// StatusNoSale is a pursued lead that did not close; carries a loss reason.
	StatusNoSale DealStatus = "no_sale"
	// StatusCanceled is a previously sold deal that was reversed.
	StatusCanceled DealStatus = "canceled"
)

// LossReason enumerates why a no-sale deal failed to close.
type LossReason string

const (
	LossGhosted      LossReason = "ghosted"
	LossOneLegger    LossReason = "one_legger"
	LossNeedsThought LossReason = "needs_thought"
	LossDisqualified LossReason = "disqualified"
	LossOther        LossReason = "other"
)

// ValidLossReason reports whether r is one of the enumerated loss codes.
func ValidLossReason(r LossReason) bool {
	switch r {
	case LossGhosted, LossOneLegger, LossNeedsThought, LossDisqualified, LossOther:
		return true
	}
	return false
}

// Actor is a denormalized snapshot of a sales rep as of the event that
// recorded it. An actor may be identified (platform id + display name) or
// name-only when the command was typed without a resolvable mention.
// Aggregation code must branch on Identified() explicitly rather than
// silently coalescing the two variants.
type Actor struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Identified reports whether the actor carries a platform id.
func (a Actor) Identified() bool { return a.ID != "" }

// Zero reports whether the actor is entirely absent (no id, no name).
func (a Actor) Zero() bool { return a.ID == "" && strings.TrimSpace(a.Name) == "" }

// Key returns the grouping key for leaderboard aggregation: the platform id
// when present, otherwise the case-folded display name. Two differently-id'd
// actors sharing a display name collide on the fallback key; that is the
// accepted legacy behavior.
func (a Actor) Key() string {
	if a.ID != "" {
		return "id:" + a.ID
	}
	return "name:" + FoldName(a.Name)
}

// caseFolder performs Unicode case folding for caseless comparison.
var caseFolder = cases.Fold()

// FoldName normalizes a customer or actor display name for lookup:
// whitespace-trimmed, inner runs of whitespace collapsed, case-folded.
func FoldName(s string) string {
	return caseFolder.String(strings.Join(strings.Fields(s), " "))
}

// Deal is the central entity: one tracked sales-pipeline record, scoped to
// an organization (one chat server, "guild"). Setter and closer are embedded
// snapshots, not foreign keys — display names change over time and history
// must keep the name as of the event.
//
// Fields:
//   - ID: integer primary key, monotonically assigned by the store,
//     unique within the deployment and immutable once set.
//   - GuildID: tenant boundary; deals never cross it.
//   - CustomerName: free text as typed; lookups fold case and whitespace.
//   - SetterID/SetterName: who generated the lead; may be name-only.
//   - CloserID/CloserName: who finalized the sale; required once sold.
//   - KW: system size in kilowatts. Nullable; zero is meaningful and
//     distinguishes a battery-only sale from a solar+battery one.
//   - Status: state machine position (see DealStatus).
//   - LossReason/LossDetail: set only when Status is no_sale.
//   - CreatedAt/ClosedAt/CanceledAt: UTC instants, each written exactly
//     once when the corresponding transition happens.
type Deal struct {
	ID           int64      `json:"id"                      gorm:"primaryKey;autoIncrement:false"`
	GuildID      string     `json:"guild_id"                gorm:"type:varchar(64);not null;index:idx_guild_deals,priority:1"`
	CustomerName string     `json:"customer_name"           gorm:"type:varchar(255);not null"`
	SetterID     string     `json:"setter_id,omitempty"     gorm:"type:varchar(64)"`
	SetterName   string     `json:"setter_name,omitempty"   gorm:"type:varchar(255)"`
	CloserID     string     `json:"closer_id,omitempty"     gorm:"type:varchar(64)"`
	CloserName   string     `json:"closer_name,omitempty"   gorm:"type:varchar(255)"`
	KW           *float64   `json:"kw"`
	Status       DealStatus `json:"status"                  gorm:"type:varchar(16);not null;index;check:status IN ('pending','sold','no_sale','canceled')"`
	LossReason   LossReason `json:"loss_reason,omitempty"   gorm:"type:varchar(32)"`
	LossDetail   string     `json:"loss_detail,omitempty"   gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at"              gorm:"index:idx_guild_deals,priority:2"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	CanceledAt   *time.Time `json:"canceled_at,omitempty"`
}

// TableName returns the database table name for Deal.
func (Deal) TableName() string { return "deals" }

// Setter returns the setter snapshot as an Actor value.
func (d *Deal) Setter() Actor { return Actor{ID: d.SetterID, Name: d.SetterName} }

// Closer returns the closer snapshot as an Actor value.
func (d *Deal) Closer() Actor { return Actor{ID: d.CloserID, Name: d.CloserName} }

// KWValue returns the recorded kilowatts with nil coerced to 0, the
// convention every aggregate in the system uses.
func (d *Deal) KWValue() float64 {
	if d.KW == nil {
		return 0
	}
	return *d.KW
}

// BatteryOnly reports whether the deal belongs to the battery-only category.
// The rule is exact equality with zero, not a threshold: 0 kW is the
// sentinel reps type for an add-on-only sale. A nil KW counts as 0, which
// matches how legacy records without the field were classified.
func (d *Deal) BatteryOnly() bool { return d.KWValue() == 0 }

// Counter is the single-row table backing monotonic deal id assignment in
// the SQLite store. The file store keeps the equivalent next_id field in
// its header.
type Counter struct {
	Name   string `gorm:"type:varchar(32);primaryKey"`
	NextID int64  `gorm:"not null"`
}

// TableName returns the database table name for Counter.
func (Counter) TableName() string { return "counters" }
