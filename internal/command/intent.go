// Package command interprets the free-text hashtag commands reps type in
// chat (`#set`, `#sold`, `#soldfor`, `#nosale`, `#cancel`, `#delete`,
// `#clearleaderboard`) into structured intents. The grammar is a tolerant
// whitespace-token one, not a formal language: reps type fast and typo
// often, so every malformed input maps to a typed ParseError the caller can
// phrase back to the user, never a panic or an opaque failure.
//
// Parsing is a tokenizer plus an ordered rule table evaluated
// most-specific-trigger-first (so `#soldfor` wins over `#sold` and
// `#canceled` over `#cancel`), returning a tagged-union Intent instead of
// scattering prefix checks through a conditional.
package command

import "github.com/solartrack/go-deal-ledger/internal/domain"

// Intent is the tagged union of parsed commands. Exactly the concrete
// types in this file implement it.
type Intent interface {
	isIntent()
}

// SetAppointment logs a new appointment for a customer; the typing actor
// becomes the setter.
type SetAppointment struct {
	CustomerName string
}

// RecordSale marks a sale closed by the typing actor. Setter is non-zero
// only when the command carried a resolvable mention; CustomerName may be
// empty (some crews log sales without the customer).
type RecordSale struct {
	Setter       domain.Actor // zero when no mention was given
	CustomerName string
	KW           float64
}

// RecordSaleFor logs a sale on behalf of another rep: the first mention is
// the closer, the second the setter. Privileged.
type RecordSaleFor struct {
	Closer       domain.Actor
	Setter       domain.Actor
	CustomerName string
	KW           float64
}

// MarkNoSale resolves a pending appointment as not closed.
type MarkNoSale struct {
	CustomerName string
}

// Cancel reverses a previously sold deal for the customer.
type Cancel struct {
	CustomerName string
}

// Delete removes a deal outright, by numeric id or by customer name
// (latest match). Privileged.
type Delete struct {
	DealID       int64 // 0 when targeting by customer name
	CustomerName string
}

// ClearAll wipes every deal for the organization. Privileged.
type ClearAll struct{}

func (SetAppointment) isIntent() {}
func (RecordSale) isIntent()     {}
func (RecordSaleFor) isIntent()  {}
func (MarkNoSale) isIntent()     {}
func (Cancel) isIntent()         {}
func (Delete) isIntent()         {}
func (ClearAll) isIntent()       {}
