// Package services – LedgerService
//
// This file implements the LedgerService, which owns the deal state
// machine. It resolves customers to their latest matching deal, applies
// transitions (pending → sold → canceled, pending → no_sale), enforces the
// privilege gate on destructive commands, and persists every mutation
// through the injected Store.
//
// Storage write failures are retried once before being surfaced; both
// backends roll back cleanly on a failed write, so the retry never
// double-applies.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/solartrack/go-deal-ledger/internal/domain"
	"github.com/solartrack/go-deal-ledger/internal/repo"
)

// LedgerService provides the write-side operations of the deal ledger.
type LedgerService struct {
	// Store is the ledger persistence backend.
	Store repo.Store

	// AutoCreateOnSold controls what a sale against a customer with no
	// pending appointment does: create the sold deal outright (true, the
	// default — tracks ungated direct sales) or reject with
	// ErrDealNotFound (false). Crews run both ways.
	AutoCreateOnSold bool
}

// NewLedgerService constructs a LedgerService with the default
// create-on-sold policy.
func NewLedgerService(store repo.Store) *LedgerService {
	return &LedgerService{Store: store, AutoCreateOnSold: true}
}

// retryWrite runs a storage write, retrying exactly once on failure. The
// second attempt's error (if any) is the one surfaced.
func retryWrite(fn func() error) error {
	if err := fn(); err != nil {
		return fn()
	}
	return nil
}

// latestMatch returns the most recent deal in deals whose folded customer
// name equals customer, ties broken by created_at descending (the later
// stored record wins an exact tie). Deals arrive oldest first from the
// store. An optional status filter narrows the candidates.
func latestMatch(deals []domain.Deal, customer string, statuses ...domain.DealStatus) *domain.Deal {
	want := domain.FoldName(customer)
	if want == "" {
		return nil
	}
	var best *domain.Deal
	for i := range deals {
		d := &deals[i]
		if domain.FoldName(d.CustomerName) != want {
			continue
		}
		if len(statuses) > 0 {
			ok := false
			for _, st := range statuses {
				if d.Status == st {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}
		if best == nil || !d.CreatedAt.Before(best.CreatedAt) {
			best = d
		}
	}
	return best
}

// SetAppointment creates a pending deal for the customer, crediting the
// typing actor as setter.
func (s *LedgerService) SetAppointment(ctx context.Context, guildID string, setter domain.Actor, customer string, at time.Time) (*domain.Deal, error) {
	d := &domain.Deal{
		GuildID:      guildID,
		CustomerName: strings.TrimSpace(customer),
		SetterID:     setter.ID,
		SetterName:   setter.Name,
		Status:       domain.StatusPending,
		CreatedAt:    at.UTC(),
	}
	if err := retryWrite(func() error { return s.Store.Append(ctx, d) }); err != nil {
		return nil, err
	}
	return d, nil
}

// RecordSale marks the customer's pending appointment sold by closer,
// recording the system size. A mention on the command overrides the stored
// setter (setter non-zero); otherwise the setter from #set is kept.
//
// When no pending appointment matches, behavior follows AutoCreateOnSold.
// An empty customer name always creates the sold deal directly — there is
// nothing to look up.
func (s *LedgerService) RecordSale(ctx context.Context, guildID string, closer, setter domain.Actor, customer string, kw float64, at time.Time) (*domain.Deal, error) {
	deals, err := s.Store.Load(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if d := latestMatch(deals, customer, domain.StatusPending); d != nil {
		closedAt := at.UTC()
		d.Status = domain.StatusSold
		d.CloserID = closer.ID
		d.CloserName = closer.Name
		d.KW = &kw
		d.ClosedAt = &closedAt
		if !setter.Zero() {
			d.SetterID = setter.ID
			d.SetterName = setter.Name
		}
		if err := retryWrite(func() error { return s.Store.Update(ctx, d) }); err != nil {
			return nil, err
		}
		return d, nil
	}

	if strings.TrimSpace(customer) != "" && !s.AutoCreateOnSold {
		return nil, ErrDealNotFound
	}

	closedAt := at.UTC()
	d := &domain.Deal{
		GuildID:      guildID,
		CustomerName: strings.TrimSpace(customer),
		SetterID:     setter.ID,
		SetterName:   setter.Name,
		CloserID:     closer.ID,
		CloserName:   closer.Name,
		KW:           &kw,
		Status:       domain.StatusSold,
		CreatedAt:    at.UTC(),
		ClosedAt:     &closedAt,
	}
	if err := retryWrite(func() error { return s.Store.Append(ctx, d) }); err != nil {
		return nil, err
	}
	return d, nil
}

// RecordSaleFor logs a sale on behalf of another rep, crediting the given
// closer and setter explicitly. Privileged: team leads correcting or
// back-filling the ledger.
func (s *LedgerService) RecordSaleFor(ctx context.Context, guildID string, closer, setter domain.Actor, customer string, kw float64, privileged bool, at time.Time) (*domain.Deal, error) {
	if !privileged {
		return nil, ErrUnauthorized
	}
	return s.RecordSale(ctx, guildID, closer, setter, customer, kw, at)
}

// MarkNoSale resolves the customer's pending appointment as not closed,
// recording the loss reason. An unrecognized reason is preserved in the
// free-text detail and coded as "other" rather than rejected — the reason
// arrives from a follow-up chat reply and may be anything.
//
// Returns ErrDealNotFound when no deal matches the customer and
// ErrInvalidTransition when the latest match is not pending.
func (s *LedgerService) MarkNoSale(ctx context.Context, guildID, customer string, reason domain.LossReason, detail string, at time.Time) (*domain.Deal, error) {
	deals, err := s.Store.Load(ctx, guildID)
	if err != nil {
		return nil, err
	}
	d := latestMatch(deals, customer)
	if d == nil {
		return nil, ErrDealNotFound
	}
	if d.Status != domain.StatusPending {
		return nil, ErrInvalidTransition
	}

	if reason != "" && !domain.ValidLossReason(reason) {
		detail = strings.TrimSpace(string(reason) + " " + detail)
		reason = domain.LossOther
	}
	d.Status = domain.StatusNoSale
	d.LossReason = reason
	d.LossDetail = detail
	if err := retryWrite(func() error { return s.Store.Update(ctx, d) }); err != nil {
		return nil, err
	}
	return d, nil
}

// Cancel reverses the customer's sold deal, stamping canceled_at and
// keeping the closer and kW for audit. Canceling an already-canceled deal
// is an ErrAlreadyInState no-op that does not touch the stored record;
// canceling a deal that was never sold is ErrInvalidTransition.
func (s *LedgerService) Cancel(ctx context.Context, guildID, customer string, at time.Time) (*domain.Deal, error) {
	deals, err := s.Store.Load(ctx, guildID)
	if err != nil {
		return nil, err
	}
	d := latestMatch(deals, customer)
	if d == nil {
		return nil, ErrDealNotFound
	}
	switch d.Status {
	case domain.StatusCanceled:
		return d, ErrAlreadyInState
	case domain.StatusSold:
		canceledAt := at.UTC()
		d.Status = domain.StatusCanceled
		d.CanceledAt = &canceledAt
		if err := retryWrite(func() error { return s.Store.Update(ctx, d) }); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, ErrInvalidTransition
	}
}

// Delete removes a deal outright, by numeric id when id > 0, otherwise by
// the latest match for the customer name. Privileged.
func (s *LedgerService) Delete(ctx context.Context, guildID string, id int64, customer string, privileged bool) (*domain.Deal, error) {
	if !privileged {
		return nil, ErrUnauthorized
	}
	deals, err := s.Store.Load(ctx, guildID)
	if err != nil {
		return nil, err
	}

	var d *domain.Deal
	if id > 0 {
		for i := range deals {
			if deals[i].ID == id {
				d = &deals[i]
				break
			}
		}
	} else {
		d = latestMatch(deals, customer)
	}
	if d == nil {
		return nil, ErrDealNotFound
	}

	err = retryWrite(func() error { return s.Store.Remove(ctx, guildID, d.ID) })
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ClearAll wipes every deal for the organization and reports how many were
// removed. Ids are never reset, so records created afterwards keep
// monotonic ids. Privileged.
func (s *LedgerService) ClearAll(ctx context.Context, guildID string, privileged bool) (int64, error) {
	if !privileged {
		return 0, ErrUnauthorized
	}
	var n int64
	err := retryWrite(func() error {
		var err error
		n, err = s.Store.Clear(ctx, guildID)
		return err
	})
	return n, err
}

// Deals returns the organization's full ledger, oldest first. Used by the
// audit listing and CSV export surfaces.
func (s *LedgerService) Deals(ctx context.Context, guildID string) ([]domain.Deal, error) {
	return s.Store.Load(ctx, guildID)
}
