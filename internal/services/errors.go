// Package services applies parsed command intents to the deal ledger and
// derives the read models (leaderboards, personal stats, audit listings)
// served to the chat-platform collaborator. This file centralizes the
// service-level error values so they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing phrasing or HTTP status codes happens at
// the handler layer; none of these errors is ever fatal to the process.
package services

import "errors"

var (
	// ErrDealNotFound indicates that no deal matches the requested id or
	// customer name within the organization.
	ErrDealNotFound = errors.New("deal not found")

	// ErrInvalidTransition is returned when an intent would move a deal
	// along an edge the state machine does not have, e.g. canceling a
	// pending appointment.
	ErrInvalidTransition = errors.New("invalid deal state transition")

	// ErrAlreadyInState signals an idempotent no-op: the deal is already
	// in the requested state (canceling a canceled deal). The stored
	// record is not touched.
	ErrAlreadyInState = errors.New("deal already in requested state")

	// ErrUnauthorized is returned when a privileged intent (delete, clear,
	// logging a sale for someone else) arrives without the collaborator's
	// privilege flag.
	ErrUnauthorized = errors.New("actor is not authorized for this command")
)
