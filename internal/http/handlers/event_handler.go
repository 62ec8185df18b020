// Inbound chat-event handler.
//
// The chat-platform collaborator forwards every channel message here:
//
//	POST /api/v1/guilds/{guild_id}/events
//
// The handler parses the text as a hashtag command, applies it to the
// ledger, and returns a render-ready result object the collaborator turns
// into a chat reply. Three result kinds exist:
//
//   - "confirmation": the command was applied; carries the affected deal.
//   - "error": the command failed in a way the rep can fix (typo, unknown
//     customer, wrong deal state). Returned with HTTP 200 because these are
//     routine chat replies, not API failures.
//   - "ignored": the message is ordinary chat, no trigger matched.
//
// Privilege violations are the exception: they come back as HTTP 403 with
// the standard error envelope, so the collaborator can distinguish abuse
// from typos.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solartrack/go-deal-ledger/internal/command"
	"github.com/solartrack/go-deal-ledger/internal/domain"
	"github.com/solartrack/go-deal-ledger/internal/http/middleware"
	"github.com/solartrack/go-deal-ledger/internal/services"
)

// LedgerService defines the write-side ledger operations consumed by the
// event handler. Implementations must honor the context for cancellation.
type LedgerService interface {
	SetAppointment(ctx context.Context, guildID string, setter domain.Actor, customer string, at time.Time) (*domain.Deal, error)
	RecordSale(ctx context.Context, guildID string, closer, setter domain.Actor, customer string, kw float64, at time.Time) (*domain.Deal, error)
	RecordSaleFor(ctx context.Context, guildID string, closer, setter domain.Actor, customer string, kw float64, privileged bool, at time.Time) (*domain.Deal, error)
	MarkNoSale(ctx context.Context, guildID, customer string, reason domain.LossReason, detail string, at time.Time) (*domain.Deal, error)
	Cancel(ctx context.Context, guildID, customer string, at time.Time) (*domain.Deal, error)
	Delete(ctx context.Context, guildID string, id int64, customer string, privileged bool) (*domain.Deal, error)
	ClearAll(ctx context.Context, guildID string, privileged bool) (int64, error)
	Deals(ctx context.Context, guildID string) ([]domain.Deal, error)
}

// ActorRef is an actor reference in the inbound event payload.
type ActorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventRequest is the JSON payload the chat collaborator POSTs per message.
// LossReason/LossDetail carry the follow-up answer to a #nosale prompt,
// collected out-of-band by the collaborator.
type EventRequest struct {
	RawText    string     `json:"raw_text" binding:"required"`
	ActorID    string     `json:"actor_id"`
	ActorName  string     `json:"actor_name"`
	Mentions   []ActorRef `json:"mentions"`
	ChannelID  string     `json:"channel_id"`
	Privileged bool       `json:"privileged"`
	Timestamp  time.Time  `json:"timestamp"`
	LossReason string     `json:"loss_reason,omitempty"`
	LossDetail string     `json:"loss_detail,omitempty"`
}

// EventResult is the render-ready outcome of one inbound event.
type EventResult struct {
	Kind    string       `json:"kind"` // confirmation | error | ignored
	Action  string       `json:"action,omitempty"`
	Deal    *domain.Deal `json:"deal,omitempty"`
	Removed int64        `json:"removed,omitempty"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	Usage   string       `json:"usage,omitempty"`
}

// HandleEvent processes one inbound chat event.
func (h *Handlers) HandleEvent(c *gin.Context) {
	guildID := c.Param("guild_id")

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid event payload")
		return
	}
	at := req.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}
	trigger := eventTrigger(req.RawText)

	mentions := make([]domain.Actor, 0, len(req.Mentions))
	for _, m := range req.Mentions {
		mentions = append(mentions, domain.Actor{ID: m.ID, Name: m.Name})
	}

	intent, err := command.Parse(req.RawText, mentions)
	if err != nil {
		var pe *command.ParseError
		switch {
		case errors.Is(err, command.ErrNotCommand):
			ok(c, http.StatusOK, EventResult{Kind: "ignored"})
		case errors.As(err, &pe):
			middleware.CountCommand(trigger, "parse_error")
			ok(c, http.StatusOK, EventResult{
				Kind:    "error",
				Code:    string(pe.Code),
				Message: pe.Error(),
				Usage:   pe.Usage,
			})
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	res, err := h.dispatch(c.Request.Context(), guildID, req, intent, at)
	switch {
	case err == nil:
		middleware.CountCommand(trigger, "confirmed")
		ok(c, http.StatusOK, res)
	case errors.Is(err, services.ErrUnauthorized):
		middleware.CountCommand(trigger, "rejected")
		fail(c, http.StatusForbidden, ErrCodeForbidden, "this command requires a privileged role")
	case errors.Is(err, services.ErrDealNotFound):
		middleware.CountCommand(trigger, "rejected")
		ok(c, http.StatusOK, EventResult{Kind: "error", Code: ErrCodeNotFound, Message: "no matching deal found"})
	case errors.Is(err, services.ErrInvalidTransition):
		middleware.CountCommand(trigger, "rejected")
		ok(c, http.StatusOK, EventResult{Kind: "error", Code: ErrCodeInvalidTransition, Message: "the deal is not in a state this command applies to"})
	case errors.Is(err, services.ErrAlreadyInState):
		middleware.CountCommand(trigger, "rejected")
		ok(c, http.StatusOK, EventResult{Kind: "error", Code: ErrCodeAlreadyInState, Message: "the deal is already in that state"})
	default:
		middleware.CountCommand(trigger, "error")
		fail(c, http.StatusInternalServerError, ErrCodeStorageFailed, err.Error())
	}
}

// dispatch applies a parsed intent to the ledger service.
func (h *Handlers) dispatch(ctx context.Context, guildID string, req EventRequest, intent command.Intent, at time.Time) (EventResult, error) {
	actor := domain.Actor{ID: req.ActorID, Name: req.ActorName}

	switch it := intent.(type) {
	case command.SetAppointment:
		d, err := h.ledger.SetAppointment(ctx, guildID, actor, it.CustomerName, at)
		return confirmation("appointment_set", d), err

	case command.RecordSale:
		d, err := h.ledger.RecordSale(ctx, guildID, actor, it.Setter, it.CustomerName, it.KW, at)
		return confirmation("sale_recorded", d), err

	case command.RecordSaleFor:
		d, err := h.ledger.RecordSaleFor(ctx, guildID, it.Closer, it.Setter, it.CustomerName, it.KW, req.Privileged, at)
		return confirmation("sale_recorded", d), err

	case command.MarkNoSale:
		d, err := h.ledger.MarkNoSale(ctx, guildID, it.CustomerName, domain.LossReason(req.LossReason), req.LossDetail, at)
		return confirmation("no_sale_recorded", d), err

	case command.Cancel:
		d, err := h.ledger.Cancel(ctx, guildID, it.CustomerName, at)
		return confirmation("deal_canceled", d), err

	case command.Delete:
		d, err := h.ledger.Delete(ctx, guildID, it.DealID, it.CustomerName, req.Privileged)
		return confirmation("deal_deleted", d), err

	case command.ClearAll:
		n, err := h.ledger.ClearAll(ctx, guildID, req.Privileged)
		return EventResult{Kind: "confirmation", Action: "ledger_cleared", Removed: n}, err

	default:
		return EventResult{}, services.ErrDealNotFound
	}
}

// confirmation builds a confirmation result; the deal is nil-safe so a
// failed dispatch still returns a well-formed (discarded) value.
func confirmation(action string, d *domain.Deal) EventResult {
	return EventResult{Kind: "confirmation", Action: action, Deal: d}
}

// eventTrigger extracts the lowercased leading token for metrics labels.
// Only known triggers appear as labels; everything else collapses to "".
func eventTrigger(rawText string) string {
	fields := strings.Fields(rawText)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "#") {
		return ""
	}
	return strings.ToLower(fields[0])
}
