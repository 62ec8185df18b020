// Leaderboard, personal-stats, audit, and export handlers.
//
//   - GET /guilds/{guild_id}/leaderboard?period=day|week|month&date=YYYY-MM-DD
//   - GET /guilds/{guild_id}/stats/{actor_id}?name=…
//   - GET /guilds/{guild_id}/deals?period=…&date=…
//   - GET /guilds/{guild_id}/export.csv
//
// Handlers are transport-thin: they validate input, call the services, and
// translate results into HTTP responses. The optional date parameter selects
// the period containing that civil date instead of the current one.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solartrack/go-deal-ledger/internal/domain"
	"github.com/solartrack/go-deal-ledger/internal/export"
	"github.com/solartrack/go-deal-ledger/internal/period"
	"github.com/solartrack/go-deal-ledger/internal/services"
)

// BoardService defines the read models consumed by the HTTP handlers.
type BoardService interface {
	Leaderboard(ctx context.Context, guildID string, kind period.Kind, ref time.Time) (*services.Leaderboard, error)
	MyStats(ctx context.Context, guildID string, actor domain.Actor, ref time.Time) (*services.PersonalStats, error)
	DealsInPeriod(ctx context.Context, guildID string, kind period.Kind, ref time.Time) ([]domain.Deal, error)
}

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	ledger LedgerService
	board  BoardService
	loc    *time.Location
}

// New constructs a Handlers instance bound to the given services. loc is the
// civil zone used to interpret ?date= values.
func New(ledger LedgerService, board BoardService, loc *time.Location) *Handlers {
	return &Handlers{ledger: ledger, board: board, loc: loc}
}

// refTime resolves the reference instant for period selection: noon local on
// ?date=YYYY-MM-DD when given (noon keeps the civil date stable across DST
// shifts), now otherwise. The bool reports whether the date was valid.
func (h *Handlers) refTime(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now().UTC(), true
	}
	d, err := time.ParseInLocation("2006-01-02", raw, h.loc)
	if err != nil {
		return time.Time{}, false
	}
	return d.Add(12 * time.Hour), true
}

// GetLeaderboard serves the period leaderboard.
func (h *Handlers) GetLeaderboard(c *gin.Context) {
	kind, err := period.ParseKind(c.Query("period"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "period must be one of: day, week, month")
		return
	}
	ref, okDate := h.refTime(c)
	if !okDate {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
		return
	}

	lb, err := h.board.Leaderboard(c.Request.Context(), c.Param("guild_id"), kind, ref)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, lb)
}

// GetStats serves one rep's personal stats (!mystats).
func (h *Handlers) GetStats(c *gin.Context) {
	ref, okDate := h.refTime(c)
	if !okDate {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
		return
	}
	actor := domain.Actor{ID: c.Param("actor_id"), Name: c.Query("name")}

	ps, err := h.board.MyStats(c.Request.Context(), c.Param("guild_id"), actor, ref)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ps)
}

// ListDealsResponse wraps the audit listing.
type ListDealsResponse struct {
	GuildID string        `json:"guild_id"`
	Deals   []domain.Deal `json:"deals"`
	Count   int           `json:"count"`
}

// ListDeals serves the audit listing, optionally filtered to a period.
func (h *Handlers) ListDeals(c *gin.Context) {
	var kind period.Kind
	if raw := c.Query("period"); raw != "" {
		k, err := period.ParseKind(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "period must be one of: day, week, month")
			return
		}
		kind = k
	}
	ref, okDate := h.refTime(c)
	if !okDate {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
		return
	}

	guildID := c.Param("guild_id")
	deals, err := h.board.DealsInPeriod(c.Request.Context(), guildID, kind, ref)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ListDealsResponse{GuildID: guildID, Deals: deals, Count: len(deals)})
}

// ExportCSV streams the organization's full ledger as a CSV attachment.
func (h *Handlers) ExportCSV(c *gin.Context) {
	guildID := c.Param("guild_id")
	deals, err := h.ledger.Deals(c.Request.Context(), guildID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="deals-`+guildID+`.csv"`)
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, deals); err != nil {
		// Headers are gone; all we can do is log.
		c.Error(err) //nolint:errcheck
	}
}
