// Package httpapi wires the HTTP transport (Gin) to the ledger services,
// middleware, and route handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, structured logging, panic recovery, metrics,
// rate limiting, CORS, and security headers.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/solartrack/go-deal-ledger/internal/config"
	"github.com/solartrack/go-deal-ledger/internal/http/handlers"
	"github.com/solartrack/go-deal-ledger/internal/http/middleware"
	"github.com/solartrack/go-deal-ledger/internal/repo"
	"github.com/solartrack/go-deal-ledger/internal/services"
	"github.com/solartrack/go-deal-ledger/internal/stats"
)

// RegisterRoutes attaches all middleware and endpoints to the given Gin
// engine. The store backend (file or SQLite) is opened by the caller and
// injected; loc is the organization's civil time zone.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per actor/IP)
//  8. CORS and security headers
func RegisterRoutes(r *gin.Engine, store repo.Store, cfg config.Config, loc *time.Location) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB; chat messages are tiny)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per actor/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByActorOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Actor-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Actor-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← store/config
	ledgerSvc := services.NewLedgerService(store)
	ledgerSvc.AutoCreateOnSold = cfg.AutoCreateOnSold

	boardSvc := services.NewLeaderboardService(store, loc)
	boardSvc.RevenueEnabled = cfg.Revenue.Enabled
	boardSvc.RatePerKW = decimal.NewFromFloat(cfg.Revenue.PerKW)
	boardSvc.PayMode = stats.SplitMode(cfg.Revenue.SplitMode)
	boardSvc.PayValue = decimal.NewFromFloat(cfg.Revenue.SplitValue)

	h := handlers.New(ledgerSvc, boardSvc, loc)

	// Public API (compressed; leaderboards and exports are repetitive JSON/CSV)
	api := r.Group("/api/v1", gzip.Gzip(gzip.DefaultCompression))
	{
		api.POST("/guilds/:guild_id/events", h.HandleEvent)
		api.GET("/guilds/:guild_id/leaderboard", h.GetLeaderboard)
		api.GET("/guilds/:guild_id/stats/:actor_id", h.GetStats)
		api.GET("/guilds/:guild_id/deals", h.ListDeals)
		api.GET("/guilds/:guild_id/export.csv", h.ExportCSV)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversize bodies error on read downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
