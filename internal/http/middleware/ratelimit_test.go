package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func limitedRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), NewRateLimiter(rps, burst, KeyByActorOrIP()).Handler())
	r.POST("/events", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func postEvent(r *gin.Engine, actorID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	if actorID != "" {
		req.Header.Set("X-Actor-ID", actorID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BurstThen429(t *testing.T) {
	r := limitedRouter(0, 2) // no refill, burst of 2

	if w := postEvent(r, "actor-1"); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	if w := postEvent(r, "actor-1"); w.Code != http.StatusOK {
		t.Fatalf("second request = %d", w.Code)
	}
	w := postEvent(r, "actor-1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing on 429")
	}
	if !strings.Contains(w.Body.String(), `"code":"rate_limited"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestRateLimiter_BucketsAreActorScoped(t *testing.T) {
	r := limitedRouter(0, 1)

	if w := postEvent(r, "actor-1"); w.Code != http.StatusOK {
		t.Fatalf("actor-1 = %d", w.Code)
	}
	if w := postEvent(r, "actor-1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("actor-1 second = %d, want 429", w.Code)
	}
	// A different rep still has a full bucket.
	if w := postEvent(r, "actor-2"); w.Code != http.StatusOK {
		t.Fatalf("actor-2 = %d, want 200", w.Code)
	}
}

func TestNewRateLimiter_CoercesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyByActorOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d, want coerced to 1", rl.burst)
	}
}
