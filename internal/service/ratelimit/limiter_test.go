package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestAllowRefills(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	if !l.Allow("ip") || !l.Allow("ip") {
		t.Fatal("burst of capacity should pass")
	}
	if l.Allow("ip") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("other") {
		t.Fatal("keys must not share buckets")
	}

	now = now.Add(time.Second)
	if !l.Allow("ip") {
		t.Fatal("one token should refill after a second")
	}
	if l.Allow("ip") {
		t.Fatal("only one token should have refilled")
	}
}

func TestPrune(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(1, 1)
	l.now = func() time.Time { return now }
	l.Allow("a")
	l.Prune()
	if len(l.m) != 1 {
		t.Fatal("drained bucket should be kept")
	}
	now = now.Add(2 * time.Second)
	l.Prune()
	if len(l.m) != 0 {
		t.Fatal("refilled bucket should be pruned")
	}
}

func TestMiddlewareAnswers429(t *testing.T) {
	e := echo.New()
	l := New(1, 0)
	e.POST("/api/auth/signin", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, l.Middleware())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}
