package web

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FinDash/internal/chart"
	"FinDash/internal/chart/svg"
	"FinDash/internal/domain/models"
	"FinDash/internal/gate"
	"FinDash/internal/repository"
	"FinDash/internal/usecase"
	applogger "FinDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

type nopMetrics struct{}

func (nopMetrics) RecordGateDecision(string, string) {}
func (nopMetrics) RecordRefreshError()               {}
func (nopMetrics) RecordSignup(string)               {}
func (nopMetrics) RecordChartMount(string)           {}
func (nopMetrics) RecordLatency(string, float64)     {}

func newPages(t *testing.T, loader chart.Loader) *echo.Echo {
	t.Helper()
	cfg := chart.DefaultConfig()
	cfg.RetryDelay = time.Millisecond

	candles := usecase.NewCandlesUseCase(repository.NewSampleCandles(), "SAMPLE", nopMetrics{})
	renderer := usecase.NewChartRenderer(loader, cfg, nopMetrics{}, applogger.Nop())
	h, err := NewPagesHandler(applogger.Nop(), PageConfig{DefaultWidth: 960, DefaultHeight: 540}, candles, renderer)
	if err != nil {
		t.Fatalf("new pages: %v", err)
	}

	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(gate.UserKey, &models.User{ID: "u1", Email: "ada@example.com"})
			return next(c)
		}
	})
	h.RegisterRoutes(e)
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestChartsPageRendersSVG(t *testing.T) {
	rec := get(newPages(t, svg.Load), "/charts")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<svg xmlns="http://www.w3.org/2000/svg" width="960" height="540"`) {
		t.Fatalf("expected inline 960x540 svg, got:\n%s", body)
	}
	if !strings.Contains(body, "20 candles") {
		t.Fatalf("expected candle count in caption")
	}
	if !strings.Contains(body, "ada@example.com") {
		t.Fatalf("expected signed-in user in header")
	}
}

func TestChartsPageSize(t *testing.T) {
	body := get(newPages(t, svg.Load), "/charts?w=100&h=50").Body.String()
	if !strings.Contains(body, `width="400" height="300"`) {
		t.Fatalf("expected floor size, got:\n%s", body)
	}
}

func TestChartsPageShowsAlertOnFailure(t *testing.T) {
	loader := func(context.Context) (chart.Library, error) { return nil, errors.New("offline") }
	rec := get(newPages(t, loader), "/charts")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `role="alert">Failed to load chart: offline<`) {
		t.Fatalf("expected alert, got:\n%s", body)
	}
	if strings.Contains(body, "<svg") {
		t.Fatalf("failed chart must not render svg")
	}
}

func TestAuthPageRedirectTarget(t *testing.T) {
	e := newPages(t, svg.Load)
	tests := []struct {
		query string
		want  string
	}{
		{query: "", want: `data-redirect="/charts"`},
		{query: "?redirectTo=%2Fcharts%2Fbtc", want: `data-redirect="/charts/btc"`},
		{query: "?redirectTo=%2F%2Fevil.example", want: `data-redirect="/charts"`},
		{query: "?redirectTo=https%3A%2F%2Fevil.example", want: `data-redirect="/charts"`},
		{query: "?redirectTo=%2Fauth", want: `data-redirect="/charts"`},
	}
	for _, test := range tests {
		body := get(e, "/auth"+test.query).Body.String()
		if !strings.Contains(body, test.want) {
			t.Errorf("%q: expected %s", test.query, test.want)
		}
	}
}

func TestIndexAndStatic(t *testing.T) {
	if rec := get(newPages(t, svg.Load), "/"); rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	for _, name := range []string{"app.css", "app.js"} {
		if _, err := fs.Stat(Static(), name); err != nil {
			t.Fatalf("missing static asset %s: %v", name, err)
		}
	}
}

func TestPasswordResetPages(t *testing.T) {
	e := newPages(t, svg.Load)
	tests := map[string]string{
		"/auth/forgot-password": `id="recover"`,
		"/auth/update-password": `id="reset"`,
		"/auth":                 `href="/auth/forgot-password"`,
	}
	for path, want := range tests {
		rec := get(e, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("%s: expected %s", path, want)
		}
	}
}
