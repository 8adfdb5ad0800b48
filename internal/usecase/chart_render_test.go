package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"FinDash/internal/chart"
	"FinDash/internal/chart/svg"
	applogger "FinDash/pkg/logger"
)

func testChartConfig() chart.Config {
	cfg := chart.DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestChartRendererProducesSVG(t *testing.T) {
	m := &fakeMetrics{}
	r := NewChartRenderer(svg.Load, testChartConfig(), m, applogger.Nop())

	out, err := r.Render(context.Background(), chart.DefaultPoints(), 960, 540)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Error != "" {
		t.Fatalf("unexpected failure %q", out.Error)
	}
	if out.Width != 960 || out.Height != 540 {
		t.Fatalf("unexpected size %dx%d", out.Width, out.Height)
	}
	if !bytes.HasPrefix(out.SVG, []byte("<svg")) {
		t.Fatalf("expected svg document, got %.40q", out.SVG)
	}
	if n := bytes.Count(out.SVG, []byte(`class="candle"`)); n != len(chart.DefaultPoints()) {
		t.Fatalf("expected %d candles, got %d", len(chart.DefaultPoints()), n)
	}
}

func TestChartRendererAppliesFloor(t *testing.T) {
	r := NewChartRenderer(svg.Load, testChartConfig(), &fakeMetrics{}, applogger.Nop())

	out, err := r.Render(context.Background(), chart.DefaultPoints(), 120, 80)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Width != 400 || out.Height != 300 {
		t.Fatalf("expected floor 400x300, got %dx%d", out.Width, out.Height)
	}
}

func TestChartRendererReportsFailure(t *testing.T) {
	loader := func(ctx context.Context) (chart.Library, error) {
		return nil, errors.New("bundle missing")
	}
	r := NewChartRenderer(loader, testChartConfig(), &fakeMetrics{}, applogger.Nop())

	out, err := r.Render(context.Background(), chart.DefaultPoints(), 960, 540)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Error != "Failed to load chart: bundle missing" {
		t.Fatalf("unexpected reason %q", out.Error)
	}
	if out.SVG != nil {
		t.Fatalf("failed chart must not carry svg")
	}
}
