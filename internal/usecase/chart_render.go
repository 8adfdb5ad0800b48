package usecase

import (
	"context"
	"fmt"
	"time"

	"FinDash/internal/chart"
	domrepo "FinDash/internal/domain/repository"
	applogger "FinDash/pkg/logger"
)

// RenderedChart is either an SVG document or the reason the chart failed.
type RenderedChart struct {
	SVG    []byte
	Error  string
	Width  int
	Height int
}

type svgSource interface {
	Bytes() ([]byte, error)
}

// ChartRenderer mounts a chart controller into a fixed-size viewport, waits
// for it to settle and captures the result.
type ChartRenderer struct {
	loader  chart.Loader
	cfg     chart.Config
	metrics domrepo.Metrics
	logger  *applogger.Logger
	timeout time.Duration
}

func NewChartRenderer(loader chart.Loader, cfg chart.Config, metrics domrepo.Metrics, logger *applogger.Logger) *ChartRenderer {
	// the readiness poll can take MaxRetries*RetryDelay on its own
	timeout := time.Duration(cfg.MaxRetries+1)*cfg.RetryDelay + 5*time.Second
	return &ChartRenderer{loader: loader, cfg: cfg, metrics: metrics, logger: logger, timeout: timeout}
}

func (r *ChartRenderer) Render(ctx context.Context, points []chart.Point, width, height int) (*RenderedChart, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vp := chart.NewViewport(width, height)
	c := chart.NewController(r.loader, vp,
		chart.WithConfig(r.cfg),
		chart.WithLogger(r.logger),
		chart.WithMetrics(r.metrics),
	)
	c.Mount(points)
	defer c.Unmount()

	st, err := c.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for chart: %w", err)
	}

	switch st.Phase {
	case chart.Failed:
		return &RenderedChart{Error: st.Reason}, nil
	case chart.Ready:
		src, ok := c.Chart().(svgSource)
		if !ok {
			return nil, fmt.Errorf("chart %T cannot be rendered to svg", c.Chart())
		}
		b, err := src.Bytes()
		if err != nil {
			return nil, fmt.Errorf("render chart: %w", err)
		}
		return &RenderedChart{SVG: b, Width: st.Width, Height: st.Height}, nil
	default:
		return nil, fmt.Errorf("chart did not settle: %s", st.Phase)
	}
}
