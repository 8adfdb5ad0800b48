// Package svg is a chart.Library that renders candlestick charts as static SVG.
package svg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"sync"

	"FinDash/internal/chart"
	"FinDash/internal/domain/models"
)

var ErrRemoved = errors.New("svg: chart removed")

const (
	padTop    = 12.0
	padBottom = 28.0
	padLeft   = 8.0
	padRight  = 64.0
	gridLines = 5
	bodyRatio = 0.7
)

// Library creates SVG charts.
type Library struct{}

// Load is a chart.Loader for the SVG library.
func Load(ctx context.Context) (chart.Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Library{}, nil
}

func (l *Library) CreateChart(_ chart.Container, opts chart.Options) (chart.Chart, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("svg: invalid size %dx%d", opts.Width, opts.Height)
	}
	return &Chart{opts: opts}, nil
}

// Chart holds options and series until rendered.
type Chart struct {
	mu      sync.Mutex
	opts    chart.Options
	series  []*Series
	removed bool
}

func (c *Chart) AddCandlestickSeries(opts chart.SeriesOptions) (chart.Series, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return nil, ErrRemoved
	}
	s := &Series{opts: opts}
	c.series = append(c.series, s)
	return s, nil
}

func (c *Chart) ApplyOptions(o chart.Options) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o.Width > 0 {
		c.opts.Width = o.Width
	}
	if o.Height > 0 {
		c.opts.Height = o.Height
	}
	if o.Layout.Background != "" {
		c.opts.Layout.Background = o.Layout.Background
	}
	if o.Layout.TextColor != "" {
		c.opts.Layout.TextColor = o.Layout.TextColor
	}
	if o.Grid.HorzLines != "" {
		c.opts.Grid.HorzLines = o.Grid.HorzLines
	}
	if o.Grid.VertLines != "" {
		c.opts.Grid.VertLines = o.Grid.VertLines
	}
	if o.RightPriceScale.BorderColor != "" {
		c.opts.RightPriceScale.BorderColor = o.RightPriceScale.BorderColor
	}
	if o.TimeScale.BorderColor != "" {
		c.opts.TimeScale.BorderColor = o.TimeScale.BorderColor
	}
}

func (c *Chart) Remove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = true
	c.series = nil
}

// Options returns the current chart options.
func (c *Chart) Options() chart.Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts
}

// Series is a candlestick series.
type Series struct {
	mu     sync.Mutex
	opts   chart.SeriesOptions
	points []chart.Point
}

func (s *Series) SetData(points []chart.Point) error {
	for i, p := range points {
		if p.High < p.Low {
			return fmt.Errorf("point %d: high %.4f below low %.4f", i, p.High, p.Low)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points[:0], points...)
	return nil
}

// Points returns a copy of the series data.
func (s *Series) Points() []chart.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chart.Point(nil), s.points...)
}

// Bytes renders the chart into a byte slice.
func (c *Chart) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render writes the chart as a standalone <svg> element. Prices scale
// linearly to height and candles are spaced evenly by index.
func (c *Chart) Render(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return ErrRemoved
	}

	o := c.opts
	width, height := float64(o.Width), float64(o.Height)
	plotW := width - padLeft - padRight
	plotH := height - padTop - padBottom

	ew := &errWriter{w: w}
	ew.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" role="img">`, o.Width, o.Height, o.Width, o.Height)
	ew.printf(`<rect width="100%%" height="100%%" fill="%s"/>`, attr(o.Layout.Background))

	var points []chart.Point
	var so chart.SeriesOptions
	for _, s := range c.series {
		s.mu.Lock()
		points = append(points, s.points...)
		so = s.opts
		s.mu.Unlock()
	}

	lo, hi := priceRange(points)
	y := func(price float64) float64 {
		return padTop + (hi-price)/(hi-lo)*plotH
	}

	for i := 0; i <= gridLines; i++ {
		price := lo + (hi-lo)*float64(i)/gridLines
		gy := y(price)
		ew.printf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="0.5"/>`,
			padLeft, gy, padLeft+plotW, gy, attr(o.Grid.HorzLines))
		ew.printf(`<text x="%.1f" y="%.1f" fill="%s" font-size="11" dominant-baseline="middle">%.2f</text>`,
			padLeft+plotW+6, gy, attr(o.Layout.TextColor), price)
	}
	ew.printf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`,
		padLeft+plotW, padTop, padLeft+plotW, padTop+plotH, attr(o.RightPriceScale.BorderColor))
	ew.printf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`,
		padLeft, padTop+plotH, padLeft+plotW, padTop+plotH, attr(o.TimeScale.BorderColor))

	if n := len(points); n > 0 {
		step := plotW / float64(n)
		body := math.Max(step*bodyRatio, 1)
		labelEvery := int(math.Ceil(float64(n) / 8))

		for i, p := range points {
			cx := padLeft + step*(float64(i)+0.5)
			color, wick := so.UpColor, so.WickUpColor
			if p.Close < p.Open {
				color, wick = so.DownColor, so.WickDownColor
			}
			top, bottom := y(math.Max(p.Open, p.Close)), y(math.Min(p.Open, p.Close))

			ew.printf(`<g class="candle" data-time="%s">`, attr(p.Time.String()))
			ew.printf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`, cx, y(p.High), cx, y(p.Low), attr(wick))
			ew.printf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"`, cx-body/2, top, body, math.Max(bottom-top, 1), attr(color))
			if so.BorderVisible {
				ew.printf(` stroke="%s"`, attr(color))
			}
			ew.printf(`/></g>`)

			if o.TimeScale.TimeVisible && i%labelEvery == 0 {
				ew.printf(`<text x="%.1f" y="%.1f" fill="%s" font-size="11" text-anchor="middle">%s</text>`,
					cx, padTop+plotH+16, attr(o.Layout.TextColor), html.EscapeString(timeLabel(p.Time, o.TimeScale.SecondsVisible)))
			}
		}
	}

	ew.printf(`</svg>`)
	return ew.err
}

func priceRange(points []chart.Point) (lo, hi float64) {
	if len(points) == 0 {
		return 0, 1
	}
	lo, hi = points[0].Low, points[0].High
	for _, p := range points[1:] {
		lo = math.Min(lo, p.Low)
		hi = math.Max(hi, p.High)
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func timeLabel(t models.ChartTime, seconds bool) string {
	if t.IsBusinessDay() {
		return t.Day
	}
	if seconds {
		return t.Time().Format("01-02 15:04:05")
	}
	return t.Time().Format("01-02 15:04")
}

func attr(s string) string {
	return html.EscapeString(s)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
