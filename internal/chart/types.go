package chart

import (
	"context"

	"FinDash/internal/domain/models"
)

// Point is one candlestick as handed to a series.
type Point = models.Candle

// Container is the surface a chart is drawn into.
type Container interface {
	// Size reports the current layout size; zero means not laid out yet.
	Size() (width, height int)
}

// ResizeObservable is implemented by containers that can report their own
// size changes. fn must not be invoked from within ObserveResize itself.
type ResizeObservable interface {
	ObserveResize(fn func()) (stop func())
}

// Window is the fallback resize source for containers that cannot be observed.
type Window interface {
	OnResize(fn func()) (remove func())
}

// Library constructs charts.
type Library interface {
	CreateChart(c Container, opts Options) (Chart, error)
}

// Chart is a live chart bound to a container.
type Chart interface {
	AddCandlestickSeries(opts SeriesOptions) (Series, error)
	// ApplyOptions merges opts; zero-valued fields leave the setting unchanged.
	ApplyOptions(opts Options)
	Remove()
}

type Series interface {
	SetData(points []Point) error
}

// Loader resolves the charting library. It runs off the caller's goroutine
// and ctx is cancelled when the mount it serves is torn down.
type Loader func(ctx context.Context) (Library, error)

type CrosshairMode int

const (
	CrosshairNormal CrosshairMode = iota
	CrosshairMagnet
)

// Options is the chart-level configuration.
type Options struct {
	Width           int
	Height          int
	Layout          LayoutOptions
	Grid            GridOptions
	Crosshair       CrosshairMode
	RightPriceScale ScaleOptions
	TimeScale       TimeScaleOptions
}

type LayoutOptions struct {
	Background string
	TextColor  string
}

type GridOptions struct {
	VertLines string
	HorzLines string
}

type ScaleOptions struct {
	BorderColor string
}

type TimeScaleOptions struct {
	BorderColor    string
	TimeVisible    bool
	SecondsVisible bool
}

// SeriesOptions styles a candlestick series.
type SeriesOptions struct {
	UpColor       string
	DownColor     string
	BorderVisible bool
	WickUpColor   string
	WickDownColor string
}
