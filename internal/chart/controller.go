package chart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FinDash/internal/domain/repository"
	applogger "FinDash/pkg/logger"
)

type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// State is a snapshot of the controller. Width and Height are the
// dimensions the chart currently has; Reason is set only when Failed.
type State struct {
	Phase  Phase
	Reason string
	Width  int
	Height int
}

// Config tunes the readiness poll and the palette.
type Config struct {
	RetryDelay     time.Duration
	MaxRetries     int
	FallbackWidth  int
	FallbackHeight int
	Theme          Theme
}

func DefaultConfig() Config {
	return Config{
		RetryDelay:     100 * time.Millisecond,
		MaxRetries:     10,
		FallbackWidth:  400,
		FallbackHeight: 300,
		Theme:          DarkTheme(),
	}
}

// Option configures Controller.
type Option func(*Controller)

func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// WithWindow sets the resize source used when the container is not observable.
func WithWindow(w Window) Option {
	return func(c *Controller) {
		c.window = w
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// Controller mounts one candlestick chart into one container.
//
// Every mount bumps a generation counter; asynchronous continuations (library
// load, retry timer, resize callbacks) carry the generation they were started
// under and do nothing once it is stale.
type Controller struct {
	loader    Loader
	container Container
	window    Window
	cfg       Config
	logger    *applogger.Logger
	metrics   repository.Metrics

	mu             sync.Mutex
	gen            uint64
	state          State
	points         []Point
	lib            Library
	retries        int
	timer          *time.Timer
	cancel         context.CancelFunc
	chart          Chart
	stopObserve    func()
	removeListener func()
	done           chan struct{}
}

func NewController(loader Loader, container Container, opts ...Option) *Controller {
	c := &Controller{
		loader:    loader,
		container: container,
		cfg:       DefaultConfig(),
		logger:    applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount starts the mount protocol for points, tearing down any previous mount.
// It returns immediately; use Wait to block until the chart settles.
func (c *Controller) Mount(points []Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked()
	c.gen++
	gen := c.gen

	c.points = points
	c.retries = 0
	c.lib = nil
	c.state = State{Phase: Loading}
	c.done = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.load(ctx, gen)
}

// Unmount cancels pending work, detaches resize listeners and removes the chart.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked()
	c.gen++
	c.points = nil
	c.state = State{Phase: Idle}
}

// Update remounts only when points is a different slice from the mounted one.
func (c *Controller) Update(points []Point) {
	c.mu.Lock()
	same := c.state.Phase != Idle && sameSeries(c.points, points)
	c.mu.Unlock()
	if same {
		return
	}
	c.Mount(points)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Chart returns the live chart while Ready, nil otherwise.
func (c *Controller) Chart() Chart {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != Ready {
		return nil
	}
	return c.chart
}

// Wait blocks until the current mount reaches Ready or Failed, is unmounted,
// or ctx is done.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return c.State(), nil
	}
	select {
	case <-done:
		return c.State(), nil
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}

func (c *Controller) load(ctx context.Context, gen uint64) {
	lib, err := c.callLoader(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	if err != nil {
		c.failLocked(err)
		return
	}
	if lib == nil {
		c.failLocked(errors.New("chart library unavailable"))
		return
	}
	c.lib = lib
	c.measureLocked(gen)
}

func (c *Controller) callLoader(ctx context.Context) (lib Library, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return c.loader(ctx)
}

// measureLocked polls the container until it has a usable size, giving up
// after MaxRetries re-measurements and using the fallback size instead.
func (c *Controller) measureLocked(gen uint64) {
	w, h := c.container.Size()
	if w == 0 || h == 0 {
		if c.retries < c.cfg.MaxRetries {
			c.retries++
			c.logger.Debug("container dimensions not ready, retrying",
				applogger.Int("attempt", c.retries),
				applogger.Int("max", c.cfg.MaxRetries),
				applogger.Duration("delay_ms", c.cfg.RetryDelay),
			)
			c.timer = time.AfterFunc(c.cfg.RetryDelay, func() {
				c.mu.Lock()
				defer c.mu.Unlock()
				if gen != c.gen {
					return
				}
				c.timer = nil
				c.measureLocked(gen)
			})
			return
		}
		c.logger.Warn("max retries reached, using fallback dimensions",
			applogger.Int("width", c.cfg.FallbackWidth),
			applogger.Int("height", c.cfg.FallbackHeight),
		)
	}

	w, h = c.floor(w, h)
	c.buildLocked(gen, w, h)
}

func (c *Controller) buildLocked(gen uint64, w, h int) {
	defer func() {
		if r := recover(); r != nil {
			c.failLocked(fmt.Errorf("%v", r))
		}
	}()

	ch, err := c.lib.CreateChart(c.container, c.cfg.Theme.chartOptions(w, h))
	if err != nil {
		c.failLocked(err)
		return
	}
	c.chart = ch

	series, err := ch.AddCandlestickSeries(c.cfg.Theme.seriesOptions())
	if err != nil {
		c.failLocked(err)
		return
	}

	data := make([]Point, len(c.points))
	for i, p := range c.points {
		data[i] = Point{Time: p.Time, Open: p.Open, High: p.High, Low: p.Low, Close: p.Close}
	}
	if err := series.SetData(data); err != nil {
		c.failLocked(err)
		return
	}

	onResize := func() { c.resize(gen) }
	if ro, ok := c.container.(ResizeObservable); ok {
		c.stopObserve = ro.ObserveResize(onResize)
	} else if c.window != nil {
		c.removeListener = c.window.OnResize(onResize)
	}

	c.state = State{Phase: Ready, Width: w, Height: h}
	c.logger.Debug("chart initialized",
		applogger.Int("width", w),
		applogger.Int("height", h),
		applogger.Int("points", len(data)),
		applogger.Int("retries", c.retries),
	)
	c.recordLocked()
}

func (c *Controller) resize(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state.Phase != Ready || c.chart == nil {
		return
	}

	w, h := c.floor(c.container.Size())
	c.chart.ApplyOptions(Options{Width: w, Height: h})
	c.state.Width, c.state.Height = w, h
}

func (c *Controller) failLocked(err error) {
	c.releaseLocked()
	c.state = State{Phase: Failed, Reason: "Failed to load chart: " + err.Error()}
	c.logger.Error("chart initialization failed", applogger.Error(err))
	c.recordLocked()
}

func (c *Controller) recordLocked() {
	if c.metrics != nil {
		c.metrics.RecordChartMount(c.state.Phase.String())
	}
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}

// teardownLocked undoes everything a mount set up and releases waiters.
func (c *Controller) teardownLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.releaseLocked()
	c.lib = nil
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}

func (c *Controller) releaseLocked() {
	if c.stopObserve != nil {
		c.stopObserve()
		c.stopObserve = nil
	}
	if c.removeListener != nil {
		c.removeListener()
		c.removeListener = nil
	}
	if c.chart != nil {
		ch := c.chart
		c.chart = nil
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Warn("chart remove panicked", applogger.Any("panic", r))
				}
			}()
			ch.Remove()
		}()
	}
}

// floor replaces a zero dimension with the fallback and never goes below it.
func (c *Controller) floor(w, h int) (int, int) {
	if w < c.cfg.FallbackWidth {
		w = c.cfg.FallbackWidth
	}
	if h < c.cfg.FallbackHeight {
		h = c.cfg.FallbackHeight
	}
	return w, h
}

func sameSeries(a, b []Point) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return &a[0] == &b[0]
}
