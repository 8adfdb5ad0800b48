package chart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// scriptedContainer reports sizes from a script, repeating the last entry.
type scriptedContainer struct {
	mu       sync.Mutex
	sizes    [][2]int
	measured int
	calls    chan int
}

func (s *scriptedContainer) Size() (int, int) {
	s.mu.Lock()
	i := s.measured
	if i >= len(s.sizes) {
		i = len(s.sizes) - 1
	}
	size := s.sizes[i]
	s.measured++
	n := s.measured
	s.mu.Unlock()

	if s.calls != nil {
		select {
		case s.calls <- n:
		default:
		}
	}
	return size[0], size[1]
}

func (s *scriptedContainer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.measured
}

type fakeLibrary struct {
	mu        sync.Mutex
	created   []*fakeChart
	createErr error
	setErr    error
	panicMsg  string
}

func (l *fakeLibrary) CreateChart(_ Container, opts Options) (Chart, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.panicMsg != "" {
		panic(l.panicMsg)
	}
	if l.createErr != nil {
		return nil, l.createErr
	}
	ch := &fakeChart{opts: opts, setErr: l.setErr}
	l.created = append(l.created, ch)
	return ch, nil
}

func (l *fakeLibrary) charts() []*fakeChart {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeChart(nil), l.created...)
}

type fakeChart struct {
	mu      sync.Mutex
	opts    Options
	applied []Options
	series  []*fakeSeries
	removed bool
	setErr  error
}

func (c *fakeChart) AddCandlestickSeries(opts SeriesOptions) (Series, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &fakeSeries{opts: opts, err: c.setErr}
	c.series = append(c.series, s)
	return s, nil
}

func (c *fakeChart) ApplyOptions(opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied = append(c.applied, opts)
}

func (c *fakeChart) Remove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = true
}

type fakeSeries struct {
	opts    SeriesOptions
	batches [][]Point
	err     error
}

func (s *fakeSeries) SetData(points []Point) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, points)
	return nil
}

type fakeWindow struct {
	mu        sync.Mutex
	listeners []func()
	removed   int
}

func (w *fakeWindow) OnResize(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.removed++
	}
}

func (w *fakeWindow) fire() {
	w.mu.Lock()
	fns := append([]func(){}, w.listeners...)
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func loaderFor(lib Library) Loader {
	return func(context.Context) (Library, error) { return lib, nil }
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func wait(t *testing.T, c *Controller) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := c.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v (state %+v)", err, st)
	}
	return st
}

func TestMountUsesRealSizeAfterZeroMeasurements(t *testing.T) {
	lib := &fakeLibrary{}
	box := &scriptedContainer{sizes: [][2]int{{0, 0}, {0, 0}, {0, 0}, {800, 600}}}
	c := NewController(loaderFor(lib), box, WithConfig(fastConfig()))

	c.Mount(DefaultPoints())
	st := wait(t, c)

	if st.Phase != Ready || st.Width != 800 || st.Height != 600 {
		t.Fatalf("unexpected state %+v", st)
	}
	if box.count() != 4 {
		t.Fatalf("expected 4 measurements, got %d", box.count())
	}
	charts := lib.charts()
	if len(charts) != 1 || charts[0].opts.Width != 800 || charts[0].opts.Height != 600 {
		t.Fatalf("chart not created with measured size")
	}
}

func TestMountFallsBackAfterMaxRetries(t *testing.T) {
	lib := &fakeLibrary{}
	box := &scriptedContainer{sizes: [][2]int{{0, 0}}}
	c := NewController(loaderFor(lib), box, WithConfig(fastConfig()))

	c.Mount(DefaultPoints())
	st := wait(t, c)

	if st.Phase != Ready || st.Width != 400 || st.Height != 300 {
		t.Fatalf("unexpected state %+v", st)
	}
	if box.count() != 11 {
		t.Fatalf("expected 1 measurement plus 10 retries, got %d", box.count())
	}
}

func TestFloorAppliesToSmallContainers(t *testing.T) {
	tests := []struct {
		size  [2]int
		wantW int
		wantH int
	}{
		{size: [2]int{200, 100}, wantW: 400, wantH: 300},
		{size: [2]int{1024, 100}, wantW: 1024, wantH: 300},
		{size: [2]int{399, 768}, wantW: 400, wantH: 768},
	}
	for _, test := range tests {
		c := NewController(loaderFor(&fakeLibrary{}), &scriptedContainer{sizes: [][2]int{test.size}}, WithConfig(fastConfig()))
		c.Mount(nil)
		st := wait(t, c)
		if st.Width != test.wantW || st.Height != test.wantH {
			t.Errorf("size %v: got %dx%d, want %dx%d", test.size, st.Width, st.Height, test.wantW, test.wantH)
		}
	}
}

func TestUnmountDuringLibraryLoad(t *testing.T) {
	lib := &fakeLibrary{}
	release := make(chan struct{})
	started := make(chan struct{})
	loader := func(ctx context.Context) (Library, error) {
		close(started)
		<-release
		return lib, nil
	}
	box := &scriptedContainer{sizes: [][2]int{{800, 600}}}
	c := NewController(loader, box, WithConfig(fastConfig()))

	c.Mount(DefaultPoints())
	<-started
	if c.State().Phase != Loading {
		t.Fatalf("expected loading, got %v", c.State().Phase)
	}
	c.Unmount()
	close(release)
	time.Sleep(20 * time.Millisecond)

	if st := c.State(); st.Phase != Idle {
		t.Fatalf("state mutated after unmount: %+v", st)
	}
	if box.count() != 0 || len(lib.charts()) != 0 {
		t.Fatalf("late library load touched the container or created a chart")
	}
}

func TestUnmountDuringRetryWait(t *testing.T) {
	lib := &fakeLibrary{}
	box := &scriptedContainer{sizes: [][2]int{{0, 0}}, calls: make(chan int, 1)}
	cfg := fastConfig()
	cfg.RetryDelay = 20 * time.Millisecond
	c := NewController(loaderFor(lib), box, WithConfig(cfg))

	c.Mount(DefaultPoints())
	<-box.calls
	c.Unmount()
	measured := box.count()
	time.Sleep(100 * time.Millisecond)

	if box.count() != measured {
		t.Fatalf("retry timer fired after unmount: %d -> %d measurements", measured, box.count())
	}
	if len(lib.charts()) != 0 || c.State().Phase != Idle {
		t.Fatalf("state mutated after unmount")
	}
}

func TestResizeOnlyAppliesDimensions(t *testing.T) {
	lib := &fakeLibrary{}
	vp := NewViewport(800, 600)
	c := NewController(loaderFor(lib), vp, WithConfig(fastConfig()))

	c.Mount(DefaultPoints())
	wait(t, c)
	vp.Resize(1200, 700)
	vp.Resize(100, 50)

	charts := lib.charts()
	if len(charts) != 1 {
		t.Fatalf("chart recreated on resize: %d charts", len(charts))
	}
	want := []Options{{Width: 1200, Height: 700}, {Width: 400, Height: 300}}
	if diff := cmp.Diff(want, charts[0].applied); diff != "" {
		t.Fatalf("unexpected applied options (-want +got):\n%s", diff)
	}
	if len(charts[0].series) != 1 || len(charts[0].series[0].batches) != 1 {
		t.Fatal("resize must not reload data")
	}
	if st := c.State(); st.Width != 400 || st.Height != 300 {
		t.Fatalf("state not tracking size: %+v", st)
	}

	c.Unmount()
	if vp.Observers() != 0 {
		t.Fatal("resize observer left attached")
	}
	if !charts[0].removed {
		t.Fatal("chart not removed on unmount")
	}
}

func TestWindowListenerIsFallback(t *testing.T) {
	lib := &fakeLibrary{}
	win := &fakeWindow{}
	box := &scriptedContainer{sizes: [][2]int{{800, 600}, {900, 650}}}
	c := NewController(loaderFor(lib), box, WithConfig(fastConfig()), WithWindow(win))

	c.Mount(DefaultPoints())
	wait(t, c)
	win.fire()

	applied := lib.charts()[0].applied
	if len(applied) != 1 || applied[0].Width != 900 || applied[0].Height != 650 {
		t.Fatalf("unexpected resize %v", applied)
	}
	c.Unmount()
	if win.removed != 1 {
		t.Fatal("window listener not removed")
	}
}

func TestObservableContainerSkipsWindow(t *testing.T) {
	win := &fakeWindow{}
	c := NewController(loaderFor(&fakeLibrary{}), NewViewport(800, 600), WithConfig(fastConfig()), WithWindow(win))
	c.Mount(nil)
	wait(t, c)
	if len(win.listeners) != 0 {
		t.Fatal("window listener attached although the container is observable")
	}
}

func TestRoundTripPreservesPoints(t *testing.T) {
	lib := &fakeLibrary{}
	c := NewController(loaderFor(lib), NewViewport(800, 600), WithConfig(fastConfig()))

	in := DefaultPoints()[:10]
	c.Mount(in)
	wait(t, c)

	got := lib.charts()[0].series[0].batches[0]
	if len(got) != 10 {
		t.Fatalf("expected 10 points, got %d", len(got))
	}
	if got[0].Close != 80.01 || got[0].Time.Day != "2019-04-11" {
		t.Fatalf("unexpected first point %+v", got[0])
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("points changed (-want +got):\n%s", diff)
	}
}

func TestThemeIsApplied(t *testing.T) {
	lib := &fakeLibrary{}
	c := NewController(loaderFor(lib), NewViewport(800, 600), WithConfig(fastConfig()))
	c.Mount(nil)
	wait(t, c)

	ch := lib.charts()[0]
	if ch.opts.Layout.TextColor != "#ffffff" || ch.opts.Grid.HorzLines != "#374151" || !ch.opts.TimeScale.TimeVisible || ch.opts.TimeScale.SecondsVisible {
		t.Fatalf("unexpected chart options %+v", ch.opts)
	}
	so := ch.series[0].opts
	if so.UpColor != "#10b981" || so.WickDownColor != "#ef4444" || so.BorderVisible {
		t.Fatalf("unexpected series options %+v", so)
	}
}

func TestFailures(t *testing.T) {
	tests := []struct {
		name   string
		loader Loader
		want   string
	}{
		{
			name:   "loader error",
			loader: func(context.Context) (Library, error) { return nil, errors.New("network down") },
			want:   "Failed to load chart: network down",
		},
		{
			name:   "loader panic",
			loader: func(context.Context) (Library, error) { panic("bad bundle") },
			want:   "Failed to load chart: bad bundle",
		},
		{
			name:   "create error",
			loader: loaderFor(&fakeLibrary{createErr: errors.New("no canvas")}),
			want:   "Failed to load chart: no canvas",
		},
		{
			name:   "create panic",
			loader: loaderFor(&fakeLibrary{panicMsg: "boom"}),
			want:   "Failed to load chart: boom",
		},
		{
			name:   "set data error",
			loader: loaderFor(&fakeLibrary{setErr: errors.New("unordered data")}),
			want:   "Failed to load chart: unordered data",
		},
	}

	for _, test := range tests {
		c := NewController(test.loader, NewViewport(800, 600), WithConfig(fastConfig()))
		c.Mount(DefaultPoints())
		st := wait(t, c)
		if st.Phase != Failed || st.Reason != test.want {
			t.Errorf("%s: got %+v, want reason %q", test.name, st, test.want)
		}
		if c.Chart() != nil {
			t.Errorf("%s: failed controller still exposes a chart", test.name)
		}
	}
}

func TestFailedChartIsRemoved(t *testing.T) {
	lib := &fakeLibrary{setErr: errors.New("bad")}
	c := NewController(loaderFor(lib), NewViewport(800, 600), WithConfig(fastConfig()))
	c.Mount(DefaultPoints())
	wait(t, c)
	if !lib.charts()[0].removed {
		t.Fatal("half-built chart was not removed")
	}
}

func TestUpdateRemountsOnlyOnNewSeries(t *testing.T) {
	lib := &fakeLibrary{}
	c := NewController(loaderFor(lib), NewViewport(800, 600), WithConfig(fastConfig()))

	first := DefaultPoints()
	c.Mount(first)
	wait(t, c)

	c.Update(first)
	wait(t, c)
	if len(lib.charts()) != 1 {
		t.Fatal("same series must not remount")
	}

	second := DefaultPoints()
	c.Update(second)
	wait(t, c)
	charts := lib.charts()
	if len(charts) != 2 {
		t.Fatalf("new series should remount, got %d charts", len(charts))
	}
	if !charts[0].removed || charts[1].removed {
		t.Fatal("previous chart should be removed and the new one kept")
	}
}

func TestWaitWithoutMount(t *testing.T) {
	c := NewController(loaderFor(&fakeLibrary{}), NewViewport(1, 1))
	st, err := c.Wait(context.Background())
	if err != nil || st.Phase != Idle {
		t.Fatalf("unexpected %+v %v", st, err)
	}
}
