package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "FinDash/pkg/http"
	applogger "FinDash/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Pruner drops idle per-client state, e.g. rate limiter buckets.
type Pruner interface {
	Prune()
}

// Worker is a background component with its own lifecycle, e.g. a Kafka
// consumer or a queue.
type Worker interface {
	Start() error
	Stop(ctx context.Context) error
}

// Options configures App timing. PruneInterval is rounded up to whole
// seconds by the scheduler.
type Options struct {
	ShutdownTimeout time.Duration
	PruneInterval   time.Duration
}

// App encapsulates the application lifecycle: HTTP server, background
// workers, periodic housekeeping and ordered shutdown.
type App struct {
	opts    Options
	logger  *applogger.Logger
	http    *xhttp.Server
	workers []Worker
	pruner  Pruner
	cron    *cron.Cron
	closers []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// New creates an App. pruner may be nil.
func New(opts Options, l *applogger.Logger, httpServer *xhttp.Server, pruner Pruner, workers ...Worker) *App {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.PruneInterval <= 0 {
		opts.PruneInterval = time.Minute
	}
	return &App{opts: opts, logger: l, http: httpServer, workers: workers, pruner: pruner}
}

// OnShutdown registers c to be closed after the server and consumer stop.
// Closers run in reverse registration order.
func (a *App) OnShutdown(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(sigCtx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	for i, w := range a.workers {
		if err := w.Start(); err != nil {
			a.stopWorkers(a.workers[:i])
			return fmt.Errorf("start worker %T: %w", w, err)
		}
	}

	if err := a.http.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	if a.pruner != nil {
		a.cron = cron.New()
		a.cron.Schedule(cron.Every(a.opts.PruneInterval), cron.FuncJob(a.pruner.Prune))
		a.cron.Start()
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.ShutdownTimeout)
	defer cancel()

	if a.cron != nil {
		select {
		case <-a.cron.Stop().Done():
		case <-ctx.Done():
		}
	}

	var firstErr error
	if err := a.http.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	for i := len(a.workers) - 1; i >= 0; i-- {
		if err := a.workers[i].Stop(ctx); err != nil {
			a.logger.Warn("worker stop error", applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.logger.Warn("close error", applogger.String("component", nc.name), applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return firstErr
}

func (a *App) stopWorkers(started []Worker) {
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.ShutdownTimeout)
	defer cancel()
	for i := len(started) - 1; i >= 0; i-- {
		if err := started[i].Stop(ctx); err != nil {
			a.logger.Warn("worker stop error", applogger.Error(err))
		}
	}
}
