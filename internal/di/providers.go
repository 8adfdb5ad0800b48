package di

import (
	"context"
	"fmt"
	"time"

	"FinDash/internal/chart"
	"FinDash/internal/chart/svg"
	"FinDash/internal/domain/repository"
	"FinDash/internal/gate"
	"FinDash/internal/handler/api"
	"FinDash/internal/handler/web"
	"FinDash/internal/identity"
	internalrepo "FinDash/internal/repository"
	"FinDash/internal/service/ratelimit"
	"FinDash/internal/usecase"
	"FinDash/pkg/cache"
	pkgch "FinDash/pkg/clickhouse"
	"FinDash/pkg/config"
	xhttp "FinDash/pkg/http"
	pkgkafka "FinDash/pkg/kafka"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/metrics"
	"FinDash/pkg/queue"
	"FinDash/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideIdentityClient creates the GoTrue/PostgREST client.
func ProvideIdentityClient(cfg *config.Config) *identity.Client {
	return identity.NewClient(identity.Config{
		URL:            cfg.Supabase.URL,
		AnonKey:        cfg.Supabase.AnonKey,
		ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
	}, xhttp.WithTimeout(cfg.Supabase.Timeout))
}

func ProvideIdentityProvider(c *identity.Client) repository.IdentityProvider {
	return c
}

// ProvideSessions creates the cookie-backed session store.
func ProvideSessions(idp repository.IdentityProvider, cfg *config.Config) *identity.Sessions {
	return identity.NewSessions(idp, identity.CookieConfig{
		Prefix: cfg.Session.CookiePrefix,
		Secure: cfg.Session.Secure,
		MaxAge: cfg.Session.MaxAge,
	})
}

// ProvideCache creates the profile cache backend selected by cache.backend.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	if cfg.Cache.Backend == "redis" {
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		l.Info("profile cache ready", applogger.String("backend", "redis"))
		return rc, nil
	}
	l.Info("profile cache ready", applogger.String("backend", "memory"))
	return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxEntries)), nil
}

// ProvideProfileStore puts the cache in front of the profiles table.
func ProvideProfileStore(c *identity.Client, svc cache.Service, cfg *config.Config, l *applogger.Logger) repository.ProfileStore {
	return internalrepo.NewCachedProfiles(c, svc, cfg.Cache.ProfileTTL, l)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher routes auth events to Kafka when enabled, otherwise
// sends pending profiles to the Redis queue, otherwise drops them.
func ProvideEventPublisher(producer *pkgkafka.Producer, q *queue.RedisQueue, cfg *config.Config) repository.EventPublisher {
	switch {
	case producer != nil:
		return internalrepo.NewTopicEvents(producer, cfg.Kafka.EventsTopic, cfg.Kafka.BackfillTopic)
	case q != nil:
		return internalrepo.NewQueueEvents(q)
	default:
		return internalrepo.NoopEvents{}
	}
}

// ProvideRedisQueue creates the Redis backfill queue, or nil when disabled.
func ProvideRedisQueue(cfg *config.Config, h *usecase.ProfileBackfill, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Queue.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	return queue.NewRedisQueue(l, queue.Config{
		Workers:     cfg.Queue.Workers,
		RetryLimit:  cfg.Queue.RetryLimit,
		RetryDelay:  cfg.Queue.RetryDelay,
		PollTimeout: cfg.Queue.PollTimeout,
		Prefix:      cfg.Queue.Prefix,
	}, client, h)
}

// ProvideCandleStore creates the candle store selected by chart.source.
func ProvideCandleStore(cfg *config.Config, l *applogger.Logger) (repository.CandleStore, error) {
	if cfg.Chart.Source != "clickhouse" {
		return internalrepo.NewSampleCandles(), nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewCHCandles(client, cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("clickhouse database: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

func ProvideAuthUseCase(
	idp repository.IdentityProvider,
	sessions *identity.Sessions,
	profiles repository.ProfileStore,
	events repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AuthUseCase {
	return usecase.NewAuthUseCase(idp, sessions, profiles, events, m, l)
}

func ProvideCandlesUseCase(store repository.CandleStore, cfg *config.Config, m repository.Metrics) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store, cfg.Chart.Symbol, m)
}

// ProvideChartConfig maps chart config onto the mount controller settings.
func ProvideChartConfig(cfg *config.Config) chart.Config {
	t := cfg.Chart.Theme
	return chart.Config{
		RetryDelay:     cfg.Chart.RetryDelay,
		MaxRetries:     cfg.Chart.MaxRetries,
		FallbackWidth:  cfg.Chart.FallbackWidth,
		FallbackHeight: cfg.Chart.FallbackHeight,
		Theme: chart.Theme{
			Background: t.Background,
			Text:       t.Text,
			Border:     t.Border,
			Grid:       t.Grid,
			Up:         t.Up,
			Down:       t.Down,
		},
	}
}

func ProvideChartRenderer(cc chart.Config, m repository.Metrics, l *applogger.Logger) *usecase.ChartRenderer {
	return usecase.NewChartRenderer(svg.Load, cc, m, l)
}

// ProvideProfileBackfill creates the handler for profile.pending events.
func ProvideProfileBackfill(cfg *config.Config, profiles repository.ProfileStore, m repository.Metrics, l *applogger.Logger) *usecase.ProfileBackfill {
	return usecase.NewProfileBackfill(cfg.Kafka.BackfillTopic, profiles, m, l)
}

// ProvideBackfillConsumer creates the backfill consumer, or nil when kafka is disabled.
func ProvideBackfillConsumer(cfg *config.Config, h *usecase.ProfileBackfill, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(h, l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers, cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

func ProvideGate(cfg *config.Config, sessions *identity.Sessions, l *applogger.Logger, m repository.Metrics) *gate.Gate {
	var skip []string
	if cfg.Metrics.Enabled {
		skip = append(skip, cfg.Metrics.Path)
	}
	return gate.New(sessions, l, m, gate.WithSkipPrefixes(skip...))
}

func ProvideAuthHandler(l *applogger.Logger, auth *usecase.AuthUseCase, sessions *identity.Sessions, limiter *ratelimit.Limiter) *api.AuthEchoHandler {
	return api.NewAuthEchoHandler(l, auth, sessions, limiter.Middleware())
}

func ProvideChartsHandler(l *applogger.Logger, candles *usecase.CandlesUseCase) *api.ChartsEchoHandler {
	return api.NewChartsEchoHandler(l, candles)
}

func ProvidePagesHandler(cfg *config.Config, l *applogger.Logger, candles *usecase.CandlesUseCase, renderer *usecase.ChartRenderer) (*web.PagesHandler, error) {
	return web.NewPagesHandler(l, web.PageConfig{
		DefaultWidth:  cfg.Chart.ViewportWidth,
		DefaultHeight: cfg.Chart.ViewportHeight,
	}, candles, renderer)
}

// ProvideHTTPServer assembles the Echo server with the gate in front of every route.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	g *gate.Gate,
	auth *api.AuthEchoHandler,
	charts *api.ChartsEchoHandler,
	pages *web.PagesHandler,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithStatic("/static", web.Static()),
		xhttp.WithMiddleware(g.Middleware()),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, cfg.Metrics.SlowThreshold))
	}
	return xhttp.NewServer(xhttp.Handlers{auth, charts, pages}, l, opts...)
}

// ProvideApp builds the application and registers what it closes on shutdown.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	q *queue.RedisQueue,
	limiter *ratelimit.Limiter,
	svc cache.Service,
	events repository.EventPublisher,
	candles repository.CandleStore,
) *server.App {
	var workers []server.Worker
	if consumer != nil {
		workers = append(workers, consumer)
	}
	if q != nil {
		workers = append(workers, q)
	}
	app := server.New(server.Options{ShutdownTimeout: cfg.Server.ShutdownTimeout}, l, srv, limiter, workers...)
	app.OnShutdown("profile cache", svc)
	app.OnShutdown("event publisher", events)
	app.OnShutdown("candle store", candles)
	return app
}
