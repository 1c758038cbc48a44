package app

import (
	"context"
	"fmt"

	"github.com/kapu/creator-activity-engine/internal/config"
	"github.com/kapu/creator-activity-engine/internal/server"
	"github.com/kapu/creator-activity-engine/internal/service/activity"
	"github.com/kapu/creator-activity-engine/internal/service/analytics"
	"github.com/kapu/creator-activity-engine/internal/service/cache"
	"github.com/kapu/creator-activity-engine/internal/service/database"
	"github.com/kapu/creator-activity-engine/internal/service/metrics"
	"github.com/kapu/creator-activity-engine/internal/util"
	"go.uber.org/zap"
)

// Container bundles the assembled services of one engine process
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Postgres   *database.PostgresService
	Cache      *cache.CacheService
	Repository *analytics.Repository
	Metrics    *metrics.Collector
	Engine     *activity.Engine
	Scheduler  *activity.Scheduler
	Server     *server.Server

	closers []func()
}

// Build assembles all infrastructure services. Connections opened before a
// failure are closed again before returning the error.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	calendar, err := util.LoadCalendar(cfg.Engine.Timezone)
	if err != nil {
		return nil, err
	}

	// Cache and database
	cacheSvc, err := cache.NewCacheService(ctx, cache.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache service: %w", err)
	}
	closers = append(closers, func() {
		_ = cacheSvc.Close()
	})

	postgresSvc, err := database.NewPostgresService(ctx, database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres service: %w", err)
	}
	closers = append(closers, func() {
		_ = postgresSvc.Close()
	})

	repo := analytics.NewRepository(postgresSvc, cacheSvc, logger)
	collector := metrics.NewCollector("activity_engine")

	engine := activity.NewEngine(repo, activity.EngineConfig{
		Calendar:      calendar,
		Concurrency:   cfg.Engine.Concurrency,
		ActiveSection: cfg.Engine.ActiveSection,
		Recorder:      collector,
	}, logger)

	scheduler := activity.NewScheduler(engine, cacheSvc, activity.SchedulerConfig{
		FullInterval:     cfg.Engine.FullInterval,
		RealtimeInterval: cfg.Engine.RealtimeInterval,
		CycleTimeout:     cfg.Engine.CycleTimeout,
		Concurrency:      cfg.Engine.Concurrency,
		Recorder:         collector,
	}, logger)
	for _, accountID := range cfg.Engine.Accounts {
		scheduler.Track(accountID)
	}

	srv := server.New(server.Config{Addr: cfg.HTTP.Addr}, server.Dependencies{
		Refresher: scheduler,
		Snapshots: cacheSvc,
		Metrics:   collector.Handler(),
		Checks: map[string]server.HealthCheck{
			"postgres": repo.Ping,
			"redis":    cacheSvc.Ping,
		},
	}, logger)

	logger.Info("Activity engine assembled",
		zap.Int("accounts", len(cfg.Engine.Accounts)),
		zap.String("timezone", calendar.Location().String()),
		zap.Int("concurrency", cfg.Engine.Concurrency))

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Postgres:   postgresSvc,
		Cache:      cacheSvc,
		Repository: repo,
		Metrics:    collector,
		Engine:     engine,
		Scheduler:  scheduler,
		Server:     srv,
		closers:    closers,
	}, nil
}

// Close stops the scheduler and releases connections in reverse order
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
