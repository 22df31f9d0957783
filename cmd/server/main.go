// Package main is the entry point for the pairing suggestion service.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: scoring, selection and explanation logic without external dependencies
// - Application: use case orchestration (Commands/Queries)
// - Infrastructure: PostgreSQL repositories, Redis result cache, scheduler
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shuttle-hub/pairing-hub/config"

	// Application layer
	"github.com/shuttle-hub/pairing-hub/internal/application/command"
	"github.com/shuttle-hub/pairing-hub/internal/application/query"

	// Domain layer
	"github.com/shuttle-hub/pairing-hub/internal/domain/pairing"

	// Infrastructure layer
	"github.com/shuttle-hub/pairing-hub/internal/infrastructure/observability"
	"github.com/shuttle-hub/pairing-hub/internal/infrastructure/persistence/postgres"
	"github.com/shuttle-hub/pairing-hub/internal/infrastructure/persistence/redis"
	"github.com/shuttle-hub/pairing-hub/internal/infrastructure/scheduler"
	"github.com/shuttle-hub/pairing-hub/internal/infrastructure/scheduler/jobs"

	// Interface layer
	httpserver "github.com/shuttle-hub/pairing-hub/internal/interface/http"

	// Packages
	"github.com/shuttle-hub/pairing-hub/pkg/circuitbreaker"
	"github.com/shuttle-hub/pairing-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})
	log.Info("starting pairing hub",
		logger.String("name", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, postgres.Config{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		applied, err := migrator.GetAppliedMigrations(ctx)
		if err != nil {
			log.Warn("failed to read migration status", logger.Err(err))
		} else {
			log.Info("migrations completed", logger.Int("applied", len(applied)))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. RESULT CACHE (Redis, optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var suggestionCache *redis.SuggestionCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, running without result cache", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			suggestionCache = redis.NewSuggestionCache(redisCache, func(name string, from, to circuitbreaker.State) {
				log.Warn("cache circuit breaker state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			})
			log.Info("Redis connection established")
		}
	} else {
		log.Info("Redis disabled, every request recomputes")
	}

	// The application layer takes the cache through an interface; a nil
	// *SuggestionCache must stay a nil interface value.
	var resultCache pairing.ResultCache
	if suggestionCache != nil {
		resultCache = suggestionCache
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. METRICS
	// ─────────────────────────────────────────────────────────────────────────
	var (
		metrics     *observability.Metrics
		querySink   query.MetricsSink          = observability.Noop{}
		commandSink command.CommandMetricsSink = observability.Noop{}
	)
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics()
		querySink = metrics
		commandSink = metrics
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	playerRepo := postgres.NewPlayerRepository(dbConn)
	historyRepo := postgres.NewHistoryRepository(dbConn)
	paramsRepo := postgres.NewParamsRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	generateSuggestions := query.NewGenerateSuggestionsHandler(
		playerRepo, historyRepo, paramsRepo, resultCache, querySink, log)

	engineDefaults := pairing.DefaultOptions()
	engineDefaults.MinConfidence = cfg.Engine.MinConfidence
	engineDefaults.IncludeHistoricalData = cfg.Engine.IncludeHistoricalData
	generateSuggestions.Configure(engineDefaults, cfg.Engine.MaxAlternativesPerExplanation)

	explainSuggestion := query.NewExplainSuggestionHandler(resultCache, log)
	recordFeedback := command.NewRecordFeedbackHandler(historyRepo, commandSink, log)
	updateSkills := command.NewUpdateSkillLevelsHandler(playerRepo, commandSink, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. SCHEDULER (periodic skill sweep)
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Info("initializing scheduler...",
			logger.Duration("sweep_interval", cfg.Scheduler.SkillSweepInterval),
			logger.Duration("sweep_lookback", cfg.Scheduler.SkillSweepLookback),
		)
		sched = scheduler.NewScheduler(log)

		sweep := jobs.NewUpdateSkillsJob(historyRepo, updateSkills, cfg.Scheduler.SkillSweepLookback, log)
		if err := sched.Register(sweep, scheduler.NewIntervalSchedule(cfg.Scheduler.SkillSweepInterval)); err != nil {
			return fmt.Errorf("failed to register skill sweep job: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.EnableMetrics = cfg.Observability.MetricsEnabled

	deps := httpserver.Dependencies{
		GenerateSuggestions: generateSuggestions,
		ExplainSuggestion:   explainSuggestion,
		RecordFeedback:      recordFeedback,
		UpdateSkillLevels:   updateSkills,
		Logger:              log,
		HealthChecker: &healthChecker{
			db:          dbConn,
			cache:       redisCache,
			suggestions: suggestionCache,
		},
	}
	if metrics != nil {
		deps.Metrics = metrics
		deps.MetricsRegistry = metrics.Registry()
	}

	server := httpserver.NewServer(httpCfg, deps)
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("pairing hub is running", logger.String("http_address", httpCfg.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("http server error", logger.Err(err))
		return err
	case <-ctx.Done():
		log.Info("root context cancelled")
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	if sched != nil {
		log.Info("stopping scheduler...")
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler", logger.Err(err))
			shutdownErr = err
		}
	}

	log.Info("stopping HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		shutdownErr = err
	}

	// Redis and the database close through the deferred calls above.

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
		return shutdownErr
	}
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECKER
// ══════════════════════════════════════════════════════════════════════════════

// healthChecker reports the health of the service's backing stores. A nil
// cache means the service runs cacheless and Redis is not reported at all.
type healthChecker struct {
	db          *postgres.Connection
	cache       *redis.Cache
	suggestions *redis.SuggestionCache
}

func (hc *healthChecker) CheckHealth(ctx context.Context) []httpserver.ComponentHealth {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	components := make([]httpserver.ComponentHealth, 0, 2)

	db := httpserver.ComponentHealth{Name: "postgres", Healthy: true}
	if err := hc.db.Ping(checkCtx); err != nil {
		db.Healthy = false
		db.Error = err.Error()
	}
	components = append(components, db)

	if hc.cache != nil {
		cache := httpserver.ComponentHealth{Name: "redis", Healthy: true}
		if err := hc.cache.Ping(checkCtx); err != nil {
			cache.Healthy = false
			cache.Error = err.Error()
		} else if hc.suggestions.BreakerState() == circuitbreaker.StateOpen {
			cache.Healthy = false
			cache.Error = "circuit breaker open"
		}
		components = append(components, cache)
	}

	return components
}
