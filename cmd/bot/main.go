// Package main is the entry point for the Hamdars Study Hub bot.
//
// The process hosts three surfaces sharing one application core: the Telegram
// bot (long polling), the rollup scheduler, and the optional HTTP server for
// health probes and operator triggers.
//
// The layering follows Clean Architecture:
//   - Domain: scoring, the activity ledger, ranking
//   - Application: commands, queries, event handlers
//   - Infrastructure: postgres, redis, scheduler, telegram client
//   - Interface: bot handlers, HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hamdars-hub/hamdars-study-bot/config"
	"github.com/hamdars-hub/hamdars-study-bot/internal/application/command"
	"github.com/hamdars-hub/hamdars-study-bot/internal/application/eventhandler"
	"github.com/hamdars-hub/hamdars-study-bot/internal/application/query"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/leaderboard"
	"github.com/hamdars-hub/hamdars-study-bot/internal/domain/ledger"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/messaging"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/persistence/memory"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/persistence/postgres"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/persistence/redis"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/scheduler"
	"github.com/hamdars-hub/hamdars-study-bot/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/hamdars-hub/hamdars-study-bot/internal/interface/http"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram"
	"github.com/hamdars-hub/hamdars-study-bot/internal/interface/telegram/presenter"
	"github.com/hamdars-hub/hamdars-study-bot/pkg/logger"
	"github.com/hamdars-hub/hamdars-study-bot/pkg/timeutil"
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
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Hamdars Study Hub",
		"env", string(cfg.App.Environment),
		"debug", cfg.App.Debug,
		"timezone", timeutil.TehranTZ.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. LEDGER STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		repo ledger.Repository
		db   httpserver.HealthChecker
	)

	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage; all ledger state is lost on restart")
		repo = memory.NewLedgerRepository()

	default:
		log.Info("connecting to database...")
		dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
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

		log.Info("running database migrations...")
		if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed")

		repo = postgres.NewLedgerRepository(dbConn)
		db = dbConn
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional leaderboard cache)
	// ─────────────────────────────────────────────────────────────────────────
	var lbCache leaderboard.Cache

	if !cfg.Redis.Disabled && cfg.Redis.URL != "" {
		log.Info("connecting to Redis...")
		redisCache, err := redis.NewCacheFromURL(ctx, cfg.Redis.URL)
		if err != nil {
			// The bot works without the cache; degrade instead of dying.
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
		} else {
			defer redisCache.Close()
			lbCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	lock := command.NewLedgerLock()
	rules := cfg.Scoring.Rules()
	rollupPresenter := presenter.NewRollupPresenter()

	recordCmd := command.NewRecordActivityHandler(repo, lock, eventBus, lbCache,
		command.RecordActivityConfig{
			Rules:              rules,
			PresenceOncePerDay: cfg.Telegram.PresenceOncePerDay,
		})

	dailyCmd := command.NewRunDailyRollupHandler(repo, lock, eventBus, lbCache, rollupPresenter, rules, nil)
	weeklyCmd := command.NewRunWeeklyRollupHandler(repo, lock, eventBus, lbCache, rollupPresenter, rules, nil)
	monthlyCmd := command.NewRunMonthlyRollupHandler(repo, lock, eventBus, lbCache, rollupPresenter, nil)

	scoreQuery := query.NewGetScoreSummaryHandler(repo, nil)
	lbQuery := query.NewGetLeaderboardHandler(repo, lbCache, cfg.Redis.CacheTTL)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. TELEGRAM BOT
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing Telegram bot...")

	botConfig := telegram.DefaultBotConfig(cfg.Telegram.Token, cfg.Telegram.GroupChatID)
	botConfig.PollingTimeout = cfg.Telegram.PollingTimeout
	botConfig.Debug = cfg.App.Debug
	botConfig.Logger = log
	botConfig.GracefulShutdownTimeout = cfg.App.ShutdownTimeout

	bot, err := telegram.NewBot(botConfig, telegram.BotDependencies{
		RecordActivityCmd: recordCmd,
		DailyRollupCmd:    dailyCmd,
		WeeklyRollupCmd:   weeklyCmd,
		MonthlyRollupCmd:  monthlyCmd,
		ScoreSummaryQuery: scoreQuery,
		LeaderboardQuery:  lbQuery,
		Rules:             rules,
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. EVENT HANDLERS
	// The bot posts announcements; wiring it here closes the rollup loop:
	// handler computes -> event bus fans out -> bot announces to the group.
	// ─────────────────────────────────────────────────────────────────────────
	announcementHandler := eventhandler.NewOnRollupCompletedHandler(
		bot, log, eventhandler.DefaultRollupCompletedConfig())
	if err := announcementHandler.Subscribe(eventBus); err != nil {
		return fmt.Errorf("failed to subscribe announcement handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ROLLUP SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing scheduler...")

	// Rollup triggers fire in the same fixed zone the ledger books dates in.
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   log,
		Timezone: timeutil.TehranTZ,
	})

	rollupJobs := []struct {
		job  scheduler.Job
		cron string
	}{
		{jobs.NewDailyRollupJob(dailyCmd, log), cfg.Scheduler.DailyCron},
		{jobs.NewWeeklyRollupJob(weeklyCmd, log), cfg.Scheduler.WeeklyCron},
		{jobs.NewMonthlyRollupJob(monthlyCmd, log), cfg.Scheduler.MonthlyCron},
	}
	for _, rj := range rollupJobs {
		schedule, err := scheduler.ParseCronExpression(rj.cron)
		if err != nil {
			return fmt.Errorf("bad cron expression for %s (%q): %w", rj.job.Name(), rj.cron, err)
		}
		if err := sched.Register(rj.job, schedule); err != nil {
			return fmt.Errorf("failed to register %s: %w", rj.job.Name(), err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		log.Info("stopping scheduler...")
		_ = sched.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.AdminTokenHash = cfg.HTTP.AdminTokenHash

	httpServer := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		DailyRollupCmd:   dailyCmd,
		WeeklyRollupCmd:  weeklyCmd,
		MonthlyRollupCmd: monthlyCmd,
		LeaderboardQuery: lbQuery,
		Database:         db,
		Logger:           logger.Default(),
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 11. RUN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 2)

	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	go func() {
		if err := bot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("telegram bot error: %w", err)
		}
	}()

	log.Info("Hamdars Study Hub is running",
		"http_address", httpConfig.Address(),
		"group_chat_id", cfg.Telegram.GroupChatID,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	case <-ctx.Done():
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	cancel() // stops the polling loop

	var shutdownErr error

	if err := bot.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop bot gracefully", "error", err)
		shutdownErr = err
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		shutdownErr = err
	}

	// Scheduler, event bus and database close via defers.

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION LOADING
// ══════════════════════════════════════════════════════════════════════════════

// loadConfig overlays environment variables on the defaults and validates.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()

	cfg.App.Environment = config.Environment(getEnv("APP_ENV", string(cfg.App.Environment)))
	cfg.App.Debug = getEnvBool("APP_DEBUG", cfg.App.Debug)
	cfg.App.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.App.ShutdownTimeout)

	cfg.Telegram.Token = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.Telegram.GroupChatID = getEnvInt64("TELEGRAM_GROUP_CHAT_ID", 0)
	cfg.Telegram.PollingTimeout = getEnvInt("TELEGRAM_POLLING_TIMEOUT", cfg.Telegram.PollingTimeout)
	cfg.Telegram.PresenceOncePerDay = getEnvBool("PRESENCE_ONCE_PER_DAY", cfg.Telegram.PresenceOncePerDay)

	cfg.Database.Driver = getEnv("STORAGE_DRIVER", cfg.Database.Driver)
	cfg.Database.URL = getEnv("DATABASE_URL", "")

	cfg.Redis.URL = getEnv("REDIS_URL", "")
	cfg.Redis.Disabled = !getEnvBool("REDIS_ENABLED", !cfg.Redis.Disabled)
	cfg.Redis.CacheTTL = getEnvDuration("REDIS_CACHE_TTL", cfg.Redis.CacheTTL)

	cfg.Scheduler.DailyCron = getEnv("ROLLUP_DAILY_CRON", cfg.Scheduler.DailyCron)
	cfg.Scheduler.WeeklyCron = getEnv("ROLLUP_WEEKLY_CRON", cfg.Scheduler.WeeklyCron)
	cfg.Scheduler.MonthlyCron = getEnv("ROLLUP_MONTHLY_CRON", cfg.Scheduler.MonthlyCron)

	cfg.Scoring.PointsPerHour = getEnvInt("POINTS_PER_HOUR", cfg.Scoring.PointsPerHour)
	cfg.Scoring.TestBlockSize = getEnvInt("TEST_BLOCK_SIZE", cfg.Scoring.TestBlockSize)
	cfg.Scoring.PointsPerTestBlock = getEnvInt("POINTS_PER_TEST_BLOCK", cfg.Scoring.PointsPerTestBlock)
	cfg.Scoring.PresencePoints = getEnvInt("PRESENCE_POINTS", cfg.Scoring.PresencePoints)
	cfg.Scoring.DailyTopBonus = getEnvInt("DAILY_TOP_BONUS", cfg.Scoring.DailyTopBonus)
	cfg.Scoring.ProgressBonus = getEnvInt("PROGRESS_BONUS", cfg.Scoring.ProgressBonus)
	cfg.Scoring.WeeklyTopBonus = getEnvInt("WEEKLY_TOP_BONUS", cfg.Scoring.WeeklyTopBonus)

	cfg.HTTP.Host = getEnv("HTTP_HOST", cfg.HTTP.Host)
	cfg.HTTP.Port = getEnvInt("HTTP_PORT", cfg.HTTP.Port)
	cfg.HTTP.AdminTokenHash = getEnv("ADMIN_TOKEN_HASH", "")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging: JSON in production, text in
// development.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.App.Environment == config.EnvProduction {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
