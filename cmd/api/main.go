package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"goeat/internal/api"
	"goeat/internal/audit"
	"goeat/internal/config"
	"goeat/internal/db"
	"goeat/internal/hours"
	"goeat/internal/jobs"
	"goeat/internal/metrics"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("GOEAT_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDB(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	clock := hours.NewSystemClock(cfg.Location())

	var (
		cache hours.StatusCache
		rdb   *redis.Client
	)
	switch cfg.Cache.Backend {
	case "redis":
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		cache = hours.NewRedisCache(rdb, clock)
	default:
		cache = hours.NewMemoryCache(clock)
	}

	svc := hours.NewService(database, cache, clock, logger)

	if cfg.Seed.PartnersPath != "" {
		if err := config.WatchPartners(ctx, cfg.Seed.PartnersPath, cfg.SeedWatchInterval(), logger, func(updated *config.PartnersConfig) {
			if err := database.SyncPartnersFromConfig(ctx, updated); err != nil {
				logger.Error().Err(err).Msg("failed to apply partners config")
				return
			}
			if err := cache.InvalidateAll(ctx); err != nil {
				logger.Error().Err(err).Msg("failed to flush open status cache after sync")
			}
			logger.Info().Str("config", updated.String()).Msg("partners config applied")
		}); err != nil {
			logger.Error().Err(err).Msg("partners watch failed")
		}
	}

	consistency := jobs.NewConsistency(database, cache, jobs.Config{
		RepairInterval:     cfg.RepairInterval(),
		CacheFlushInterval: cfg.CacheFlushInterval(),
	}, logger)
	consistency.Start(ctx)

	if cfg.Backup.Enabled {
		backup := jobs.NewBackupJob(database, jobs.BackupConfig{
			Dir:       cfg.Backup.Dir,
			Interval:  cfg.BackupInterval(),
			Retention: cfg.BackupRetention(),
		}, logger)
		go backup.Run(ctx, time.Minute)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	rps, burst := cfg.PublicRateLimit()
	server := api.NewServer(svc, audit.NewExporter(database, logger), api.Options{
		JWTSecret:   cfg.Auth.JWTSecret,
		Issuer:      cfg.Auth.Issuer,
		AdminAPIKey: cfg.Auth.AdminAPIKey,
		PublicRPS:   rps,
		PublicBurst: burst,

		TrustedProxies: cfg.Server.TrustedProxies,
	}, logger)

	logger.Info().
		Str("driver", cfg.Database.Driver).
		Str("cache", cfg.Cache.Backend).
		Str("timezone", clock.Loc.String()).
		Msg("goeat operating hours service started")

	if err := server.Run(ctx, cfg.Server.Address, cfg.ShutdownTimeout()); err != nil {
		logger.Error().Err(err).Msg("api server error")
		stop()
	}

	consistency.Wait()
	logger.Info().Msg("shutdown complete")
}
