package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"leagueback/internal/api"
	"leagueback/internal/collector"
	"leagueback/internal/config"
	"leagueback/internal/logger"
	"leagueback/internal/notify"
	"leagueback/internal/ratelimit"
	"leagueback/internal/riot"
	"leagueback/internal/service"
	"leagueback/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second
	keyCheckTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.Must(cfg.LogLevel, cfg.Env)
	defer log.Sync()

	if cfg.EnvFile != "" {
		log.Info("loaded env file", zap.String("path", cfg.EnvFile))
	} else {
		log.Info("no .env file found, using environment variables")
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	srv := &http.Server{Addr: ":" + cfg.Port}
	ctx := collector.SetupSignalHandler(log, func(context.Context) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	})

	st, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, cfg.TursoAuthToken)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info("connected to database", zap.String("driver", cfg.DatabaseDriver))

	client, err := newRiotClient(cfg, log)
	if err != nil {
		return err
	}
	checkAPIKey(ctx, cfg, log)

	limiter := newLimiter(ctx, cfg, log)
	if closer, ok := limiter.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	svc := service.New(client, st, log)
	srv.Handler = api.SetupRouter(api.RouterConfig{
		Production:         cfg.IsProduction(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Limiter:            limiter,
	}, svc, log)

	log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}

func newRiotClient(cfg *config.Config, log *zap.Logger) (*riot.Client, error) {
	opts := []riot.ClientOption{riot.WithLogger(log), riot.WithAPIKey(cfg.RiotAPIKey)}
	if cfg.RiotProxyURL != "" {
		opts = append(opts, riot.WithProxyURL(cfg.RiotProxyURL))
	} else {
		opts = append(opts, riot.WithRegionalURL(cfg.RiotBaseURL))
	}
	return riot.NewClient(opts...)
}

// checkAPIKey logs whether the configured key is accepted. It never stops
// startup: an expired development key still serves cached data.
func checkAPIKey(ctx context.Context, cfg *config.Config, log *zap.Logger) {
	if cfg.RiotAPIKey == "" {
		return
	}
	checkCtx, cancel := context.WithTimeout(ctx, keyCheckTimeout)
	defer cancel()

	status, err := riot.CheckKey(checkCtx, nil, cfg.RiotPlatformURL, cfg.RiotAPIKey)
	switch status {
	case riot.KeyUnknown:
		log.Warn("could not validate riot API key", zap.Error(err))
	case riot.KeyRejected:
		log.Warn("riot API key was rejected, only cached data will be served")
		if cfg.DiscordWebhookURL != "" {
			if err := notify.NewWebhookClient(cfg.DiscordWebhookURL).SendKeyRejected(ctx, cfg.RiotAPIKey); err != nil {
				log.Warn("failed to send key rejection notice", zap.Error(err))
			}
		}
	default:
		log.Info("riot API key is valid")
	}
}

// newLimiter prefers the shared Redis window and falls back to in-memory
// per-IP windows when Redis is not configured or unreachable.
func newLimiter(ctx context.Context, cfg *config.Config, log *zap.Logger) ratelimit.Allower {
	rule := ratelimit.Rule{Limit: cfg.RateLimitPerMinute, Window: time.Minute}

	if cfg.RedisURL != "" {
		r, err := ratelimit.NewRedisFromURL(cfg.RedisURL, "", rule)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err = r.Ping(pingCtx)
			cancel()
			if err == nil {
				log.Info("using redis rate limiter", zap.Int("per_minute", rule.Limit))
				return r
			}
			r.Close()
		}
		log.Warn("redis unavailable, using in-memory rate limiter", zap.Error(err))
	}

	keyed := ratelimit.NewKeyed(rule)
	go keyed.RunCleanup(ctx, 5*time.Minute)
	return keyed
}
