package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marketweave/confluence/internal/cache"
	"github.com/marketweave/confluence/internal/httpapi"
	"github.com/marketweave/confluence/internal/metrics"
	"github.com/marketweave/confluence/internal/persistence"
	"github.com/marketweave/confluence/internal/persistence/postgres"
)

// serveCmd runs the scoring HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scoring API over HTTP",
	Long: `Start the scoring HTTP API: POST /v1/score takes a snapshot and returns
the composite result; /healthz and /metrics serve health and Prometheus
metrics. Redis result caching and PostgreSQL persistence attach when enabled
in the config.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := buildEngine(cfg, log.Logger)
	if err != nil {
		return err
	}

	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr, DB: cfg.Cache.DB})
		resultCache = cache.New(client, cfg.Cache.TTL, log.Logger)
		log.Info().Str("addr", cfg.Cache.Addr).Msg("result cache enabled")
	}

	var store persistence.ResultStore
	if cfg.Database.Enabled {
		store, err = postgres.NewResultStore(cfg.Database.DSN, cfg.Database.Timeout)
		if err != nil {
			return err
		}
		defer store.Close()
		log.Info().Msg("result store enabled")
	}

	server := httpapi.New(httpapi.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
	}, engine, resultCache, store, metrics.NewRegistry(), log.Logger)

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx)
}
