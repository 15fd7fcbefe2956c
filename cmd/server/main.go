package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaultwatch/defi-monitor/internal/config"
	"github.com/vaultwatch/defi-monitor/internal/handler"
	"github.com/vaultwatch/defi-monitor/internal/middleware"
	"github.com/vaultwatch/defi-monitor/internal/monitor"
	"github.com/vaultwatch/defi-monitor/internal/monitor/fetchers"
	"github.com/vaultwatch/defi-monitor/internal/runlock"
	"github.com/vaultwatch/defi-monitor/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	specs, err := config.LoadProtocols(cfg.ProtocolsFile)
	if err != nil {
		logger.Error("failed to load protocols", "file", cfg.ProtocolsFile, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected and migrated")

	// Redis run locks (retry up to 30s for the instance to come up)
	var locks *runlock.Locker
	for i := 0; i < 6; i++ {
		locks, err = runlock.New(cfg.RedisURL, cfg.RedisPassword, cfg.LockTTL)
		if err == nil {
			break
		}
		logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		logger.Error("failed to connect to redis after retries", "error", err)
		os.Exit(1)
	}
	defer locks.Close()
	logger.Info("redis connected for cycle run locks")

	// Collection engine
	alerts := monitor.NewAlertManager(db, logger)
	engine := monitor.NewEngine(db, alerts, locks, cfg.Thresholds, logger)
	engine.SetFetchTimeout(cfg.FetchTimeout)

	llama := fetchers.NewDefiLlama(logger)
	for _, spec := range specs {
		engine.Register(buildFetcher(spec, llama, logger))
	}

	go func() {
		if err := engine.Run(ctx, cfg.Schedule); err != nil {
			logger.Error("engine stopped", "error", err)
			cancel()
		}
	}()

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(db))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", handler.Status(db))
		r.Get("/protocols", handler.Protocols(engine.Protocols(), db))
		r.Get("/protocols/{name}/history", handler.History(engine.Protocols(), db))
		r.Get("/alerts", handler.ListAlerts(db))
		r.Post("/alerts/{id}/resolve", handler.ResolveAlert(db))
		r.Post("/cycle", handler.TriggerCycle(engine))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

func buildFetcher(spec config.ProtocolSpec, llama *fetchers.DefiLlama, logger *slog.Logger) monitor.Fetcher {
	p := spec.Protocol()
	apy := fetchers.SimRange{Min: spec.Sim.APY.Min, Max: spec.Sim.APY.Max}
	var tvl *fetchers.SimRange
	if spec.Sim.TVL != nil {
		tvl = &fetchers.SimRange{Min: spec.Sim.TVL.Min, Max: spec.Sim.TVL.Max}
	}

	if p.Kind == monitor.KindLending {
		util := fetchers.SimRange{Min: spec.Sim.Utilization.Min, Max: spec.Sim.Utilization.Max}
		return fetchers.NewLending(p, spec.DefiLlamaSlug, llama, apy, util, tvl, logger)
	}
	return fetchers.NewVault(p, spec.DefiLlamaSlug, llama, apy, tvl, logger)
}
