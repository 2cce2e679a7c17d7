package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"intake/internal/platform/config"
	"intake/internal/platform/httpserver"
	"intake/internal/platform/logger"
	platformmetrics "intake/internal/platform/metrics"
	platformredis "intake/internal/platform/redis"
	"intake/internal/registry"
	"intake/internal/registry/invalidation"
	registrymetrics "intake/internal/registry/metrics"
	"intake/internal/registry/ports"
	httptransport "intake/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := platformmetrics.New(reg)
	registryMetrics := registrymetrics.New(reg)

	svc := registry.NewService(registry.Config{
		Path:           cfg.Registry.Path,
		MinQueryLength: cfg.Registry.MinQueryLength,
	}, log, registryMetrics)

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	var invalidator ports.Invalidator
	subscriberDone := make(chan struct{})
	if redisClient != nil {
		defer redisClient.Close()

		origin := invalidation.NewOrigin()
		publisher := invalidation.NewPublisher(redisClient.Client, cfg.Redis.InvalidationChannel, origin)
		invalidator = invalidation.NewBroadcaster(svc, publisher, log)

		subscriber := invalidation.NewSubscriber(redisClient.Client, cfg.Redis.InvalidationChannel, origin, svc, log)
		go func() {
			defer close(subscriberDone)
			if err := subscriber.Run(ctx); err != nil {
				log.Error("registry invalidation subscriber stopped", "error", err)
			}
		}()
		log.Info("registry invalidation broadcast enabled",
			"channel", cfg.Redis.InvalidationChannel,
			"origin", origin,
		)
	} else {
		close(subscriberDone)
	}

	checks := map[string]httptransport.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        httpMetrics,
		Registry:       registry.NewHandler(svc, invalidator, log, cfg.Registry.HTTPMinQueryLength),
		AdminToken:     cfg.Server.AdminToken,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Checks:         checks,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting intake", "addr", cfg.Server.Addr, "registry_path", cfg.Registry.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	stop()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-subscriberDone
	return nil
}
