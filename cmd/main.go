package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/angeloszaimis/vault-environment/config"
	"github.com/angeloszaimis/vault-environment/internal/diagnostics"
	"github.com/angeloszaimis/vault-environment/internal/environment"
	"github.com/angeloszaimis/vault-environment/internal/handler"
	"github.com/angeloszaimis/vault-environment/internal/httpserver"
	"github.com/angeloszaimis/vault-environment/internal/managed"
	"github.com/angeloszaimis/vault-environment/internal/state"
	"github.com/angeloszaimis/vault-environment/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:       cfg.Logging.Level,
		AddSource:   true,
		Environment: cfg.Server.Environment,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := createStore(ctx, cfg.State, log)
	if err != nil {
		log.Error("Failed to open state store",
			slog.String("backend", cfg.State.Backend),
			slog.Any("err", err))
		os.Exit(1)
	}
	defer store.Close()

	provider, err := managed.Load(cfg.Managed.Path, log)
	if err != nil {
		log.Error("Failed to load managed config",
			slog.String("file", cfg.Managed.Path),
			slog.Any("err", err))
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	collector := diagnostics.NewCollector(cfg.Diagnostics.BufferSize, log, registry)
	collector.Start(ctx)

	service := newEnvironmentService(log, store, provider, collector)
	service.LoadActiveEndpoints(ctx)

	if cfg.Managed.Watch {
		go func() {
			err := provider.Watch(ctx, func() {
				service.LoadActiveEndpoints(ctx)
			})
			if err != nil {
				log.Error("Managed config watcher stopped", slog.Any("err", err))
			}
		}()
	}

	environmentHandler := handler.NewEnvironmentHandler(log, service)
	accountHandler := handler.NewAccountHandler(log, store, service)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(environmentHandler, accountHandler, collector, registry), log)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func newEnvironmentService(
	log *slog.Logger,
	store state.Store,
	provider environment.ManagedConfigProvider,
	reporter environment.RegionReporter,
) *environment.Service {
	resolver := environment.NewResolver(log, store, store, provider, reporter)
	return environment.NewService(log, resolver, store, reporter)
}

func createStore(ctx context.Context, cfg config.StateConfig, log *slog.Logger) (state.Store, error) {
	switch cfg.Backend {
	case config.StateBackendMemory:
		return state.NewMemoryStore(), nil
	case config.StateBackendFile:
		store, err := state.NewFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StateBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		store := state.NewRedisStore(rdb, cfg.KeyPrefix)
		if err := store.Ping(ctx); err != nil {
			rdb.Close()
			return nil, err
		}
		return store, nil
	default:
		log.Warn("Unknown state backend, defaulting to memory", slog.String("requested", cfg.Backend))
		return state.NewMemoryStore(), nil
	}
}
