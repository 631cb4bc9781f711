package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abgdnv/products/internal/config"
	"github.com/abgdnv/products/internal/platform/bootstrap"
	pconfig "github.com/abgdnv/products/internal/platform/config"
	"github.com/abgdnv/products/internal/platform/configloader"
	"github.com/abgdnv/products/internal/platform/messaging"
	pnats "github.com/abgdnv/products/internal/platform/nats"
	"github.com/abgdnv/products/internal/platform/telemetry"
	"github.com/abgdnv/products/internal/product/app"
	"github.com/abgdnv/products/internal/product/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const serviceName = "product"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads configuration, builds the store, publisher and telemetry, and starts the HTTP, gRPC and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	// shutdown hooks run after every server has stopped, in reverse order
	var closers []func(context.Context) error
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](shutdownCtx); err != nil {
				logger.Error("shutdown hook failed", slog.Any("error", err))
			}
		}
	}()

	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		metrics, err := telemetry.NewMeterProvider(serviceName)
		if err != nil {
			return err
		}
		metricsHandler = metrics.Handler
		closers = append(closers, metrics.Provider.Shutdown)
	}
	if cfg.Telemetry.Traces.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			logger.Error("error creating tracer provider", slog.Any("error", err))
			return err
		}
		closers = append(closers, tracerProvider.Shutdown)
	}

	var dbPool *pgxpool.Pool
	if cfg.Store.Driver == pconfig.StoreDriverPostgres {
		pool, err := setupDatabase(ctx, cfg.Store.Database)
		if err != nil {
			return err
		}
		dbPool = pool
		closers = append(closers, func(context.Context) error {
			dbPool.Close()
			return nil
		})
		logger.Info("Successfully connected to the database!")
	}
	productStore, err := app.NewStore(cfg.Store.Driver, dbPool)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := setupPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		return err
	}
	closers = append(closers, closePublisher)

	deps := app.SetupDependencies(productStore, publisher, logger)
	deps.Metrics = metricsHandler

	return serve(ctx, deps, cfg, logger)
}

// setupDatabase opens the connection pool and applies pending migrations when enabled.
func setupDatabase(ctx context.Context, cfg pconfig.DatabaseConfig) (*pgxpool.Pool, error) {
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.URL, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	if cfg.Migrate {
		if err := bootstrap.RunMigrations(migrations.FS, cfg.URL); err != nil {
			dbPool.Close()
			return nil, err
		}
	}
	return dbPool, nil
}

// setupPublisher connects to NATS and makes sure the product stream exists.
// Without NATS the events are dropped by a no-op publisher.
func setupPublisher(ctx context.Context, cfg pconfig.NATSConfig, logger *slog.Logger) (messaging.Publisher, func(context.Context) error, error) {
	if !cfg.Enabled {
		logger.Info("NATS is disabled, product events will not be published")
		return messaging.NoopPublisher{}, func(context.Context) error { return nil }, nil
	}
	nc, err := pnats.NewClient(cfg.Url, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := pnats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := pnats.EnsureStream(streamCtx, js, cfg.Stream); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Connected to NATS", slog.String("url", cfg.Url), slog.String("stream", cfg.Stream))

	publisher := pnats.NewBreakerPublisher(pnats.NewNatsPublisher(js), cfg.CircuitBreaker)
	return publisher, func(context.Context) error {
		return nc.Drain()
	}, nil
}

// serve runs the servers until ctx is cancelled or one of them fails.
func serve(ctx context.Context, deps *app.Dependencies, cfg *config.Config, logger *slog.Logger) error {
	httpServer := app.SetupHttpServer(deps, cfg)
	grpcServer := app.SetupGrpcServer(deps, cfg)
	pprofServer := &http.Server{
		Addr: cfg.PProf.Addr,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the gRPC server
	g.Go(func() error {
		grpcAddr := ":" + cfg.GRPC.Port
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		logger.Info("gRPC server listening", slog.String("addr", grpcAddr))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down gRPC server...")
		deps.Health.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			logger.Info("gRPC server stopped gracefully.")
			return nil
		case <-time.After(cfg.Shutdown.Timeout):
			logger.Warn("gRPC server graceful stop timed out. Forcing stop.")
			grpcServer.Stop()
			return fmt.Errorf("grpc server graceful stop timed out")
		}
	})

	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
