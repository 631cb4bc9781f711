// Package app contains the application setup for the product service.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/products/internal/config"
	pconfig "github.com/abgdnv/products/internal/platform/config"
	"github.com/abgdnv/products/internal/platform/messaging"
	"github.com/abgdnv/products/internal/platform/server"
	"github.com/abgdnv/products/internal/product/service"
	"github.com/abgdnv/products/internal/product/store"
	"github.com/abgdnv/products/internal/product/transport/rest"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the service name reported by the gRPC health endpoint.
const HealthServiceName = "products"

type Dependencies struct {
	ProductService service.ProductService
	Logger         *slog.Logger
	Health         *health.Server
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// NewStore returns the store backend selected by driver. The pool is only used by the postgres driver.
func NewStore(driver string, dbPool *pgxpool.Pool) (store.ProductStore, error) {
	switch driver {
	case "", pconfig.StoreDriverMemory:
		return store.NewInMemoryStore(), nil
	case pconfig.StoreDriverPostgres:
		if dbPool == nil {
			return nil, fmt.Errorf("postgres store requires a database pool")
		}
		return store.NewPgStore(dbPool), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", driver)
	}
}

// SetupDependencies wires the service over the given store and publisher and marks it as serving.
func SetupDependencies(productStore store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	healthServer := health.NewServer()
	healthServer.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Dependencies{
		ProductService: service.NewService(productStore, publisher),
		Logger:         logger,
		Health:         healthServer,
	}
}

// SetupHttpHandler builds the router with middleware and all product routes.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies, corsCfg pconfig.CORSConfig) *chi.Mux {
	mux := server.NewChiRouter(deps.Logger, corsCfg)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the product service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux)
	if deps.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
}

// SetupHttpServer creates and configures an HTTP server for the product service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	var handler http.Handler = SetupHttpHandler(deps, cfg.CORS)
	if cfg.Telemetry.Traces.Enabled {
		handler = otelhttp.NewHandler(handler, "products-http")
	}
	return server.NewHTTPServer(cfg.HTTPServer, handler)
}

// SetupGrpcServer initializes the gRPC server exposing the standard health service.
func SetupGrpcServer(deps *Dependencies, cfg *config.Config) *grpc.Server {
	var opts []grpc.ServerOption
	if cfg.Telemetry.Traces.Enabled {
		opts = append(opts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}
	healthRegisterFunc := func(s *grpc.Server) {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
	return server.NewGRPCServer(cfg.GRPC.ReflectionEnabled, opts, healthRegisterFunc)
}
