// Package app wires the dashboard components together.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/abgdnv/productboard/internal/config"
	"github.com/abgdnv/productboard/internal/product/gateway"
	"github.com/abgdnv/productboard/internal/product/store"
	"github.com/abgdnv/productboard/internal/product/transport/rest"
	"github.com/abgdnv/productboard/pkg/client/httpclient"
	"github.com/abgdnv/productboard/pkg/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const gatewayClientName = "product-gateway"

type Dependencies struct {
	Gateway gateway.Gateway
	Store   *store.Store
	Logger  *slog.Logger
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// SetupDependencies builds the gateway client and an empty store.
func SetupDependencies(cfg *config.Config, logger *slog.Logger, metrics http.Handler) *Dependencies {
	client := httpclient.New(gatewayClientName, cfg.Gateway, nil, logger)
	gw := gateway.New(cfg.Gateway.BaseURL, client, logger)
	st := store.New(gw, logger)
	st.Subscribe(logStatusTransitions(logger))
	return &Dependencies{
		Gateway: gw,
		Store:   st,
		Logger:  logger,
		Metrics: metrics,
	}
}

// logStatusTransitions logs every change of the store status. Errors are
// logged at warn level, the rest at debug.
func logStatusTransitions(logger *slog.Logger) func(store.State) {
	logger = logger.With("component", "status_log")
	last := store.Status{Kind: store.Idle}
	return func(st store.State) {
		if st.Status == last {
			return
		}
		level := slog.LevelDebug
		if st.Status.Kind == store.Error {
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, "Product store status changed",
			"from", last.Kind.String(),
			"to", st.Status.Kind.String(),
			"message", st.Status.Message,
			"items", len(st.Items),
		)
		last = st.Status
	}
}

// InitialLoad performs the startup fetch. A failure is logged and left in
// the store status; it does not stop the process.
func InitialLoad(ctx context.Context, deps *Dependencies) {
	if err := deps.Store.FetchAll(ctx); err != nil {
		deps.Logger.WarnContext(ctx, "Initial product fetch failed", "error", err)
		return
	}
	deps.Logger.InfoContext(ctx, "Initial product fetch completed", "count", len(deps.Store.Items()))
}

// SetupHttpHandler builds the router with every dashboard route.
// Used by E2E tests to run the application in an httptest.Server.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	rest.NewHandler(deps.Store, deps.Gateway, deps.Logger).RegisterRoutes(mux)
	if deps.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	return otelhttp.NewHandler(mux, "dashboard",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// SetupHttpServer creates and configures the dashboard HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}
	return server.NewHTTPServer(httpCfg, SetupHttpHandler(deps))
}
