// Package httpclient builds outbound HTTP clients with tracing, a per-call
// timeout and an optional circuit breaker.
package httpclient

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/productboard/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// New returns a client whose transport chain is otelhttp, then the timeout,
// then the circuit breaker when enabled, then base. A nil base means a clone
// of http.DefaultTransport.
func New(name string, cfg config.HTTPClientConfig, base http.RoundTripper, logger *slog.Logger) *http.Client {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	rt := base
	if cfg.CircuitBreaker.Enabled {
		rt = NewCircuitBreakerTransport(rt, name, cfg.CircuitBreaker, logger)
	}
	rt = NewTimeoutTransport(rt, cfg.Timeout)
	rt = otelhttp.NewTransport(rt)
	return &http.Client{Transport: rt}
}
