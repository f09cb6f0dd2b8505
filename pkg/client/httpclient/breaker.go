package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/productboard/pkg/config"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerTransport counts network errors and 5xx responses as
// failures. While the breaker is open requests fail with gobreaker.ErrOpenState
// without reaching the network. Requests are never retried.
type CircuitBreakerTransport struct {
	base http.RoundTripper
	cb   *gobreaker.CircuitBreaker[*http.Response]
}

// serverError carries a 5xx response through the breaker so that it is
// recorded as a failure but still handed to the caller.
type serverError struct {
	resp *http.Response
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error: status %d", e.resp.StatusCode)
}

func NewCircuitBreakerTransport(base http.RoundTripper, name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerTransport {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(counts.Requests > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up says nothing about the remote side
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &CircuitBreakerTransport{
		base: base,
		cb:   gobreaker.NewCircuitBreaker[*http.Response](st),
	}
}

func (t *CircuitBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.cb.Execute(func() (*http.Response, error) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &serverError{resp: resp}
		}
		return resp, nil
	})
	var se *serverError
	if errors.As(err, &se) {
		return se.resp, nil
	}
	return resp, err
}

// State reports the current breaker state.
func (t *CircuitBreakerTransport) State() gobreaker.State {
	return t.cb.State()
}
