package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"
)

// TimeoutTransport applies a per-call timeout to the request context. The
// deadline stays in force until the response body is closed.
type TimeoutTransport struct {
	base    http.RoundTripper
	timeout time.Duration
}

func NewTimeoutTransport(base http.RoundTripper, timeout time.Duration) *TimeoutTransport {
	return &TimeoutTransport{base: base, timeout: timeout}
}

func (t *TimeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.timeout <= 0 {
		return t.base.RoundTrip(req)
	}
	ctx, cancel := context.WithTimeout(req.Context(), t.timeout)
	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
