package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validBreaker() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:             true,
		ConsecutiveFailures: 5,
		ErrorRatePercent:    60,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

func TestCircuitBreakerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *CircuitBreakerConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*CircuitBreakerConfig) {}},
		{name: "disabled skips checks", mutate: func(c *CircuitBreakerConfig) { *c = CircuitBreakerConfig{} }},
		{name: "zero failures", mutate: func(c *CircuitBreakerConfig) { c.ConsecutiveFailures = 0 }, wantErr: true},
		{name: "rate above 100", mutate: func(c *CircuitBreakerConfig) { c.ErrorRatePercent = 101 }, wantErr: true},
		{name: "negative rate", mutate: func(c *CircuitBreakerConfig) { c.ErrorRatePercent = -1 }, wantErr: true},
		{name: "no open timeout", mutate: func(c *CircuitBreakerConfig) { c.OpenTimeout = 0 }, wantErr: true},
		{name: "no half-open requests", mutate: func(c *CircuitBreakerConfig) { c.HalfOpenRequests = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBreaker()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestHTTPClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		timeout time.Duration
		wantErr bool
	}{
		{name: "https", baseURL: "https://fakestoreapi.com", timeout: time.Second},
		{name: "http with port", baseURL: "http://127.0.0.1:8080", timeout: time.Second},
		{name: "relative", baseURL: "/products", timeout: time.Second, wantErr: true},
		{name: "other scheme", baseURL: "ftp://example.com", timeout: time.Second, wantErr: true},
		{name: "empty", baseURL: "", timeout: time.Second, wantErr: true},
		{name: "no timeout", baseURL: "https://fakestoreapi.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := HTTPClientConfig{BaseURL: tt.baseURL, Timeout: tt.timeout, CircuitBreaker: validBreaker()}
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestLogConfig_Validate(t *testing.T) {
	for _, level := range []string{"", "debug", "INFO", "warn", "error"} {
		cfg := LogConfig{Level: level}
		assert.NoError(t, cfg.Validate(), level)
	}
	cfg := LogConfig{Level: "verbose"}
	assert.Error(t, cfg.Validate())
}

func TestTelemetryConfig_Validate(t *testing.T) {
	var cfg TelemetryConfig
	assert.NoError(t, cfg.Validate(), "disabled traces need no endpoint")

	cfg.Traces.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg.Traces.OtlpHttp.Endpoint = "localhost:4318"
	assert.Error(t, cfg.Validate())

	cfg.Traces.OtlpHttp.Timeout = 5 * time.Second
	assert.NoError(t, cfg.Validate())
}

func TestHTTPConfig_Validate(t *testing.T) {
	var cfg HTTPConfig
	cfg.Port = 8080
	cfg.Timeout.Read = time.Second
	cfg.Timeout.Write = time.Second
	cfg.Timeout.Idle = time.Second
	cfg.Timeout.ReadHeader = time.Second
	assert.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.String(), "8080")

	cfg.Port = 70000
	assert.Error(t, cfg.Validate())
}
