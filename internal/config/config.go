package config

import (
	"strings"

	"github.com/abgdnv/productboard/pkg/config"
	"github.com/abgdnv/productboard/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// AppName prefixes environment variables, e.g. DASHBOARD_LOG_LEVEL.
const AppName = "dashboard"

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Gateway    config.HTTPClientConfig `koanf:"gateway"`
}

// Defaults is the lowest-priority configuration layer. The dashboard runs
// against the public reference catalog without any config file.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":                                8080,
		"server.maxheaderbytes":                      1 << 20,
		"server.timeout.read":                        "10s",
		"server.timeout.write":                       "30s",
		"server.timeout.idle":                        "60s",
		"server.timeout.readheader":                  "5s",
		"log.level":                                  "info",
		"pprof.enabled":                              false,
		"pprof.addr":                                 ":6060",
		"shutdown.timeout":                           "15s",
		"telemetry.traces.enabled":                   false,
		"telemetry.traces.otlphttp.timeout":          "5s",
		"telemetry.metrics.enabled":                  true,
		"gateway.baseurl":                            "https://fakestoreapi.com",
		"gateway.timeout":                            "10s",
		"gateway.circuitbreaker.enabled":             true,
		"gateway.circuitbreaker.consecutivefailures": 5,
		"gateway.circuitbreaker.errorratepercent":    60,
		"gateway.circuitbreaker.opentimeout":         "30s",
		"gateway.circuitbreaker.halfopenrequests":    1,
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Gateway.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return c.Gateway.Validate()
}
