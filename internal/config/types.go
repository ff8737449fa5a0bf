package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/forgeprobe/forgeprobe/internal/sdapi"
)

// Config holds every option the probe and stub binaries understand.
type Config struct {
	Probe   ProbeConfig   `koanf:"probe"`
	Logging LoggingConfig `koanf:"logging"`
	Stub    StubConfig    `koanf:"stub"`
}

// ProbeConfig describes the single request the prober issues.
type ProbeConfig struct {
	// BaseURL is the scheme://host:port of the Forge instance under test,
	// without any path component.
	BaseURL string `koanf:"baseUrl"`
	// Endpoint is the API path appended verbatim to BaseURL.
	Endpoint string `koanf:"endpoint"`
	// TimeoutSeconds bounds the whole request, connect through body read.
	TimeoutSeconds int `koanf:"timeoutSeconds"`
}

// Timeout returns the request bound as a duration.
func (c ProbeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TargetURL joins the base address and API path the way they are probed.
func (c ProbeConfig) TargetURL() string {
	return c.BaseURL + c.Endpoint
}

// LoggingConfig expresses log level and format.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StubConfig drives the local Forge facsimile served by forgestub.
type StubConfig struct {
	Listen   ListenConfig       `koanf:"listen"`
	Response StubResponseConfig `koanf:"response"`
}

// ListenConfig instructs the stub HTTP listener about bind address and port.
type ListenConfig struct {
	Address string `koanf:"address"`
	Port    int    `koanf:"port"`
}

// StubResponseConfig selects which behaviour the stub's sd-models route
// reproduces. The defaults serve the canned checkpoint list; overriding
// status, body, or delay steers the route into the error, garbage, and
// stall shapes the prober has to diagnose.
type StubResponseConfig struct {
	// Status is the response code for the sd-models route. Codes of 400 and
	// above pair with Body to exercise the HTTP-error path.
	Status int `koanf:"status"`
	// Body replaces the canned JSON verbatim. With a success status it is
	// served as plain text, which exercises the malformed-payload path.
	Body string `koanf:"body"`
	// Delay is a time.ParseDuration string applied before responding. Values
	// past the prober's timeout exercise the timed-out path.
	Delay string `koanf:"delay"`
}

// ResponseDelay returns the parsed artificial delay, or zero when none is
// configured.
func (c StubResponseConfig) ResponseDelay() time.Duration {
	trimmed := strings.TrimSpace(c.Delay)
	if trimmed == "" {
		return 0
	}
	delay, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0
	}
	return delay
}

// Validate enforces invariants that keep both binaries predictable before
// any socket is opened.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil")
	}
	parsed, err := url.Parse(c.Probe.BaseURL)
	if err != nil {
		return fmt.Errorf("config: probe.baseUrl invalid: %w", err)
	}
	switch parsed.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("config: probe.baseUrl scheme unsupported: %q", c.Probe.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("config: probe.baseUrl missing host: %q", c.Probe.BaseURL)
	}
	if !strings.HasPrefix(c.Probe.Endpoint, "/") {
		return fmt.Errorf("config: probe.endpoint must start with /: %q", c.Probe.Endpoint)
	}
	if c.Probe.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: probe.timeoutSeconds invalid: %d", c.Probe.TimeoutSeconds)
	}
	if c.Stub.Listen.Port <= 0 || c.Stub.Listen.Port > 65535 {
		return fmt.Errorf("config: stub.listen.port invalid: %d", c.Stub.Listen.Port)
	}
	if s := c.Stub.Response.Status; s != 0 && (s < 100 || s > 599) {
		return fmt.Errorf("config: stub.response.status invalid: %d", s)
	}
	if delay := strings.TrimSpace(c.Stub.Response.Delay); delay != "" {
		if _, err := time.ParseDuration(delay); err != nil {
			return fmt.Errorf("config: stub.response.delay invalid: %w", err)
		}
	}
	return nil
}

// DefaultConfig returns the baseline values. The probe target defaults match
// the LAN deployment this tool was written against; the stub binds to the
// loopback on the standard webui port, so pointing the probe at the stub is
// always a deliberate -url choice.
func DefaultConfig() Config {
	return Config{
		Probe: ProbeConfig{
			BaseURL:        "http://192.168.73.138:42003",
			Endpoint:       sdapi.DefaultEndpoint,
			TimeoutSeconds: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Stub: StubConfig{
			Listen: ListenConfig{
				Address: "127.0.0.1",
				Port:    7860,
			},
			Response: StubResponseConfig{
				Status: 200,
			},
		},
	}
}
