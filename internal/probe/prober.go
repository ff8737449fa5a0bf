package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/forgeprobe/forgeprobe/internal/config"
	"github.com/forgeprobe/forgeprobe/internal/sdapi"
)

// maxBodyBytes bounds how much of a response body is read and echoed back in
// diagnostics. Model lists are a few kilobytes; anything near the cap is a
// misbehaving server.
const maxBodyBytes = 1 << 20

// httpDoer is the part of *http.Client the prober calls. Tests swap the
// field to reach failure shapes httptest cannot produce.
type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Prober issues the single GET against the sd-models route and classifies
// whatever comes back. It is responsible purely for HTTP execution and
// outcome capture; rendering the diagnostic text belongs to the report
// package.
type Prober struct {
	client httpDoer
	logger *slog.Logger
	url    string
}

// New creates a prober for the configured target. A nil client, including a
// nil *http.Client variable, gets the default client bounded by the
// configured timeout.
func New(cfg config.ProbeConfig, logger *slog.Logger, client *http.Client) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}
	return &Prober{
		client: client,
		logger: logger.With(slog.String("agent", "prober")),
		url:    cfg.TargetURL(),
	}
}

// URL returns the full target the prober will request.
func (p *Prober) URL() string {
	return p.url
}

// Run performs the probe. Every failure mode is folded into the returned
// Outcome so the caller always has something to report.
func (p *Prober) Run(ctx context.Context) Outcome {
	outcome := Outcome{URL: p.url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		outcome.Kind = KindOtherError
		outcome.Err = fmt.Errorf("probe: build request: %w", err)
		return outcome
	}

	p.logger.Debug("sending request", slog.String("url", p.url))
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		outcome.Latency = time.Since(start)
		outcome.Kind = classifyTransportError(err)
		outcome.Err = err
		p.logger.Warn("request failed",
			slog.String("url", p.url),
			slog.String("kind", string(outcome.Kind)),
			slog.Any("error", err))
		return outcome
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	closeErr := resp.Body.Close()
	outcome.Latency = time.Since(start)
	outcome.Status = resp.StatusCode
	outcome.Body = string(body)
	if readErr != nil {
		// A body that stalls past the deadline or a connection reset mid-read
		// classifies the same way the dial-phase variant would.
		outcome.Kind = classifyTransportError(readErr)
		outcome.Err = fmt.Errorf("probe: read response: %w", readErr)
		p.logger.Warn("response read failed",
			slog.String("url", p.url),
			slog.String("kind", string(outcome.Kind)),
			slog.Any("error", readErr))
		return outcome
	}
	if closeErr != nil {
		outcome.Kind = KindOtherError
		outcome.Err = fmt.Errorf("probe: close response: %w", closeErr)
		return outcome
	}

	if resp.StatusCode >= http.StatusBadRequest {
		outcome.Kind = KindHTTPError
		p.logger.Warn("server returned error status",
			slog.String("url", p.url),
			slog.Int("status", resp.StatusCode))
		return outcome
	}

	models, parseErr := sdapi.ParseModels(body)
	if parseErr != nil {
		outcome.Kind = KindMalformedJSON
		outcome.Err = parseErr
		p.logger.Warn("response body is not a model list",
			slog.Int("status", resp.StatusCode),
			slog.Any("error", parseErr))
		return outcome
	}

	outcome.Kind = KindSuccess
	outcome.Models = models
	p.logger.Info("probe succeeded",
		slog.Int("status", resp.StatusCode),
		slog.Int("models", len(models)),
		slog.Duration("latency", outcome.Latency))
	return outcome
}

// classifyTransportError buckets a failed request. Dial-phase failures are
// reported as connection problems even when they also carry a timeout flag,
// so a server that is down reads as down rather than slow; only deadline
// expiry after the connection stood reads as a timeout.
func classifyTransportError(err error) Kind {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindConnectionFailure
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnectionFailure
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return KindConnectionFailure
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindOtherError
}
