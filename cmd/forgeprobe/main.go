// Command forgeprobe issues a single diagnostic GET against a Stable
// Diffusion Forge server and prints a human-readable verdict. The report on
// stdout is the product; structured logs go to stderr so the two streams can
// be split. Whatever the verdict, a probe that ran to completion exits zero.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/forgeprobe/forgeprobe/internal/config"
	"github.com/forgeprobe/forgeprobe/internal/logging"
	"github.com/forgeprobe/forgeprobe/internal/probe"
	"github.com/forgeprobe/forgeprobe/internal/report"
)

func main() {
	var (
		baseURL   = flag.String("url", "", "base URL of the Forge server, e.g. http://192.168.73.138:42003")
		endpoint  = flag.String("endpoint", "", "API path appended to the base URL")
		timeout   = flag.Int("timeout", 0, "request timeout in seconds")
		logLevel  = flag.String("log-level", "", "log level: debug, info, warn, error")
		logFormat = flag.String("log-format", "", "log format: text, json")
		envPrefix = flag.String("env-prefix", "FORGEPROBE", "environment variable prefix for configuration")
	)
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	overrides := probeOverrides(set, *baseURL, *endpoint, *timeout, *logLevel, *logFormat)
	if err := run(ctx, *envPrefix, overrides, os.Stdout); err != nil {
		log.Fatalf("forgeprobe: %v", err)
	}
}

// run wires configuration, logging, the prober, and the report renderer
// together, then performs the probe. Classified outcomes are results, not
// errors: the diagnostic block is written to out and run returns nil. Only
// failures to set the probe up at all surface as errors.
func run(ctx context.Context, envPrefix string, overrides map[string]any, out io.Writer) error {
	loader := config.NewLoader(envPrefix, overrides)
	cfg, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	logger = logger.With(slog.String("run_id", uuid.NewString()))

	renderer, err := report.NewRenderer()
	if err != nil {
		return fmt.Errorf("build report renderer: %w", err)
	}

	prober := probe.New(cfg.Probe, logger, nil)
	if err := renderer.WritePreamble(out, prober.URL()); err != nil {
		return fmt.Errorf("write report preamble: %w", err)
	}

	outcome := prober.Run(ctx)
	if err := renderer.Write(out, outcome); err != nil {
		return fmt.Errorf("render outcome report: %w", err)
	}

	logger.Info("probe finished",
		slog.String("outcome", string(outcome.Kind)),
		slog.Int("status", outcome.Status),
		slog.Duration("latency", outcome.Latency))
	return nil
}

// probeOverrides folds the flags named in set into loader overrides so the
// command line wins over environment variables and defaults. set comes from
// flag.Visit, so an explicitly passed zero reaches validation instead of
// being dropped as unset.
func probeOverrides(set map[string]bool, baseURL, endpoint string, timeout int, logLevel, logFormat string) map[string]any {
	overrides := make(map[string]any)
	if set["url"] {
		overrides["probe.baseUrl"] = baseURL
	}
	if set["endpoint"] {
		overrides["probe.endpoint"] = endpoint
	}
	if set["timeout"] {
		overrides["probe.timeoutSeconds"] = timeout
	}
	if set["log-level"] {
		overrides["logging.level"] = logLevel
	}
	if set["log-format"] {
		overrides["logging.format"] = logFormat
	}
	return overrides
}
