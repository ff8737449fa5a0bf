// Command forgestub hosts a small facsimile of a Stable Diffusion Forge
// server. It exists so forgeprobe has something local to point at: the stub
// can serve a canned model list, a literal body, an error status, or stall
// long enough to trip the probe timeout, which covers every diagnostic the
// probe knows how to print.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/forgeprobe/forgeprobe/internal/config"
	"github.com/forgeprobe/forgeprobe/internal/logging"
	"github.com/forgeprobe/forgeprobe/internal/metrics"
	"github.com/forgeprobe/forgeprobe/internal/server"
	"github.com/forgeprobe/forgeprobe/internal/stub"
)

func main() {
	var (
		address   = flag.String("address", "", "bind address for the stub listener")
		port      = flag.Int("port", 0, "bind port for the stub listener")
		status    = flag.Int("status", 0, "status code served on the sd-models route")
		body      = flag.String("body", "", "literal body served instead of the canned model list")
		delay     = flag.String("delay", "", "artificial delay before responding, e.g. 15s")
		logLevel  = flag.String("log-level", "", "log level: debug, info, warn, error")
		logFormat = flag.String("log-format", "", "log format: text, json")
		envPrefix = flag.String("env-prefix", "FORGEPROBE", "environment variable prefix for configuration")
	)
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	overrides := stubOverrides(set, *address, *port, *status, *body, *delay, *logLevel, *logFormat)
	if err := run(ctx, *envPrefix, overrides); err != nil {
		log.Fatalf("forgestub: %v", err)
	}
}

// run hosts the stub until the context is cancelled. Cancellation is the
// normal way to stop it, so it is not reported as an error.
func run(ctx context.Context, envPrefix string, overrides map[string]any) error {
	loader := config.NewLoader(envPrefix, overrides)
	cfg, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	recorder := metrics.NewRecorder(nil)
	handler := stub.NewHandler(cfg.Stub.Response, logger, recorder)
	srv, err := server.New(cfg.Stub.Listen, logger, handler.Routes())
	if err != nil {
		return fmt.Errorf("construct server: %w", err)
	}

	logger.Info("serving Forge facsimile",
		slog.String("address", cfg.Stub.Listen.Address),
		slog.Int("port", cfg.Stub.Listen.Port),
		slog.Int("status", cfg.Stub.Response.Status),
		slog.String("delay", cfg.Stub.Response.Delay))

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("stub shutdown complete")
	return nil
}

// stubOverrides folds the flags named in set into loader overrides so the
// command line wins over environment variables and defaults. set comes from
// flag.Visit, so an explicitly passed zero reaches validation instead of
// being dropped as unset.
func stubOverrides(set map[string]bool, address string, port, status int, body, delay, logLevel, logFormat string) map[string]any {
	overrides := make(map[string]any)
	if set["address"] {
		overrides["stub.listen.address"] = address
	}
	if set["port"] {
		overrides["stub.listen.port"] = port
	}
	if set["status"] {
		overrides["stub.response.status"] = status
	}
	if set["body"] {
		overrides["stub.response.body"] = body
	}
	if set["delay"] {
		overrides["stub.response.delay"] = delay
	}
	if set["log-level"] {
		overrides["logging.level"] = logLevel
	}
	if set["log-format"] {
		overrides["logging.format"] = logFormat
	}
	return overrides
}
