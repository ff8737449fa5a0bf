package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Loader hydrates the effective configuration while respecting
// override > env > default precedence. Overrides carry explicitly set CLI
// flags; there is no file layer, the tools are configured entirely from the
// command line and the environment.
type Loader struct {
	envPrefix string
	overrides map[string]any
}

// NewLoader prepares a config hydrator. Override keys are dotted paths such
// as "probe.baseUrl".
func NewLoader(envPrefix string, overrides map[string]any) *Loader {
	return &Loader{
		envPrefix: envPrefix,
		overrides: overrides,
	}
}

// Load assembles the effective snapshot using the documented precedence
// rules and validates it before handing it out.
func (l *Loader) Load(ctx context.Context) (Config, error) {
	defaultCfg := DefaultConfig()
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(structToMap(defaultCfg), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	select {
	case <-ctx.Done():
		return Config{}, ctx.Err()
	default:
	}

	if l.envPrefix != "" {
		canonical := map[string]string{
			"probe.baseurl":        "probe.baseUrl",
			"probe.timeoutseconds": "probe.timeoutSeconds",
		}
		transform := func(s string) string {
			// Double underscores signal a nested path (PROBE__BASEURL -> probe.baseUrl).
			key := strings.TrimPrefix(s, l.envPrefix+"_")
			key = strings.ReplaceAll(key, "__", ".")
			lower := strings.ToLower(key)
			if mapped, ok := canonical[lower]; ok {
				return mapped
			}
			// Single underscores are removed so TIMEOUT_SECONDS collapses into
			// timeoutseconds when callers choose not to use double underscores
			// for object nesting.
			key = strings.ReplaceAll(key, "_", "")
			return strings.ToLower(key)
		}
		if err := k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
			return Config{}, fmt.Errorf("config: load env: %w", err)
		}
	}

	if len(l.overrides) > 0 {
		if err := k.Load(confmap.Provider(l.overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("config: load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// structToMap converts DefaultConfig into a map for the koanf confmap provider.
func structToMap(cfg Config) map[string]any {
	return map[string]any{
		"probe": map[string]any{
			"baseUrl":        cfg.Probe.BaseURL,
			"endpoint":       cfg.Probe.Endpoint,
			"timeoutSeconds": cfg.Probe.TimeoutSeconds,
		},
		"logging": map[string]any{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		},
		"stub": map[string]any{
			"listen": map[string]any{
				"address": cfg.Stub.Listen.Address,
				"port":    cfg.Stub.Listen.Port,
			},
			"response": map[string]any{
				"status": cfg.Stub.Response.Status,
				"body":   cfg.Stub.Response.Body,
				"delay":  cfg.Stub.Response.Delay,
			},
		},
	}
}
