package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoader(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) map[string]any
		wantErr bool
		assert  func(t *testing.T, cfg Config)
	}{
		{
			name: "returns defaults when nothing is set",
			setup: func(t *testing.T) map[string]any {
				return nil
			},
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, "http://192.168.73.138:42003", cfg.Probe.BaseURL)
				require.Equal(t, "/sdapi/v1/sd-models", cfg.Probe.Endpoint)
				require.Equal(t, 10, cfg.Probe.TimeoutSeconds)
				require.Equal(t, "info", cfg.Logging.Level)
				require.Equal(t, "text", cfg.Logging.Format)
				require.Equal(t, 7860, cfg.Stub.Listen.Port)
				require.Equal(t, 200, cfg.Stub.Response.Status)
			},
		},
		{
			name: "merges env overrides",
			setup: func(t *testing.T) map[string]any {
				t.Setenv("FORGEPROBE_PROBE__BASEURL", "http://10.0.0.5:7860")
				t.Setenv("FORGEPROBE_PROBE__TIMEOUTSECONDS", "3")
				return nil
			},
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, "http://10.0.0.5:7860", cfg.Probe.BaseURL)
				require.Equal(t, 3, cfg.Probe.TimeoutSeconds)
			},
		},
		{
			name: "prefers flag overrides over env",
			setup: func(t *testing.T) map[string]any {
				t.Setenv("FORGEPROBE_PROBE__BASEURL", "http://10.0.0.5:7860")
				return map[string]any{"probe.baseUrl": "http://127.0.0.1:7860"}
			},
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, "http://127.0.0.1:7860", cfg.Probe.BaseURL)
			},
		},
		{
			name: "reads stub block from env",
			setup: func(t *testing.T) map[string]any {
				t.Setenv("FORGEPROBE_STUB__RESPONSE__STATUS", "500")
				t.Setenv("FORGEPROBE_STUB__RESPONSE__DELAY", "250ms")
				return nil
			},
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, 500, cfg.Stub.Response.Status)
				require.Equal(t, 250*time.Millisecond, cfg.Stub.Response.ResponseDelay())
			},
		},
		{
			name: "fails when base url has no scheme",
			setup: func(t *testing.T) map[string]any {
				return map[string]any{"probe.baseUrl": "192.168.73.138:42003"}
			},
			wantErr: true,
		},
		{
			name: "fails when endpoint misses leading slash",
			setup: func(t *testing.T) map[string]any {
				return map[string]any{"probe.endpoint": "sdapi/v1/sd-models"}
			},
			wantErr: true,
		},
		{
			name: "fails when timeout is not positive",
			setup: func(t *testing.T) map[string]any {
				return map[string]any{"probe.timeoutSeconds": 0}
			},
			wantErr: true,
		},
		{
			name: "fails when stub delay does not parse",
			setup: func(t *testing.T) map[string]any {
				return map[string]any{"stub.response.delay": "soon"}
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			overrides := tc.setup(t)
			loader := NewLoader("FORGEPROBE", overrides)

			cfg, err := loader.Load(ctx)
			if tc.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			tc.assert(t, cfg)
		})
	}
}

func TestLoaderHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader("FORGEPROBE", nil).Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
