package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/forgeprobe/forgeprobe/internal/probe"
	"github.com/forgeprobe/forgeprobe/internal/sdapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultTarget = "http://192.168.73.138:42003/sdapi/v1/sd-models"

func render(t *testing.T, outcome probe.Outcome) string {
	t.Helper()
	renderer, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderer.Write(&buf, outcome))
	return buf.String()
}

func TestWritePreamble(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderer.WritePreamble(&buf, defaultTarget))
	assert.Equal(t, "Attempting to connect to: http://192.168.73.138:42003/sdapi/v1/sd-models\n", buf.String())
}

func TestSuccessBlockListsModels(t *testing.T) {
	out := render(t, probe.Outcome{
		Kind:   probe.KindSuccess,
		URL:    defaultTarget,
		Status: 200,
		Models: []sdapi.Model{
			sdapi.NewModel("A", "a"),
			sdapi.NewModel("B", "b"),
		},
	})

	assert.Contains(t, out, "--- Connection Successful! ---")
	assert.Contains(t, out, "Successfully retrieved 2 models:")
	assert.Contains(t, out, "  1. A (a)")
	assert.Contains(t, out, "  2. B (b)")
}

func TestSuccessBlockSingleModelExactText(t *testing.T) {
	out := render(t, probe.Outcome{
		Kind:   probe.KindSuccess,
		URL:    defaultTarget,
		Status: 200,
		Models: []sdapi.Model{sdapi.NewModel("A", "a")},
	})

	assert.Equal(t, "\n--- Connection Successful! ---\n\nSuccessfully retrieved 1 models:\n  1. A (a)\n", out)
}

func TestSuccessBlockSubstitutesPlaceholders(t *testing.T) {
	models, err := sdapi.ParseModels([]byte(`[{"model_name": "x"}]`))
	require.NoError(t, err)

	out := render(t, probe.Outcome{Kind: probe.KindSuccess, URL: defaultTarget, Models: models})
	assert.Contains(t, out, "  1. N/A (x)")
}

func TestSuccessBlockEmptyList(t *testing.T) {
	out := render(t, probe.Outcome{Kind: probe.KindSuccess, URL: defaultTarget, Models: []sdapi.Model{}})
	assert.Contains(t, out, "Successfully retrieved 0 models:")
}

func TestMalformedJSONBlockEchoesBody(t *testing.T) {
	out := render(t, probe.Outcome{
		Kind:   probe.KindMalformedJSON,
		URL:    defaultTarget,
		Status: 200,
		Body:   "<html>It works!</html>",
		Err:    errors.New("sdapi: decode models: invalid character '<' looking for beginning of value"),
	})

	assert.Contains(t, out, "--- Connection Successful! ---")
	assert.Contains(t, out, "Response received, but it wasn't valid JSON.")
	assert.Contains(t, out, "Response Text:\n<html>It works!</html>")
}

func TestConnectionFailureBlockDerivesTipsFromURL(t *testing.T) {
	out := render(t, probe.Outcome{
		Kind: probe.KindConnectionFailure,
		URL:  defaultTarget,
		Err:  errors.New(`Get "http://192.168.73.138:42003/sdapi/v1/sd-models": dial tcp 192.168.73.138:42003: connect: connection refused`),
	})

	assert.Contains(t, out, "--- Connection Failed ---")
	assert.Contains(t, out, "Error: Could not connect to the server at http://192.168.73.138:42003.")
	assert.Contains(t, out, "Troubleshooting tips:")
	assert.Contains(t, out, "  1. Verify Forge is running on 192.168.73.138.")
	assert.Contains(t, out, "  2. Double-check the port number (is 42003 correct?). Standard webui often uses 7860.")
	assert.Contains(t, out, "  3. Ensure the machine running this script is on the same network (192.168.73.x).")
	assert.Contains(t, out, "  4. Check if a firewall on the server (192.168.73.138) or this machine is blocking the connection.")
	assert.Contains(t, out, "  5. Make sure Forge was started with the '--api' command-line argument (or API enabled in settings).")
	assert.Contains(t, out, `Details: Get "http://192.168.73.138:42003/sdapi/v1/sd-models": dial tcp 192.168.73.138:42003: connect: connection refused`)
}

func TestConnectionFailureBlockFallsBackToSchemePort(t *testing.T) {
	out := render(t, probe.Outcome{
		Kind: probe.KindConnectionFailure,
		URL:  "http://forge.lan/sdapi/v1/sd-models",
		Err:  errors.New("dial tcp: connection refused"),
	})

	assert.Contains(t, out, "Error: Could not connect to the server at http://forge.lan.")
	assert.Contains(t, out, "(is 80 correct?)")
	assert.Contains(t, out, "same network (forge.lan)")
}

func TestTimeoutBlock(t *testing.T) {
	out := render(t, probe.Outcome{
		Kind: probe.KindTimeout,
		URL:  defaultTarget,
		Err:  errors.New("context deadline exceeded"),
	})

	assert.Contains(t, out, "--- Connection Timed Out ---")
	assert.Contains(t, out, "Error: The request to http://192.168.73.138:42003/sdapi/v1/sd-models timed out.")
	assert.Contains(t, out, "The server might be running but too slow to respond, or network issues might exist.")
}

func TestHTTPErrorBlock(t *testing.T) {
	out := render(t, probe.Outcome{
		Kind:   probe.KindHTTPError,
		URL:    defaultTarget,
		Status: 500,
		Body:   "internal error",
	})

	assert.Contains(t, out, "--- HTTP Error ---")
	assert.Contains(t, out, "Error: The server returned an error status code: 500")
	assert.Contains(t, out, "URL: http://192.168.73.138:42003/sdapi/v1/sd-models")
	assert.Contains(t, out, "Response Body:\ninternal error")
	assert.Contains(t, out, "This might mean the endpoint exists but there was an issue, or the endpoint requires authentication/specific parameters.")
}

func TestOtherErrorBlock(t *testing.T) {
	out := render(t, probe.Outcome{
		Kind: probe.KindOtherError,
		URL:  defaultTarget,
		Err:  errors.New("stream error: stream ID 1; INTERNAL_ERROR"),
	})

	assert.Contains(t, out, "--- An Unexpected Error Occurred ---")
	assert.Contains(t, out, "Error: stream error: stream ID 1; INTERNAL_ERROR")
}

func TestWriteRejectsUnknownKind(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.Error(t, renderer.Write(&buf, probe.Outcome{Kind: probe.Kind("mystery")}))
	assert.Zero(t, buf.Len())
}

func TestNetworkHint(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{name: "lan ipv4", host: "192.168.73.138", want: "192.168.73.x"},
		{name: "loopback", host: "127.0.0.1", want: "127.0.0.x"},
		{name: "hostname", host: "forge.lan", want: "forge.lan"},
		{name: "ipv6", host: "::1", want: "::1"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, networkHint(tc.host))
		})
	}
}
