package report

import "github.com/forgeprobe/forgeprobe/internal/probe"

// Block sources mirror the printed diagnostics line for line. Each block
// opens with a newline so it separates from whatever the stream printed
// before it.

const preambleSource = `Attempting to connect to: {{ .URL }}
`

const successSource = `
--- Connection Successful! ---

Successfully retrieved {{ len .Models }} models:
{{- range $i, $m := .Models }}
  {{ add1 $i }}. {{ $m.DisplayTitle }} ({{ $m.DisplayName }})
{{- end }}
`

const malformedJSONSource = `
--- Connection Successful! ---

Response received, but it wasn't valid JSON.
Response Text:
{{ .Body }}
`

const connectionFailureSource = `
--- Connection Failed ---
Error: Could not connect to the server at {{ .BaseURL }}.
Troubleshooting tips:
  1. Verify Forge is running on {{ .Host }}.
  2. Double-check the port number (is {{ .Port }} correct?). Standard webui often uses 7860.
  3. Ensure the machine running this script is on the same network ({{ .Network }}).
  4. Check if a firewall on the server ({{ .Host }}) or this machine is blocking the connection.
  5. Make sure Forge was started with the '--api' command-line argument (or API enabled in settings).

Details: {{ .Cause }}
`

const timeoutSource = `
--- Connection Timed Out ---
Error: The request to {{ .URL }} timed out.
The server might be running but too slow to respond, or network issues might exist.
`

const httpErrorSource = `
--- HTTP Error ---
Error: The server returned an error status code: {{ .Status }}
URL: {{ .URL }}
Response Body:
{{ .Body }}

This might mean the endpoint exists but there was an issue, or the endpoint requires authentication/specific parameters.
`

const otherErrorSource = `
--- An Unexpected Error Occurred ---
Error: {{ .Cause }}
`

// blockSources maps each outcome kind to its diagnostic block.
var blockSources = map[probe.Kind]string{
	probe.KindSuccess:           successSource,
	probe.KindMalformedJSON:     malformedJSONSource,
	probe.KindConnectionFailure: connectionFailureSource,
	probe.KindTimeout:           timeoutSource,
	probe.KindHTTPError:         httpErrorSource,
	probe.KindOtherError:        otherErrorSource,
}
