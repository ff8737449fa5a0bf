package probe

import (
	"time"

	"github.com/forgeprobe/forgeprobe/internal/sdapi"
)

// Kind names the single bucket every probe run lands in. Each kind maps to
// one diagnostic block in the report package.
type Kind string

const (
	// KindSuccess means the server answered with a decodable checkpoint list.
	KindSuccess Kind = "success"
	// KindConnectionFailure means no connection could be established at all:
	// refused, unreachable, or unresolvable.
	KindConnectionFailure Kind = "connection_failure"
	// KindTimeout means the server accepted the connection but the configured
	// bound elapsed before a response arrived.
	KindTimeout Kind = "timeout"
	// KindHTTPError means a response arrived carrying a 4xx or 5xx status.
	KindHTTPError Kind = "http_error"
	// KindMalformedJSON means a success status arrived whose body is not a
	// model array.
	KindMalformedJSON Kind = "malformed_json"
	// KindOtherError covers request failures none of the other kinds claim.
	KindOtherError Kind = "error"
)

// Outcome is the classified result of one probe run. Exactly one outcome is
// produced per invocation and handed to the report renderer; failures live in
// the fields, never in a returned error.
type Outcome struct {
	Kind   Kind
	URL    string
	Status int
	Body   string
	Models []sdapi.Model
	Err    error
	// Latency covers connect through body read for responses that arrived. It
	// is diagnostic telemetry only and never influences classification.
	Latency time.Duration
}
