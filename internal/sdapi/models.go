// Package sdapi holds the slice of the Stable Diffusion web API surface the
// probing tools talk to: the checkpoint listing route and its record shape.
package sdapi

import (
	"encoding/json"
	"fmt"
)

// DefaultEndpoint is the checkpoint listing route exposed by Forge and other
// AUTOMATIC1111-compatible servers. It needs no parameters or authentication,
// which makes it the cheapest call that proves the API layer is enabled.
const DefaultEndpoint = "/sdapi/v1/sd-models"

// placeholder substitutes for display fields the server did not send.
const placeholder = "N/A"

// Model is one checkpoint record from the sd-models response. The upstream
// payload carries more fields (hash, sha256, filename, config); only the two
// used for display are decoded. Pointer fields keep absent and null keys
// distinguishable from present-but-empty strings.
type Model struct {
	Title     *string `json:"title"`
	ModelName *string `json:"model_name"`
}

// NewModel builds a record with both display fields set. Mostly a convenience
// for canned fixtures.
func NewModel(title, modelName string) Model {
	return Model{Title: &title, ModelName: &modelName}
}

// DisplayTitle returns the checkpoint title, or "N/A" when the field was
// absent or null.
func (m Model) DisplayTitle() string {
	if m.Title == nil {
		return placeholder
	}
	return *m.Title
}

// DisplayName returns the internal model name, or "N/A" when the field was
// absent or null.
func (m Model) DisplayName() string {
	if m.ModelName == nil {
		return placeholder
	}
	return *m.ModelName
}

// ParseModels decodes an sd-models response body. Payloads that are valid
// JSON but not an array of records are rejected along with unparseable ones,
// so callers can fall back to echoing the raw body.
func ParseModels(body []byte) ([]Model, error) {
	var models []Model
	if err := json.Unmarshal(body, &models); err != nil {
		return nil, fmt.Errorf("sdapi: decode models: %w", err)
	}
	if models == nil {
		return nil, fmt.Errorf("sdapi: decode models: payload is not a model array")
	}
	return models, nil
}
