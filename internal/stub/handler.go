// Package stub serves a minimal Forge-compatible facsimile of the sd-models
// route so every probe outcome can be reproduced locally: the canned list for
// success, a status override for HTTP errors, a raw body for malformed
// payloads, and an artificial delay for timeouts.
package stub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/forgeprobe/forgeprobe/internal/config"
	"github.com/forgeprobe/forgeprobe/internal/metrics"
	"github.com/forgeprobe/forgeprobe/internal/sdapi"
)

// Route labels used for instrumentation.
const (
	routeModels = "sd-models"
	routePing   = "ping"
)

// Handler answers the stubbed API surface. It is pure request handling; the
// listener lifecycle lives in the server package.
type Handler struct {
	response config.StubResponseConfig
	models   []sdapi.Model
	logger   *slog.Logger
	recorder *metrics.Recorder
}

// NewHandler builds a handler for the configured response mode. A nil
// recorder disables instrumentation.
func NewHandler(response config.StubResponseConfig, logger *slog.Logger, recorder *metrics.Recorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		response: response,
		models:   CannedModels(),
		logger:   logger.With(slog.String("agent", "stub")),
		recorder: recorder,
	}
}

// Routes wires the stubbed paths onto a mux. Anything unregistered falls
// through to the mux's 404, which is itself a useful probe target.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(sdapi.DefaultEndpoint, h.serveModels)
	mux.HandleFunc("/internal/ping", h.servePing)
	mux.Handle("/internal/metrics", h.recorder.Handler())
	return mux
}

// serveModels is the sd-models route. The configured response mode decides
// between the canned list, a literal body, or an error status. A request
// dropped mid-stall is recorded with no status.
func (h *Handler) serveModels(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := 0
	defer func() {
		h.recorder.ObserveRequest(routeModels, r.Method, status, time.Since(start))
	}()

	if r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		http.Error(w, "Method not allowed", status)
		return
	}

	if delay := h.response.ResponseDelay(); delay > 0 {
		h.logger.Debug("stalling response", slog.Duration("delay", delay))
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	status = h.response.Status
	if status == 0 {
		status = http.StatusOK
	}

	if status >= http.StatusBadRequest {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(h.response.Body))
		h.logger.Info("served error status", slog.Int("status", status))
		return
	}

	if h.response.Body != "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(h.response.Body))
		h.logger.Info("served literal body", slog.Int("status", status))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(h.models); err != nil {
		h.logger.Error("encode models", slog.Any("error", err))
		return
	}
	h.logger.Info("served model list", slog.Int("status", status), slog.Int("models", len(h.models)))
}

// servePing answers liveness checks with an empty JSON object, matching the
// webui's internal ping route.
func (h *Handler) servePing(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		h.recorder.ObserveRequest(routePing, r.Method, status, time.Since(start))
	}()

	if r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		http.Error(w, "Method not allowed", status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{}"))
}

// CannedModels returns the fixed checkpoint list served in the default mode.
// Titles follow the webui convention of filename plus short hash.
func CannedModels() []sdapi.Model {
	return []sdapi.Model{
		sdapi.NewModel("sd_xl_base_1.0.safetensors [31e35c80fc]", "sd_xl_base_1.0"),
		sdapi.NewModel("v1-5-pruned-emaonly.safetensors [6ce0161689]", "v1-5-pruned-emaonly"),
		sdapi.NewModel("dreamshaper_8.safetensors [879db523c3]", "dreamshaper_8"),
	}
}
