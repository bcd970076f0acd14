package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sjinay21/CrowdShieldAI/internal/config"
	"github.com/sjinay21/CrowdShieldAI/internal/logging"
	"github.com/sjinay21/CrowdShieldAI/internal/models"
)

// Dispatcher delivers report envelopes to the monitoring backend. Each call
// is a single bounded-timeout POST: there is no retry, no buffering and no
// ordering guarantee between consecutive envelopes.
type Dispatcher struct {
	endpoint   string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewDispatcher creates a dispatcher for the configured backend URL.
func NewDispatcher(cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		endpoint: cfg.BackendURL + "/api/crowd-analysis",
		httpClient: &http.Client{
			Timeout: cfg.DispatchTimeout,
		},
		logger: logging.NewServiceLogger(cfg, "dispatch"),
	}
}

// Dispatch serializes the envelope and posts it to the backend. Any transport
// failure, timeout or non-2xx response is returned as an error; callers treat
// delivery failure as non-fatal and continue the pipeline.
func (d *Dispatcher) Dispatch(ctx context.Context, envelope models.ReportEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	// Response body is not consumed, only drained for connection reuse.
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend rejected envelope (status %d)", resp.StatusCode)
	}

	d.logger.Debug().
		Str("camera_id", envelope.CameraID).
		Int("total_count", envelope.Analysis.TotalCount).
		Int("events", len(envelope.Events)).
		Dur("latency", time.Since(start)).
		Msg("Envelope delivered to backend")

	return nil
}
