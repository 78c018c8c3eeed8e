package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/skinhistory/internal/model"
)

// DefaultTimeout bounds one hook request.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNoHook is returned by Trigger when no hook URL is configured.
	ErrNoHook = errors.New("deploy hook not configured")

	// ErrHookStatus is returned for non-2xx hook responses.
	ErrHookStatus = errors.New("deploy hook returned error status")
)

// hookResponse is the body returned by the hook.
type hookResponse struct {
	Job model.DeployJob `json:"job"`
}

// Hook calls a deploy hook.
type Hook struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// Option configures a Hook.
type Option func(*Hook)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Hook) {
		if c != nil {
			h.client = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hook) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a Hook for url. An empty url yields a Hook whose Trigger
// returns ErrNoHook.
func New(url string, opts ...Option) *Hook {
	h := &Hook{
		url:    url,
		client: &http.Client{Timeout: DefaultTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Configured reports whether a hook URL is set.
func (h *Hook) Configured() bool {
	return h.url != ""
}

// Trigger requests a rebuild and returns the job the hook created.
func (h *Hook) Trigger(ctx context.Context) (*model.DeployJob, error) {
	if !h.Configured() {
		return nil, ErrNoHook
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create deploy request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call deploy hook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read deploy response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrHookStatus, resp.StatusCode)
	}

	var out hookResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode deploy response: %w", err)
	}

	h.logger.Info("deploy triggered", "job_id", out.Job.ID, "state", out.Job.State)
	return &out.Job, nil
}
