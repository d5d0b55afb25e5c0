// File: internal/planner/client.go
// Package planner is the HTTP client for the remote action-generation
// service. One request per loop iteration; a request that exhausts its
// retries is fatal to the owning run.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/config"
)

// Client posts PlanRequests to the planner endpoint.
type Client struct {
	url        string
	maxRetries uint64
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds a planner client from configuration.
func New(cfg config.PlannerConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	retries := uint64(0)
	if cfg.MaxRetries > 0 {
		retries = uint64(cfg.MaxRetries)
	}
	return &Client{
		url:        cfg.URL,
		maxRetries: retries,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("planner"),
	}
}

// GenerateAction requests the next step for a run. A nil response never comes
// back with a nil error; transport failure after retries is the error, and
// the caller treats it as fatal for the run.
func (c *Client) GenerateAction(ctx context.Context, req schemas.PlanRequest) (*schemas.PlanResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan request: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 10 * time.Second

	var parsed schemas.PlanResponse
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("Network error during planner request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("planner error: status %d, body: %s", resp.StatusCode, string(respBody))
			switch resp.StatusCode {
			case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
				return err // Transient, retry.
			default:
				return backoff.Permanent(err)
			}
		}
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode plan response: %w", err))
		}
		c.logger.Info("Planner step generated.",
			zap.Duration("duration", time.Since(start)),
			zap.String("task_id", req.TaskID),
			zap.Int("traj_step", parsed.CurrentTrajStep),
		)
		return nil
	}

	retry := backoff.WithMaxRetries(backoff.WithContext(b, ctx), c.maxRetries)
	if err := backoff.Retry(operation, retry); err != nil {
		return nil, err
	}
	return &parsed, nil
}
