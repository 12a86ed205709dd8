package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"funnel-tracker/internal/config"
)

// StatusError is returned for non-retryable (4xx) responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client error: %d %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

type HTTPClient struct {
	client        *http.Client
	retryAttempts int
	backoff       func(attempt int) time.Duration
	logger        *logrus.Logger
}

func NewHTTPClient(cfg *config.Config, logger *logrus.Logger) *HTTPClient {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		retryAttempts: attempts,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
		logger: logger,
	}
}

// WithBackoff replaces the quadratic retry backoff.
func (c *HTTPClient) WithBackoff(fn func(attempt int) time.Duration) *HTTPClient {
	c.backoff = fn
	return c
}

// Request is one JSON call. Body is marshalled when non-nil; the response is
// decoded into Target when non-nil and the response has content.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    interface{}
	Target  interface{}
}

// DoJSON sends the request, retrying network failures and 5xx responses with
// backoff. 4xx responses fail immediately with a *StatusError.
func (c *HTTPClient) DoJSON(ctx context.Context, r Request) error {
	var payload []byte
	if r.Body != nil {
		var err error
		payload, err = json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			backoffTime := c.backoff(attempt)
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"backoff": backoffTime,
				"method":  r.Method,
				"url":     r.URL,
			}).Warn("Retrying request after backoff")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffTime):
			}
		}

		req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range r.Headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
		}

		if r.Target != nil && len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, r.Target); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}

		c.logger.WithFields(logrus.Fields{
			"attempt":     attempt + 1,
			"status_code": resp.StatusCode,
			"method":      r.Method,
			"url":         r.URL,
		}).Debug("Request successful")

		return nil
	}

	return fmt.Errorf("all retry attempts failed, last error: %w", lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
