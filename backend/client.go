package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"search-assistant/query"
)

// Client submits queries to the answering backend, retrying transient failures.
// It holds no per-query state and is safe to share between goroutines.
type Client struct {
	httpClient *http.Client
	cfg        Config
	policy     func() backoff.BackOff
	sleep      SleepFunc
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBackoff replaces the exponential policy derived from the config.
func WithBackoff(b Backoff) Option {
	return func(c *Client) {
		if b != nil {
			c.policy = func() backoff.BackOff { return &attemptBackOff{schedule: b} }
		}
	}
}

// WithSleep replaces the function used to wait between attempts.
func WithSleep(s SleepFunc) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend configuration: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
		policy:     cfg.Backoff,
		sleep:      Sleep,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Submit sends userQuery to the backend and always returns a Result; failures are reported in it
// rather than as an error.
func (c *Client) Submit(ctx context.Context, userQuery string) query.Result {
	body, err := c.Query(ctx, userQuery)
	if err != nil {
		c.logger.ErrorContext(ctx, "backend query failed", slog.String("endpoint", c.cfg.Endpoint), slog.Any("error", err))
		return query.Failure(FailureMessage(err))
	}

	return query.Success(*body.Answer, body.Sources)
}

// Query is Submit with the failure left as an error. The returned body always has an answer.
func (c *Client) Query(ctx context.Context, userQuery string) (*query.ResponseBody, error) {
	payload, err := json.Marshal(query.RequestPayload{Query: userQuery})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query payload: %w", err)
	}

	var (
		body    *query.ResponseBody
		lastErr error
		attempt int
	)
	operation := func() error {
		attempt++
		var err error
		body, err = c.attempt(ctx, attempt, payload)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		c.logger.WarnContext(ctx, "backend attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", err))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.policy(), uint64(c.cfg.MaxAttempts-1)), ctx)
	err = backoff.RetryNotifyWithTimer(operation, policy, notify, newSleepTimer(ctx, c.sleep))
	if err == nil {
		return body, nil
	}

	// the loop reports a cancelled wait as the bare context error
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) && lastErr != nil && !errors.Is(lastErr, ctxErr) {
		return nil, fmt.Errorf("gave up waiting to retry after %w: %w", lastErr, err)
	}
	return nil, err
}

func (c *Client) attempt(ctx context.Context, attempt int, payload []byte) (*query.ResponseBody, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Attempt: attempt, Cause: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the caller giving up is not something another attempt can fix
		return nil, &Error{Attempt: attempt, Cause: err, Retryable: ctx.Err() == nil}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &Error{Attempt: attempt, StatusCode: resp.StatusCode, Body: raw, Retryable: true}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes+1))
	if err != nil {
		return nil, &Error{
			Attempt:    attempt,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("failed to read response body: %w", err),
			Retryable:  ctx.Err() == nil,
		}
	}

	if len(raw) > maxResponseBodyBytes {
		return nil, &Error{Attempt: attempt, StatusCode: resp.StatusCode, Cause: fmt.Errorf("%w: body larger than %d bytes", ErrMalformedResponse, maxResponseBodyBytes)}
	}

	var body query.ResponseBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &Error{Attempt: attempt, StatusCode: resp.StatusCode, Cause: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if body.Answer == nil {
		return nil, &Error{Attempt: attempt, StatusCode: resp.StatusCode, Cause: fmt.Errorf("%w: missing answer field", ErrMalformedResponse)}
	}

	return &body, nil
}
