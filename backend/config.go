package backend

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultEndpoint     = "http://localhost:8000/query"
	DefaultTimeout      = 50 * time.Second
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second
)

// Config describes how to reach the answering backend and how hard to try.
type Config struct {
	// Endpoint is the absolute URL queries are POSTed to.
	Endpoint string `mapstructure:"endpoint"`

	// Timeout bounds a single attempt, not the whole call.
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxAttempts includes the first attempt.
	MaxAttempts int `mapstructure:"max_attempts"`

	// InitialDelay is the wait after the first failed attempt; it doubles after each further failure.
	InitialDelay time.Duration `mapstructure:"initial_delay"`

	// MaxDelay caps the backoff wait. Zero means uncapped.
	MaxDelay time.Duration `mapstructure:"max_delay"`

	UserAgent string `mapstructure:"user_agent"`
}

func DefaultConfig() Config {
	return Config{
		Endpoint:     DefaultEndpoint,
		Timeout:      DefaultTimeout,
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		UserAgent:    "search-assistant",
	}
}

func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("backend endpoint is required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid backend endpoint %q: %w", c.Endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend endpoint %q must be an absolute http(s) url", c.Endpoint)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("backend max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.InitialDelay < 0 || c.MaxDelay < 0 {
		return errors.New("backend retry delays cannot be negative")
	}
	return nil
}

// Backoff returns a fresh exponential policy described by the config. Policies are stateful,
// so every call to the backend gets its own.
func (c Config) Backoff() backoff.BackOff {
	return exponential(c.InitialDelay, c.MaxDelay)
}
