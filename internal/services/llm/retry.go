package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryConfig defines retry behaviour for provider API calls.
// Rate limit errors wait for the quota window; other errors back off linearly.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 5)
	MaxRetries int

	// InitialBackoff is the wait before the first rate-limited retry (default: 45s)
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between retries (default: 90s)
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to rate limit backoff on each retry (default: 1.5)
	BackoffMultiplier float64

	// ErrorBackoff is the per-attempt step for non rate limit errors (default: 2s)
	ErrorBackoff time.Duration
}

const (
	DefaultMaxRetries        = 5
	DefaultInitialBackoff    = 45 * time.Second
	DefaultMaxBackoff        = 90 * time.Second
	DefaultBackoffMultiplier = 1.5
	DefaultErrorBackoff      = 2 * time.Second
)

// NewDefaultRetryConfig returns a RetryConfig tuned for Gemini and Claude quota windows
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
		ErrorBackoff:      DefaultErrorBackoff,
	}
}

// IsRateLimitError checks for 429 status codes and RESOURCE_EXHAUSTED errors
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from an error.
// Returns 0 if no delay is found.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the rate limit backoff for a given attempt.
// A positive apiDelay (plus a 5s buffer) replaces InitialBackoff as the base.
func (c *RetryConfig) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay + 5*time.Second
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}

func (c *RetryConfig) backoffFor(attempt int, err error) time.Duration {
	if IsRateLimitError(err) {
		return c.CalculateBackoff(attempt, ExtractRetryDelay(err))
	}
	backoff := time.Duration(attempt+1) * c.ErrorBackoff
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}

// Do runs call until it succeeds, retries are exhausted or ctx is done
func (c *RetryConfig) Do(ctx context.Context, logger arbor.ILogger, provider string, call func() error) error {
	var err error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if err = call(); err == nil {
			return nil
		}
		if attempt == c.MaxRetries {
			break
		}

		backoff := c.backoffFor(attempt, err)
		logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg(fmt.Sprintf("Retrying %s API call", provider))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("%s API call failed after %d retries: %w", provider, c.MaxRetries, err)
}
