package crawler

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"net/http"
	"time"
)

// RetryConfig controls how the page fetcher reacts to the unavailable status.
type RetryConfig struct {
	// Status is the HTTP status that triggers a retry (default 503).
	Status int
	// MaxRetries caps the retries; 0 retries forever.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// RetryPolicy retries a single HTTP status with jittered exponential backoff.
type RetryPolicy struct {
	status     int
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetryPolicy builds a policy, filling zero values with defaults.
func NewRetryPolicy(cfg RetryConfig) *RetryPolicy {
	if cfg.Status == 0 {
		cfg.Status = http.StatusServiceUnavailable
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxDelay > 0 && cfg.BaseDelay > cfg.MaxDelay {
		cfg.BaseDelay = cfg.MaxDelay
	}
	return &RetryPolicy{
		status:     cfg.Status,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
	}
}

// ShouldRetry decides whether err warrants another attempt after `retries`
// retries have already been made.
func (p *RetryPolicy) ShouldRetry(err error, retries int) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if StatusCode(err) != p.status {
		return false
	}
	return p.maxRetries == 0 || retries < p.maxRetries
}

// Backoff returns the wait duration before retry number attempt (0-based).
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	if p.baseDelay <= 0 {
		return 0
	}
	delay := float64(p.baseDelay) * math.Pow(2, float64(min(attempt, 32)))
	if p.maxDelay > 0 && delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := p.randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

func (p *RetryPolicy) randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
