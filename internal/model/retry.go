package model

import (
	"math"
	"time"
)

// RetryConfig defines retry behavior for upstream fetches.
type RetryConfig struct {
	MaxAttempts       int           `json:"max_attempts"`
	InitialDelay      time.Duration `json:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
	AttemptTimeout    time.Duration `json:"attempt_timeout"`
}

// DefaultFetchRetry is two attempts, a fixed 2s wait and a 4s timeout per attempt.
func DefaultFetchRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:       2,
		InitialDelay:      2 * time.Second,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 1,
		AttemptTimeout:    4 * time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (c RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := c.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}

	delay := time.Duration(float64(c.InitialDelay) * math.Pow(mult, float64(attempt-1)))
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}
