package resilience

import (
	"time"
)

// FromRetryConfig converts config values to a RetryConfig. Non-positive
// values keep the defaults; jitter outside (0, 1) means none.
func FromRetryConfig(maxAttempts, baseSleepMs, maxBackoffMs int, jitter float64) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if baseSleepMs > 0 {
		cfg.InitialBackoff = time.Duration(baseSleepMs) * time.Millisecond
	}
	if maxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(maxBackoffMs) * time.Millisecond
	}
	if jitter > 0 && jitter < 1 {
		cfg.JitterFraction = jitter
	}
	return cfg
}
