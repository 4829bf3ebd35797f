package config

import "time"

// duration parses a config duration string, falling back when the value is
// empty or malformed. Validation already warned on malformed values; runtime
// behavior stays sane either way.
func duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetPollInterval returns the snapshot cycle interval.
func (c CaptureConfig) GetPollInterval() time.Duration {
	return duration(c.PollInterval, 5*time.Minute)
}

// GetSettleDelay returns the wait between capture trigger and download.
func (c CaptureConfig) GetSettleDelay() time.Duration {
	return duration(c.SettleDelay, 12*time.Second)
}

// GetRetryDelay returns the wait between snapshot attempts.
func (c CaptureConfig) GetRetryDelay() time.Duration {
	return duration(c.RetryDelay, 5*time.Second)
}

// GetDuplicateCutoff returns the recency window for duplicate comparison.
func (c CaptureConfig) GetDuplicateCutoff() time.Duration {
	return duration(c.DuplicateCutoff, 60*time.Second)
}
