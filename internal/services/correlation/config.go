package correlation

import "time"

// Config carries the bucketing and classification policy. Values flow
// from the service configuration; nothing here is a hidden constant.
type Config struct {
	BucketInterval   time.Duration
	MinSampleSize    int
	BullishThreshold float64
	BearishThreshold float64
}

// DefaultConfig returns the stock policy: daily buckets, at least five
// aligned pairs, trend thresholds at +0.3 and -0.3.
func DefaultConfig() Config {
	return Config{
		BucketInterval:   24 * time.Hour,
		MinSampleSize:    5,
		BullishThreshold: 0.3,
		BearishThreshold: -0.3,
	}
}

// Validate checks the policy invariants: positive interval, minimum
// sample size >= 1, finite thresholds with bearish < 0 < bullish,
// both inside [-1, 1].
func (c Config) Validate() error {
	if c.BucketInterval <= 0 {
		return invalidInput("bucket_interval", "must be positive, got %s", c.BucketInterval)
	}
	if c.MinSampleSize < 1 {
		return invalidInput("min_sample_size", "must be >= 1, got %d", c.MinSampleSize)
	}
	if !isFinite(c.BullishThreshold) || c.BullishThreshold <= 0 || c.BullishThreshold > 1 {
		return invalidInput("bullish_threshold", "must lie in (0, 1], got %v", c.BullishThreshold)
	}
	if !isFinite(c.BearishThreshold) || c.BearishThreshold >= 0 || c.BearishThreshold < -1 {
		return invalidInput("bearish_threshold", "must lie in [-1, 0), got %v", c.BearishThreshold)
	}
	return nil
}
