package repository

import "time"

// Interval represents an analysis bucketing resolution.
type Interval string

const (
	Interval1h Interval = "1h"
	Interval4h Interval = "4h"
	Interval1d Interval = "1d"
)

// Duration returns the bucket width of the interval.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1h:
		return time.Hour
	case Interval4h:
		return 4 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// IsValidInterval returns true if iv is a supported interval.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case Interval1h, Interval4h, Interval1d:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the default analysis interval.
func DefaultInterval() Interval { return Interval1d }

// NormalizeInterval converts raw string to a valid interval (or default).
func NormalizeInterval(s string) Interval {
	if s == "" {
		return DefaultInterval()
	}
	iv := Interval(s)
	if IsValidInterval(iv) {
		return iv
	}
	return DefaultInterval()
}
