package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// AlignRange truncates both ends of a time range to bucket boundaries.
// Buckets anchor on the UTC epoch, same as the analysis bucketing.
func AlignRange(from, to time.Time, interval time.Duration) (time.Time, time.Time) {
	if interval <= 0 {
		interval = time.Minute
	}
	return from.Truncate(interval), to.Truncate(interval)
}

// DaysBack returns the start of the window n days before now, bucket aligned.
func DaysBack(now time.Time, days int, interval time.Duration) time.Time {
	if days < 1 {
		days = 1
	}
	from := now.AddDate(0, 0, -days)
	from, _ = AlignRange(from, now, interval)
	return from
}
