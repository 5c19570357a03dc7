package repository

import "time"

// Interval represents a bar resolution the warehouse understands.
type Interval string

const (
	IV5m  Interval = "5min"
	IV15m Interval = "15min"
)

// IsValidInterval returns true if iv is a supported bar resolution.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case IV5m, IV15m:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the warehouse's canonical resolution.
func DefaultInterval() Interval { return IV15m }

// NormalizeInterval converts a raw string to a valid interval (or default).
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

// Duration returns the wall-clock width of the interval.
func (iv Interval) Duration() time.Duration {
	switch iv {
	case IV5m:
		return 5 * time.Minute
	case IV15m:
		return 15 * time.Minute
	default:
		return 15 * time.Minute
	}
}
