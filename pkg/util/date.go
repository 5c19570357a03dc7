package util

import (
    "strconv"
    "time"
)

// APITimeLayout is the timestamp format the market-data API uses.
const APITimeLayout = "2006-01-02 15:04:05"

// ParseTime tries the API layout, RFC3339, a bare date, and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(APITimeLayout, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse("2006-01-02", s); err == nil {
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

// NextGridTime returns the next wall-clock instant aligned to the interval
// grid after now (e.g. 10:07 with a 15m interval -> 10:15). Used to line the
// extract loop up with the candle boundaries the API publishes on.
func NextGridTime(now time.Time, interval time.Duration) time.Time {
    if interval <= 0 {
        interval = 15 * time.Minute
    }
    next := now.Truncate(interval).Add(interval)
    if !next.After(now) {
        next = next.Add(interval)
    }
    return next
}

// SessionDate strips the time-of-day, keeping the calendar date in t's location.
func SessionDate(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MinutesOfDay returns the time-of-day of t expressed as minutes past midnight.
func MinutesOfDay(t time.Time) int {
    return t.Hour()*60 + t.Minute()
}
