package util

import "time"

const (
	// DateTimeMinuteLayout matches the value of an HTML datetime-local input.
	DateTimeMinuteLayout = "2006-01-02T15:04"
	// ISOMillisLayout mirrors JavaScript's Date.toISOString output.
	ISOMillisLayout = "2006-01-02T15:04:05.000Z07:00"
)

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ISOTimestamp formats t in UTC with millisecond precision.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format(ISOMillisLayout)
}
