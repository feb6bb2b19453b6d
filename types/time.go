package types

import (
	"regexp"
	"time"
)

// Log timestamps look like 2025-03-17T23:28:59.974405Z. The trailing Z is a
// literal in the reth output: values are naive UTC, never offset-shifted, so
// we strip it and parse in UTC rather than treating it as a zone designator.
const timestampLayout = "2006-01-02T15:04:05"

var timestampPattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z)`)

// ParseTimestamp parses a log timestamp with fractional seconds.
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) > 0 && s[len(s)-1] == 'Z' {
		s = s[:len(s)-1]
	}
	return time.ParseInLocation(timestampLayout, s, time.UTC)
}

// FormatTimestamp renders t back in the log's own format, microsecond
// precision.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000") + "Z"
}

// TimestampFromLine scans an arbitrary line for an embedded log timestamp.
// Safe to call on pasted text that is not a log line at all.
func TimestampFromLine(line string) (time.Time, bool) {
	m := timestampPattern.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, false
	}
	t, err := ParseTimestamp(m[1])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseElapsed parses a reth duration literal such as "24.737359ms",
// "1.2s" or "850µs".
func ParseElapsed(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

// Milliseconds returns d as fractional milliseconds, the unit every chart
// and table in the tool reports in.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
