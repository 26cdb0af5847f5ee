package utils

import (
	"time"
)

// MetricWindow returns the [start, end] range covering the last days,
// with end aligned down to the sampling period boundary
func MetricWindow(now time.Time, days int, period time.Duration) (time.Time, time.Time) {
	end := now.UTC()
	if period > 0 {
		end = end.Truncate(period)
	}
	start := end.AddDate(0, 0, -days)
	return start, end
}

// DateStamp returns the YYYY-MM-DD form of t in UTC
func DateStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// GetMonthlyHours returns the number of hours in a month (approximation)
func GetMonthlyHours() float64 {
	return 730.0 // 365 days / 12 months * 24 hours
}
