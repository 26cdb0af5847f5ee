package formatter

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// printTimestamp prints the scan timestamp and duration
func printTimestamp(w io.Writer, scanStartTime time.Time, scanDuration time.Duration) {
	timeStr := scanStartTime.Format("2006-01-02 15:04:05")
	durationStr := fmt.Sprintf("%.2fs", scanDuration.Seconds())

	fmt.Fprintf(w, "Scan completed at %s (took %s)\n", timeStr, durationStr)
}

// printSection prints a section header line centered in dashes
func printSection(w io.Writer, title string) {
	const width = 90
	pad := width - len(title)
	if pad < 2 {
		pad = 2
	}
	left := pad / 2
	fmt.Fprintf(w, "\n%s%s%s\n", dashes(left), title, dashes(pad-left))
}

func dashes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}

// formatNumber prints integral values without a fractional part
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
