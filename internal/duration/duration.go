// Package duration parses the lookback shorthand accepted by time-travel
// flags such as ls --at: "12h", "7d", "4w", "3m". Months count as 30 days.
package duration

import (
	"fmt"
	"strconv"
	"time"
)

var units = map[byte]time.Duration{
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
	'm': 30 * 24 * time.Hour,
}

// Parse converts a lookback like "7d" into a time.Duration.
func Parse(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid lookback %q (use forms like 12h, 7d, 4w, 3m)", s)
	}
	unit, ok := units[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("invalid lookback unit %q (use h, d, w, or m)", string(s[len(s)-1]))
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid lookback %q (use forms like 12h, 7d, 4w, 3m)", s)
	}
	return time.Duration(n) * unit, nil
}
