package util

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	lookbackFull = regexp.MustCompile(`^(\d+[hdwmy])+$`)
	lookbackPart = regexp.MustCompile(`(\d+)([hdwmy])`)
)

// ParseLookback parses look-back windows such as 12h, 7d, 2w, 1m or 1d12h.
// Months count as 30 days and years as 365. Empty means no limit.
func ParseLookback(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if !lookbackFull.MatchString(s) {
		return 0, fmt.Errorf("invalid duration format: %s (e.g. 12h, 7d, 2w, 1m, 1d12h)", s)
	}

	var total time.Duration
	for _, match := range lookbackPart.FindAllStringSubmatch(s, -1) {
		value, err := strconv.Atoi(match[1])
		if err != nil {
			return 0, fmt.Errorf("invalid number in duration: %s", match[1])
		}

		switch match[2] {
		case "h":
			total += time.Duration(value) * time.Hour
		case "d":
			total += time.Duration(value) * 24 * time.Hour
		case "w":
			total += time.Duration(value) * 7 * 24 * time.Hour
		case "m":
			total += time.Duration(value) * 30 * 24 * time.Hour
		case "y":
			total += time.Duration(value) * 365 * 24 * time.Hour
		}
	}
	return total, nil
}
