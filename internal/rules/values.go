package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	sizeValueRE = regexp.MustCompile(`^(\d+)([KM])$`)
	ageValueRE  = regexp.MustCompile(`^(\d+)([dmy])$`)
)

// ParseSizeValue validates a message_size value ("500K", "5M") and returns
// the size in bytes. Bare numbers without a suffix are rejected.
func ParseSizeValue(v string) (int64, error) {
	m := sizeValueRE.FindStringSubmatch(v)
	if m == nil {
		return 0, fmt.Errorf("invalid size value %q — expected <N>K or <N>M", v)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", v, err)
	}
	switch m[2] {
	case "K":
		return n * 1024, nil
	case "M":
		return n * 1024 * 1024, nil
	}
	return 0, fmt.Errorf("invalid size suffix in %q", v)
}

// ParseAgeValue validates a date_age value ("7d", "2m", "1y") and returns
// the equivalent duration. Months count as 30 days and years as 365.
func ParseAgeValue(v string) (time.Duration, error) {
	m := ageValueRE.FindStringSubmatch(v)
	if m == nil {
		return 0, fmt.Errorf("invalid age value %q — expected <N>d, <N>m, or <N>y", v)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid age value %q: %w", v, err)
	}
	day := 24 * time.Hour
	switch m[2] {
	case "d":
		return time.Duration(n) * day, nil
	case "m":
		return time.Duration(n) * 30 * day, nil
	case "y":
		return time.Duration(n) * 365 * day, nil
	}
	return 0, fmt.Errorf("invalid age suffix in %q", v)
}
