package models

import (
	"fmt"
	"strings"
	"time"
)

var salesDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// ParseSalesDate parses the date formats found in sales exports
func ParseSalesDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	var isoErr error
	for i, layout := range salesDateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		if i == 0 {
			isoErr = err
		}
	}
	return time.Time{}, fmt.Errorf("%w (accepted layouts: %s)", isoErr, strings.Join(salesDateLayouts, ", "))
}

// DayOfWeek numbers weekdays Monday=0 through Sunday=6
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsWeekend reports whether a Monday-based day number is Saturday or Sunday
func IsWeekend(dayOfWeek int) bool {
	return dayOfWeek == 5 || dayOfWeek == 6
}
