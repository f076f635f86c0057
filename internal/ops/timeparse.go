package ops

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/statustracker/internal/errors"
)

// DefaultLookback is the range front doors query when no from is given.
const DefaultLookback = 24 * time.Hour

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime reads a time bound as typed by a user:
// - RFC3339, "2006-01-02T15:04", "2006-01-02 15:04" or "2006-01-02" (UTC)
// - a unix timestamp in seconds
// - a duration relative to now, e.g. "-6h" or "90m" (both mean the past)
// - "now"
// Empty input returns the zero time.
func ParseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return time.Time{}, nil
	case "now":
		return now.UTC(), nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	if d, err := time.ParseDuration(strings.TrimPrefix(s, "-")); err == nil {
		return now.Add(-d).UTC(), nil
	}
	return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("cannot parse time %q", s))
}

// ResolveRange parses from/to with defaults: to defaults to now and from to
// DefaultLookback before to.
func ResolveRange(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	to, err := ParseTime(toStr, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.IsZero() {
		to = now.UTC()
	}
	from, err := ParseTime(fromStr, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.IsZero() {
		from = to.Add(-DefaultLookback)
	}
	return from, to, nil
}
