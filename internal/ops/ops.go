package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/statustracker/internal/errors"
	"github.com/hpungsan/statustracker/internal/tracker"
)

// DefaultMaxRangeMinutes is the longest query the server accepts (five years).
const DefaultMaxRangeMinutes uint64 = 60 * 24 * 365 * 5

// Source is the remote data the operations read. *remote.Client satisfies it.
// Every method reports absence with its zero value rather than an error.
type Source interface {
	NameMap(ctx context.Context) tracker.NameMap
	Hours(ctx context.Context, from, to tracker.HourTimestamp) []tracker.Hour
	RollingAverage(ctx context.Context, from, to tracker.MinuteTimestamp, w tracker.RollingAverage) []*tracker.RollingAvgRecord
	PlayerUUID(ctx context.Context, name string) (string, bool)
	PlayerIntervals(ctx context.Context, name string, from, to tracker.MinuteTimestamp) []tracker.Interval
}

// TimeRange is a validated, inclusive minute range.
type TimeRange struct {
	From tracker.MinuteTimestamp `json:"from"`
	To   tracker.MinuteTimestamp `json:"to"`
}

// Hours returns the hours touched by the range.
func (r TimeRange) Hours() (tracker.HourTimestamp, tracker.HourTimestamp) {
	return r.From.Hour(), r.To.Hour()
}

// Minutes returns the number of minutes covered.
func (r TimeRange) Minutes() uint64 {
	return uint64(r.To-r.From) + 1
}

// ValidateRange converts from/to into a TimeRange.
// Rules:
// - Both bounds are required
// - from must not be after to
// - the span must not exceed maxMinutes (0 → DefaultMaxRangeMinutes)
func ValidateRange(from, to time.Time, maxMinutes uint64) (TimeRange, error) {
	if from.IsZero() || to.IsZero() {
		return TimeRange{}, errors.NewInvalidRequest("from and to are required")
	}
	if from.After(to) {
		return TimeRange{}, errors.NewInvalidRequest("from must not be after to")
	}
	if maxMinutes == 0 {
		maxMinutes = DefaultMaxRangeMinutes
	}

	r := TimeRange{From: tracker.MinuteOf(from), To: tracker.MinuteOf(to)}
	if span := uint64(r.To - r.From); span > maxMinutes {
		return TimeRange{}, errors.NewRangeTooLong(maxMinutes, span)
	}
	return r, nil
}

// ParseCategories trims, dedupes and validates a category filter.
// "all" is always reported, so listing it is rejected like any reserved name.
func ParseCategories(raw []string) ([]tracker.Category, error) {
	seen := make(map[tracker.Category]bool, len(raw))
	out := make([]tracker.Category, 0, len(raw))
	for _, s := range raw {
		c := tracker.Category(strings.TrimSpace(s))
		if c == "" || seen[c] {
			continue
		}
		if err := tracker.ValidateCategory(c); err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// ParseWindows parses window names or minute counts, preserving order and
// dropping duplicates.
func ParseWindows(raw []string) ([]tracker.RollingAverage, error) {
	seen := make(map[tracker.RollingAverage]bool, len(raw))
	out := make([]tracker.RollingAverage, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		w, err := tracker.ParseRollingAverage(s)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out, nil
}
