package ops

import (
	"context"
	"log/slog"
	"time"

	"github.com/hpungsan/statustracker/internal/tracker"
)

// CountsInput contains parameters for the Counts operation.
type CountsInput struct {
	From       time.Time
	To         time.Time
	Categories []string // empty: "all" plus every category seen
	Smoothing  []string // extra client-side windows derived from the raw series
	MaxRange   uint64   // minutes; 0 → DefaultMaxRangeMinutes
}

// CountsOutput contains the reconstructed per-minute series.
type CountsOutput struct {
	Range        TimeRange       `json:"range"`
	HoursFetched int             `json:"hours_fetched"`
	Series       *tracker.Series `json:"series"`
}

// Counts fetches the hour records covering the range and rebuilds the
// per-minute occupancy series from them. A server with no data yields an
// empty series, not an error.
func Counts(ctx context.Context, src Source, input CountsInput) (*CountsOutput, error) {
	r, err := ValidateRange(input.From, input.To, input.MaxRange)
	if err != nil {
		return nil, err
	}
	cats, err := ParseCategories(input.Categories)
	if err != nil {
		return nil, err
	}
	windows, err := ParseWindows(input.Smoothing)
	if err != nil {
		return nil, err
	}

	fromHour, toHour := r.Hours()
	hours := src.Hours(ctx, fromHour, toHour)
	if hours == nil {
		slog.Warn("no hour data", "from", fromHour, "to", toHour)
	}

	var filter []tracker.Category
	if len(cats) > 0 {
		filter = append([]tracker.Category{tracker.CategoryAll}, cats...)
	}
	series := tracker.Reconstruct(hours, tracker.ReconstructOptions{Categories: filter})
	// Smooth over every fetched minute, then trim to the requested minutes.
	series = series.WithSmoothing(windows...).Slice(r.From, r.To)

	return &CountsOutput{
		Range:        r,
		HoursFetched: len(hours),
		Series:       series,
	}, nil
}
