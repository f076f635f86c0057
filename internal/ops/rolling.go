package ops

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/statustracker/internal/errors"
	"github.com/hpungsan/statustracker/internal/tracker"
)

// RollingInput contains parameters for the RollingCounts operation.
type RollingInput struct {
	From       time.Time
	To         time.Time
	Windows    []string // window names or minutes; empty → raw only
	Categories []string
	MaxRange   uint64
}

// RollingOutput contains the server-aggregated series, one key per window.
type RollingOutput struct {
	Range   TimeRange                `json:"range"`
	Windows []tracker.RollingAverage `json:"windows"`
	Missing []tracker.RollingAverage `json:"missing,omitempty"` // windows the server returned nothing for
	Series  *tracker.Series          `json:"series"`
}

// RollingCounts fetches the server's rolling averages for each window in
// parallel and merges them into one series keyed by window.
func RollingCounts(ctx context.Context, src Source, input RollingInput) (*RollingOutput, error) {
	r, err := ValidateRange(input.From, input.To, input.MaxRange)
	if err != nil {
		return nil, err
	}
	cats, err := ParseCategories(input.Categories)
	if err != nil {
		return nil, err
	}
	windows, err := ParseWindows(input.Windows)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		windows = []tracker.RollingAverage{tracker.Raw}
	}

	parts := make([]*tracker.Series, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range windows {
		g.Go(func() error {
			recs := src.RollingAverage(gctx, r.From, r.To, w)
			if recs != nil {
				parts[i] = tracker.FromRollingAverage(r.From, w, recs)
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.NewInternal(err)
	}

	out := &RollingOutput{Range: r, Windows: windows}
	for i, p := range parts {
		if p == nil {
			out.Missing = append(out.Missing, windows[i])
			slog.Warn("no rolling average data", "window", windows[i].Label())
		}
	}
	out.Series = tracker.Merge(parts...).Only(cats)
	return out, nil
}
