package ops

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hpungsan/statustracker/internal/tracker"
)

// SummaryInput contains parameters for the Summary operation.
type SummaryInput struct {
	From       time.Time
	To         time.Time
	Categories []string
	MaxRange   uint64
}

// CategoryStats describes one reconstructed column.
type CategoryStats struct {
	Category       tracker.Category        `json:"category"`
	TrackedMinutes int                     `json:"tracked_minutes"`
	Min            float64                 `json:"min"`
	Max            float64                 `json:"max"`
	Mean           float64                 `json:"mean"`
	Latest         float64                 `json:"latest"`
	PeakAt         tracker.MinuteTimestamp `json:"peak_at"`
}

// SummaryOutput contains per-category statistics and a markdown rendering.
type SummaryOutput struct {
	Range    TimeRange       `json:"range"`
	Coverage float64         `json:"coverage"` // tracked minutes / minutes in range
	Stats    []CategoryStats `json:"stats"`
	Markdown string          `json:"markdown"`
}

// Summary reconstructs the range and reduces every category column to its
// extremes, mean and latest value. Untracked minutes are ignored.
func Summary(ctx context.Context, src Source, input SummaryInput) (*SummaryOutput, error) {
	counts, err := Counts(ctx, src, CountsInput{
		From:       input.From,
		To:         input.To,
		Categories: input.Categories,
		MaxRange:   input.MaxRange,
	})
	if err != nil {
		return nil, err
	}

	return SummarizeCounts(counts), nil
}

// SummarizeCounts reduces an existing Counts result without refetching.
func SummarizeCounts(counts *CountsOutput) *SummaryOutput {
	s := counts.Series
	out := &SummaryOutput{Range: counts.Range, Stats: []CategoryStats{}}
	for _, c := range s.Categories(tracker.Raw) {
		col, _ := s.Column(tracker.Raw, c)
		if st, ok := columnStats(c, s.X, col); ok {
			out.Stats = append(out.Stats, st)
		}
	}
	if len(out.Stats) > 0 && out.Stats[0].Category == tracker.CategoryAll {
		out.Coverage = float64(out.Stats[0].TrackedMinutes) / float64(counts.Range.Minutes())
	}
	out.Markdown = summaryMarkdown(out)
	return out
}

func columnStats(c tracker.Category, x []tracker.MinuteTimestamp, col tracker.Values) (CategoryStats, bool) {
	st := CategoryStats{Category: c, Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		st.TrackedMinutes++
		sum += v
		st.Latest = v
		st.Min = min(st.Min, v)
		if v > st.Max {
			st.Max = v
			st.PeakAt = x[i]
		}
	}
	if st.TrackedMinutes == 0 {
		return CategoryStats{}, false
	}
	st.Mean = sum / float64(st.TrackedMinutes)
	return st, true
}

func summaryMarkdown(out *SummaryOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Occupancy %s to %s\n\n",
		out.Range.From.Time().Format(time.RFC3339), out.Range.To.Time().Format(time.RFC3339))

	if len(out.Stats) == 0 {
		b.WriteString("_No tracked minutes in this range._\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Tracked %.1f%% of the range.\n\n", out.Coverage*100)
	b.WriteString("| Category | Min | Max | Mean | Latest | Peak at |\n")
	b.WriteString("|---|---:|---:|---:|---:|---|\n")
	for _, st := range out.Stats {
		fmt.Fprintf(&b, "| %s | %g | %g | %.2f | %g | %s |\n",
			st.Category, st.Min, st.Max, st.Mean, st.Latest,
			st.PeakAt.Time().Format("2006-01-02 15:04"))
	}
	return b.String()
}
