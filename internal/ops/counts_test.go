package ops

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/statustracker/internal/errors"
	"github.com/hpungsan/statustracker/internal/tracker"
)

func TestCounts_SlicesToRange(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	src := &fakeSource{hours: []tracker.Hour{
		fullHour(h, map[int]tracker.MinuteRecord{
			0: tracker.Snapshot{All: []int{0, 1, 2}},
			5: tracker.Delta{Joined: []int{3}},
		}),
	}}

	out, err := Counts(context.Background(), src, CountsInput{From: minute(h, 3), To: minute(h, 7)})
	require.NoError(t, err)
	require.Equal(t, [2]tracker.HourTimestamp{h, h}, src.hourCall)
	require.Equal(t, 1, out.HoursFetched)
	require.Equal(t, 5, out.Series.Len())

	all, ok := out.Series.Column(tracker.Raw, tracker.CategoryAll)
	require.True(t, ok)
	require.Equal(t, tracker.Values{3, 3, 4, 4, 4}, all)
}

func TestCounts_SmoothsBeforeTrimming(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	src := &fakeSource{hours: []tracker.Hour{
		fullHour(h, map[int]tracker.MinuteRecord{
			0:  tracker.Snapshot{All: []int{}},
			30: tracker.Snapshot{All: []int{0, 1, 2, 3, 4, 5}},
		}),
	}}

	out, err := Counts(context.Background(), src, CountsInput{
		From:      minute(h, 30),
		To:        minute(h, 30),
		Smoothing: []string{"60"},
	})
	require.NoError(t, err)

	// Output is trimmed to the requested minutes, not the fetched hour
	require.Equal(t, []tracker.MinuteTimestamp{h.Minute(30)}, out.Series.X)

	raw, _ := out.Series.Column(tracker.Raw, tracker.CategoryAll)
	require.Equal(t, tracker.Values{6}, raw)

	// The hour's first half (zeros) still feeds the smoothed value
	smoothed, _ := out.Series.Column(tracker.OneHour, tracker.CategoryAll)
	require.Len(t, smoothed, 1)
	require.InDelta(t, 3, smoothed[0], 1e-9)
}

func TestCounts_EmptyServerGivesEmptySeries(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	for name, src := range map[string]*fakeSource{
		"empty set": {hours: []tracker.Hour{}},
		"no data":   {},
	} {
		t.Run(name, func(t *testing.T) {
			out, err := Counts(context.Background(), src, CountsInput{From: minute(h, 0), To: minute(h+3, 0)})
			require.NoError(t, err)
			require.Zero(t, out.Series.Len())
			require.Zero(t, out.HoursFetched)
		})
	}
}

func TestCounts_CategoryFilterAndSmoothing(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	src := &fakeSource{hours: []tracker.Hour{
		fullHour(h, map[int]tracker.MinuteRecord{
			0: tracker.Snapshot{
				All:        []int{0, 1, 2},
				Categories: map[tracker.Category][]int{"Staff": {0}, "Guests": {1, 2}},
			},
		}),
	}}

	out, err := Counts(context.Background(), src, CountsInput{
		From:       minute(h, 0),
		To:         minute(h, 59),
		Categories: []string{"Staff"},
		Smoothing:  []string{"60"},
	})
	require.NoError(t, err)
	require.Equal(t, []tracker.Category{tracker.CategoryAll, "Staff"}, out.Series.Categories(tracker.Raw))
	require.Equal(t, []tracker.RollingAverage{tracker.Raw, tracker.OneHour}, out.Series.Windows())

	smoothed, ok := out.Series.Column(tracker.OneHour, "Staff")
	require.True(t, ok)
	for _, v := range smoothed {
		require.InDelta(t, 1, v, 1e-9)
	}
}

func TestCounts_InvalidInput(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	tests := []struct {
		name  string
		input CountsInput
	}{
		{"reversed range", CountsInput{From: minute(h, 10), To: minute(h, 0)}},
		{"reserved category", CountsInput{From: minute(h, 0), To: minute(h, 1), Categories: []string{"all"}}},
		{"bad window", CountsInput{From: minute(h, 0), To: minute(h, 1), Smoothing: []string{"fortnight"}}},
		{"too long", CountsInput{From: minute(h, 0), To: minute(h+2, 0), MaxRange: 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Counts(context.Background(), &fakeSource{}, tt.input)
			require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
		})
	}
}

func TestRollingCounts_MergesWindows(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	src := &fakeSource{rolling: map[tracker.RollingAverage][]*tracker.RollingAvgRecord{
		tracker.Raw:     {{All: 2}, {All: 3}, nil},
		tracker.OneHour: {{All: 2.5, Categories: map[tracker.Category]float64{"Staff": 0.5}}, nil, {All: 2}},
	}}

	out, err := RollingCounts(context.Background(), src, RollingInput{
		From:    minute(h, 0),
		To:      minute(h, 2),
		Windows: []string{"0", "1 hour", "1 day"},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []tracker.RollingAverage{tracker.Raw, tracker.OneHour, tracker.OneDay}, src.windows)
	require.Equal(t, []tracker.RollingAverage{tracker.OneDay}, out.Missing)
	require.Equal(t, []tracker.RollingAverage{tracker.Raw, tracker.OneHour}, out.Series.Windows())
	require.Equal(t, h.Minute(0), out.Series.X[0])

	raw, _ := out.Series.Column(tracker.Raw, tracker.CategoryAll)
	require.Equal(t, 2.0, raw[0])
	require.True(t, math.IsNaN(raw[2]))

	staff, _ := out.Series.Column(tracker.OneHour, "Staff")
	require.Equal(t, 0.5, staff[0])
	require.True(t, math.IsNaN(staff[1]))
	require.Equal(t, 0.0, staff[2])
}

func TestRollingCounts_DefaultsToRaw(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	src := &fakeSource{}
	out, err := RollingCounts(context.Background(), src, RollingInput{From: minute(h, 0), To: minute(h, 10)})
	require.NoError(t, err)
	require.Equal(t, []tracker.RollingAverage{tracker.Raw}, src.windows)
	require.Equal(t, []tracker.RollingAverage{tracker.Raw}, out.Missing)
	require.Zero(t, out.Series.Len())
}

func TestSummary(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	hour := fullHour(h, map[int]tracker.MinuteRecord{
		0:  tracker.Snapshot{All: []int{0, 1}, Categories: map[tracker.Category][]int{"Staff": {0}}},
		10: tracker.Delta{Joined: []int{2, 3}},
		20: tracker.Delta{Left: []int{0, 1, 2}, LeftCategories: map[tracker.Category][]int{"Staff": {0}}},
	})
	hour.TrackedMins = tracker.BitField{}
	for m := 0; m < 30; m++ {
		hour.TrackedMins.TurnOn(m)
	}

	out, err := Summary(context.Background(), &fakeSource{hours: []tracker.Hour{hour}}, SummaryInput{
		From: minute(h, 0),
		To:   minute(h, 59),
	})
	require.NoError(t, err)
	require.InDelta(t, 0.5, out.Coverage, 1e-9)
	require.Len(t, out.Stats, 2)

	all := out.Stats[0]
	require.Equal(t, tracker.CategoryAll, all.Category)
	require.Equal(t, 30, all.TrackedMinutes)
	require.Equal(t, 1.0, all.Min)
	require.Equal(t, 4.0, all.Max)
	require.Equal(t, h.Minute(10), all.PeakAt)
	require.Equal(t, 1.0, all.Latest)
	require.InDelta(t, (10*2.0+10*4.0+10*1.0)/30, all.Mean, 1e-9)

	staff := out.Stats[1]
	require.Equal(t, tracker.Category("Staff"), staff.Category)
	require.Equal(t, 0.0, staff.Latest)

	require.Contains(t, out.Markdown, "| all | 1 | 4 |")
	require.Contains(t, out.Markdown, "Tracked 50.0% of the range.")
}

func TestSummary_NoData(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	out, err := Summary(context.Background(), &fakeSource{}, SummaryInput{From: minute(h, 0), To: minute(h, 5)})
	require.NoError(t, err)
	require.Empty(t, out.Stats)
	require.Contains(t, out.Markdown, "No tracked minutes")
}
