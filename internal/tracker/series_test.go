package tracker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeriesSlice(t *testing.T) {
	h := hourWith(0, map[int]MinuteRecord{0: Snapshot{All: []int{1, 2}}})
	s := Reconstruct([]Hour{h}, ReconstructOptions{})

	cut := s.Slice(10, 14)
	require.Equal(t, []MinuteTimestamp{10, 11, 12, 13, 14}, cut.X)
	require.Equal(t, Values{2, 2, 2, 2, 2}, allColumn(t, cut))

	cut.Y[Raw][CategoryAll][0] = 99
	require.Equal(t, 2.0, allColumn(t, s)[10], "slice must not alias the source")

	empty := s.Slice(100, 200)
	require.Empty(t, empty.X)
	require.Empty(t, allColumn(t, empty))
}

func TestSeriesOnly(t *testing.T) {
	s := FromRollingAverage(0, OneHour, []*RollingAvgRecord{
		{All: 3, Categories: map[Category]float64{"Staff": 1, "Guests": 2}},
		nil,
	})

	s.Only([]Category{"Staff", "Builders"})
	require.ElementsMatch(t, []Category{CategoryAll, "Staff", "Builders"}, s.Categories(OneHour))

	builders, ok := s.Column(OneHour, "Builders")
	require.True(t, ok)
	require.Equal(t, 0.0, builders[0])
	require.True(t, math.IsNaN(builders[1]))
}
