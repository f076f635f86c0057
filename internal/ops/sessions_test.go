package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/statustracker/internal/errors"
	"github.com/hpungsan/statustracker/internal/tracker"
)

const steveUUID = "0f2d4f9e-3c4b-4a0a-9b6e-1d2c3b4a5f60"

func sessionsSource(h tracker.HourTimestamp) *fakeSource {
	names := make(tracker.NameMap, 8)
	for i := range names {
		names[i] = "00000000-0000-4000-8000-00000000000" + string(rune('0'+i))
	}
	names[7] = steveUUID
	return &fakeSource{
		names: names,
		uuids: map[string]string{"Steve": steveUUID, "Ghost": "11111111-2222-4333-8444-555555555555"},
		hours: []tracker.Hour{fullHour(h, map[int]tracker.MinuteRecord{
			0:  tracker.Delta{Joined: []int{7}},
			30: tracker.Delta{Left: []int{7}},
			40: tracker.Delta{Joined: []int{7}},
		})},
	}
}

func TestPlayerSessions_ClientSide(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	out, err := PlayerSessions(context.Background(), sessionsSource(h), SessionsInput{
		Name: "Steve",
		From: minute(h, 0),
		To:   minute(h, 59),
	})
	require.NoError(t, err)
	require.Nil(t, out.Diagnostic)
	require.Equal(t, steveUUID, out.UUID)
	require.NotNil(t, out.Index)
	require.Equal(t, 7, *out.Index)
	require.Equal(t, []tracker.Interval{
		{Start: h.Minute(0), End: h.Minute(30)},
		{Start: h.Minute(40), End: tracker.OpenEnd},
	}, out.Intervals)
	require.True(t, out.Online)
	require.Equal(t, uint64(30+20), out.TotalMinutes)
}

func TestPlayerSessions_ClippedToRange(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	out, err := PlayerSessions(context.Background(), sessionsSource(h), SessionsInput{
		Name: "Steve",
		From: minute(h, 10),
		To:   minute(h, 35),
	})
	require.NoError(t, err)
	require.Equal(t, []tracker.Interval{{Start: h.Minute(10), End: h.Minute(30)}}, out.Intervals)
	require.False(t, out.Online)
	require.Equal(t, uint64(20), out.TotalMinutes)
}

func TestPlayerSessions_NotFound(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	tests := []struct {
		name   string
		player string
		mutate func(*fakeSource)
		reason string
	}{
		{"unknown name", "Nobody", nil, "no uuid for name"},
		{"uuid not in name map", "Ghost", nil, "not tracked"},
		{"name map unavailable", "Steve", func(f *fakeSource) { f.names = nil }, "name map unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sessionsSource(h)
			if tt.mutate != nil {
				tt.mutate(src)
			}
			out, err := PlayerSessions(context.Background(), src, SessionsInput{
				Name: tt.player,
				From: minute(h, 0),
				To:   minute(h, 59),
			})
			require.NoError(t, err)
			require.NotNil(t, out.Intervals)
			require.Empty(t, out.Intervals)
			require.NotNil(t, out.Diagnostic)
			require.Equal(t, errors.ErrEntityNotFound, out.Diagnostic.Code)
			require.Equal(t, tt.reason, out.Diagnostic.Details["reason"])
		})
	}
}

func TestPlayerSessions_ServerSide(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	src := &fakeSource{intervals: map[string][]tracker.Interval{
		"Steve": {{Start: h.Minute(0), End: h.Minute(30)}},
	}}

	out, err := PlayerSessions(context.Background(), src, SessionsInput{
		Name:       "Steve",
		From:       minute(h, 0),
		To:         minute(h, 59),
		ServerSide: true,
	})
	require.NoError(t, err)
	require.Nil(t, out.Diagnostic)
	require.Equal(t, uint64(30), out.TotalMinutes)

	out, err = PlayerSessions(context.Background(), src, SessionsInput{
		Name:       "Alex",
		From:       minute(h, 0),
		To:         minute(h, 59),
		ServerSide: true,
	})
	require.NoError(t, err)
	require.Empty(t, out.Intervals)
	require.Equal(t, errors.ErrNoData, out.Diagnostic.Code)
}

func TestPlayerSessions_InvalidInput(t *testing.T) {
	const h tracker.HourTimestamp = 470000
	_, err := PlayerSessions(context.Background(), &fakeSource{}, SessionsInput{From: minute(h, 0), To: minute(h, 1)})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = PlayerSessions(context.Background(), &fakeSource{}, SessionsInput{Name: "Steve", From: minute(h, 1), To: minute(h, 0)})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
