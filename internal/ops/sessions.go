package ops

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hpungsan/statustracker/internal/errors"
	"github.com/hpungsan/statustracker/internal/tracker"
)

// SessionsInput contains parameters for the PlayerSessions operation.
type SessionsInput struct {
	Name       string
	From       time.Time
	To         time.Time
	ServerSide bool // let the server compute intervals via /player/<name>
	MaxRange   uint64
}

// SessionsOutput contains a player's presence intervals within the range.
type SessionsOutput struct {
	Name         string               `json:"name"`
	UUID         string               `json:"uuid,omitempty"`
	Index        *int                 `json:"index,omitempty"`
	Range        TimeRange            `json:"range"`
	Intervals    []tracker.Interval   `json:"intervals"`
	TotalMinutes uint64               `json:"total_minutes"`
	Online       bool                 `json:"online"` // last interval is still open
	Diagnostic   *errors.TrackerError `json:"diagnostic,omitempty"`
}

// PlayerSessions returns the intervals during which name was present.
// An unknown name or untracked player yields an empty list with a
// Diagnostic; only invalid input is returned as an error.
func PlayerSessions(ctx context.Context, src Source, input SessionsInput) (*SessionsOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	r, err := ValidateRange(input.From, input.To, input.MaxRange)
	if err != nil {
		return nil, err
	}

	out := &SessionsOutput{Name: name, Range: r, Intervals: []tracker.Interval{}}
	logger := slog.With("player", name)

	if input.ServerSide {
		ivs := src.PlayerIntervals(ctx, name, r.From, r.To)
		if ivs == nil {
			out.Diagnostic = errors.NewNoData("/player")
			logger.Info("no server-side sessions")
			return out, nil
		}
		out.Intervals = ivs
		out.finish(r)
		return out, nil
	}

	id, ok := src.PlayerUUID(ctx, name)
	if !ok {
		out.Diagnostic = errors.NewEntityNotFound(name, "no uuid for name")
		logger.Info("player not found", "reason", "uuid")
		return out, nil
	}
	out.UUID = id

	nm := src.NameMap(ctx)
	idx, ok := nm.Index(id)
	if !ok {
		reason := "not tracked"
		if nm == nil {
			reason = "name map unavailable"
		}
		out.Diagnostic = errors.NewEntityNotFound(name, reason)
		logger.Info("player not found", "reason", reason, "uuid", id)
		return out, nil
	}
	out.Index = &idx

	fromHour, toHour := r.Hours()
	hours := src.Hours(ctx, fromHour, toHour)
	out.Intervals = tracker.Clip(tracker.ExtractPresence(hours, idx), r.From, r.To)
	out.finish(r)
	return out, nil
}

func (o *SessionsOutput) finish(r TimeRange) {
	o.TotalMinutes = 0
	for _, iv := range o.Intervals {
		o.TotalMinutes += iv.Minutes(r.To + 1)
	}
	if n := len(o.Intervals); n > 0 {
		o.Online = o.Intervals[n-1].Open()
	}
}
