package tracker

import (
	"math"
	"slices"
)

// OpenEnd closes an interval whose entity was still present at the end of the data.
const OpenEnd MinuteTimestamp = math.MaxUint64

// Interval is a half-open span [Start, End) of continuous presence.
type Interval struct {
	Start MinuteTimestamp `json:"start"`
	End   MinuteTimestamp `json:"end"`
}

// Open reports whether the interval runs to the end of the data.
func (iv Interval) Open() bool {
	return iv.End == OpenEnd
}

// Minutes returns the length of a closed interval, or the length up to
// until for an open one.
func (iv Interval) Minutes(until MinuteTimestamp) uint64 {
	end := iv.End
	if iv.Open() {
		end = until
	}
	if end <= iv.Start {
		return 0
	}
	return uint64(end - iv.Start)
}

// presence tracks the single open interval while walking minutes in order.
type presence struct {
	out   []Interval
	start MinuteTimestamp
	open  bool
}

func (p *presence) join(m MinuteTimestamp) {
	if p.open {
		return
	}
	p.start, p.open = m, true
}

func (p *presence) leave(m MinuteTimestamp) {
	if !p.open {
		return
	}
	if m > p.start {
		p.out = append(p.out, Interval{Start: p.start, End: m})
	}
	p.open = false
}

// ExtractPresence returns the intervals during which entity was present, in
// time order. Gaps in the data (missing hours or untracked minutes) end an
// interval; an interval still open after the last hour ends at OpenEnd.
func ExtractPresence(hours []Hour, entity int) []Interval {
	p := &presence{out: []Interval{}}
	if len(hours) == 0 {
		return p.out
	}

	byID, lo, hi := hourRange(hours)
	for t := lo; ; t++ {
		h := byID[t]
		for m := 0; m < MinutesPerHour; m++ {
			ts := t.Minute(m)
			if !h.Tracked(m) {
				p.leave(ts)
				continue
			}
			rec, ok := h.Deltas.At(m)
			if !ok {
				continue
			}
			switch r := rec.(type) {
			case Snapshot:
				if slices.Contains(r.All, entity) {
					p.join(ts)
				} else {
					p.leave(ts)
				}
			case Delta:
				if slices.Contains(r.Left, entity) {
					p.leave(ts)
				}
				if slices.Contains(r.Joined, entity) {
					p.join(ts)
				}
			}
		}
		if t == hi {
			break
		}
	}
	p.leave(OpenEnd)
	return p.out
}

// Bounded replaces OpenEnd with until, for callers that need a finite span.
// An open interval starting at or after until is dropped.
func Bounded(ivs []Interval, until MinuteTimestamp) []Interval {
	out := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if iv.Open() {
			if until <= iv.Start {
				continue
			}
			iv.End = until
		}
		out = append(out, iv)
	}
	return out
}

// Clip restricts intervals to the minutes [from, to]. An interval still
// open past to stays open; anything outside the range is dropped.
func Clip(ivs []Interval, from, to MinuteTimestamp) []Interval {
	out := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if iv.Start > to || iv.End <= from {
			continue
		}
		iv.Start = max(iv.Start, from)
		if !iv.Open() && iv.End > to+1 {
			iv.End = to + 1
		}
		out = append(out, iv)
	}
	return out
}
