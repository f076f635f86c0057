package tracker

import (
	"log/slog"
	"math"
)

// ReconstructOptions restricts the categories emitted by Reconstruct.
// An empty filter emits "all" plus every category encountered.
type ReconstructOptions struct {
	Categories []Category
}

// builder accumulates a dense series one minute at a time, discovering
// categories lazily.
type builder struct {
	x       []MinuteTimestamp
	tracked []bool
	totals  map[Category]float64
	cols    map[Category]Values
}

func newBuilder() *builder {
	b := &builder{
		x:       []MinuteTimestamp{},
		tracked: []bool{},
		totals:  map[Category]float64{},
		cols:    map[Category]Values{},
	}
	b.ensure(CategoryAll)
	return b
}

// ensure starts tracking c, backfilling already-emitted minutes with NaN
// where the minute was untracked and 0 otherwise.
func (b *builder) ensure(c Category) {
	if _, ok := b.cols[c]; ok {
		return
	}
	col := make(Values, len(b.x))
	for i, t := range b.tracked {
		if !t {
			col[i] = math.NaN()
		}
	}
	b.cols[c] = col
	b.totals[c] = 0
}

// emit appends one minute. Untracked minutes get NaN in every column.
func (b *builder) emit(m MinuteTimestamp, tracked bool) {
	b.x = append(b.x, m)
	b.tracked = append(b.tracked, tracked)
	for c, col := range b.cols {
		v := math.NaN()
		if tracked {
			v = b.totals[c]
		}
		b.cols[c] = append(col, v)
	}
}

// reserved reports a server category that would shadow the aggregate.
func reserved(c Category) bool {
	if c != CategoryAll {
		return false
	}
	slog.Warn("ignoring server category with reserved name", "category", c)
	return true
}

func (b *builder) applySnapshot(s Snapshot) {
	for c := range b.totals {
		b.totals[c] = 0
	}
	b.totals[CategoryAll] = float64(len(s.All))
	for c, ids := range s.Categories {
		if reserved(c) {
			continue
		}
		b.ensure(c)
		b.totals[c] = float64(len(ids))
	}
}

func (b *builder) applyDelta(d Delta) {
	b.totals[CategoryAll] += float64(len(d.Joined) - len(d.Left))
	for c, ids := range d.JoinedCategories {
		if reserved(c) {
			continue
		}
		b.ensure(c)
		b.totals[c] += float64(len(ids))
	}
	for c, ids := range d.LeftCategories {
		if reserved(c) {
			continue
		}
		b.ensure(c)
		b.totals[c] -= float64(len(ids))
	}
}

func (b *builder) series(w RollingAverage, filter []Category) *Series {
	cols := b.cols
	if len(filter) > 0 {
		for _, c := range filter {
			b.ensure(c)
		}
		cols = make(map[Category]Values, len(filter))
		for _, c := range filter {
			cols[c] = b.cols[c]
		}
	}
	return &Series{
		X: b.x,
		Y: map[RollingAverage]map[Category]Values{w: cols},
	}
}

// hourRange indexes hours by id and returns the smallest and largest id present.
func hourRange(hours []Hour) (map[HourTimestamp]*Hour, HourTimestamp, HourTimestamp) {
	byID := make(map[HourTimestamp]*Hour, len(hours))
	var lo, hi HourTimestamp
	for i := range hours {
		h := &hours[i]
		if len(byID) == 0 || h.ID < lo {
			lo = h.ID
		}
		if len(byID) == 0 || h.ID > hi {
			hi = h.ID
		}
		byID[h.ID] = h
	}
	return byID, lo, hi
}

// Reconstruct replays sparse hour records into a dense per-minute series
// stored under the Raw window. The range covers the smallest through the
// largest hour present in hours, not the requested bounds; with no hours the
// series is empty.
//
// Totals are never clamped, so a malformed delta stream shows up as a
// negative count.
func Reconstruct(hours []Hour, opts ReconstructOptions) *Series {
	b := newBuilder()
	if len(hours) == 0 {
		return b.series(Raw, opts.Categories)
	}

	byID, lo, hi := hourRange(hours)
	for t := lo; ; t++ {
		h := byID[t]
		for m := 0; m < MinutesPerHour; m++ {
			ts := t.Minute(m)
			if !h.Tracked(m) {
				b.emit(ts, false)
				continue
			}
			if rec, ok := h.Deltas.At(m); ok {
				switch r := rec.(type) {
				case Snapshot:
					b.applySnapshot(r)
				case Delta:
					b.applyDelta(r)
				}
			}
			b.emit(ts, true)
		}
		if t == hi {
			break
		}
	}
	return b.series(Raw, opts.Categories)
}
