package tracker

// FromRollingAverage reshapes pre-aggregated per-minute records into a series
// stored under window w. Record i covers minute from+i; a nil record marks a
// minute without data. Nothing is replayed: each record is already a total.
func FromRollingAverage(from MinuteTimestamp, w RollingAverage, records []*RollingAvgRecord) *Series {
	b := newBuilder()
	for i, rec := range records {
		if rec == nil {
			b.emit(from+MinuteTimestamp(i), false)
			continue
		}
		for c := range b.totals {
			b.totals[c] = 0
		}
		b.totals[CategoryAll] = rec.All
		for c, v := range rec.Categories {
			b.ensure(c)
			b.totals[c] = v
		}
		b.emit(from+MinuteTimestamp(i), true)
	}
	return b.series(w, nil)
}

// Merge combines series that share the same minute axis, keyed by window.
// Later windows replace earlier ones with the same key. The axis of the
// longest input wins; shorter columns are padded with NaN.
func Merge(parts ...*Series) *Series {
	out := emptySeries()
	for _, p := range parts {
		if p != nil && len(p.X) > len(out.X) {
			out.X = p.X
		}
	}
	for _, p := range parts {
		if p == nil {
			continue
		}
		for w, cols := range p.Y {
			padded := make(map[Category]Values, len(cols))
			for c, v := range cols {
				padded[c] = pad(v, len(out.X))
			}
			out.Y[w] = padded
		}
	}
	return out
}

func pad(v Values, n int) Values {
	if len(v) >= n {
		return v
	}
	out := make(Values, n)
	copy(out, v)
	for i := len(v); i < n; i++ {
		out[i] = nan
	}
	return out
}
