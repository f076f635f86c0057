package tracker

import (
	"bytes"
	"math"
	"sort"
	"strconv"
	"time"
)

// Values is one per-minute count column. NaN marks minutes without data and
// is encoded as null in JSON.
type Values []float64

// MarshalJSON writes NaN entries as null.
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Series is a dense per-minute time series keyed by smoothing window and category.
type Series struct {
	X []MinuteTimestamp                      `json:"x"`
	Y map[RollingAverage]map[Category]Values `json:"y"`
}

// Len returns the number of minutes covered.
func (s *Series) Len() int {
	return len(s.X)
}

// Times converts X into UTC times.
func (s *Series) Times() []time.Time {
	out := make([]time.Time, len(s.X))
	for i, m := range s.X {
		out[i] = m.Time()
	}
	return out
}

// Windows returns the smoothing windows present, ascending.
func (s *Series) Windows() []RollingAverage {
	out := make([]RollingAverage, 0, len(s.Y))
	for _, r := range RollingAverages {
		if _, ok := s.Y[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Categories returns the categories present for window r, "all" first.
func (s *Series) Categories(r RollingAverage) []Category {
	cols := s.Y[r]
	out := make([]Category, 0, len(cols))
	for c := range cols {
		out = append(out, c)
	}
	SortCategories(out)
	return out
}

// Column returns the values for (r, c).
func (s *Series) Column(r RollingAverage, c Category) (Values, bool) {
	v, ok := s.Y[r][c]
	return v, ok
}

// WithSmoothing adds a smoothed copy of the Raw columns for each non-raw window.
func (s *Series) WithSmoothing(windows ...RollingAverage) *Series {
	raw, ok := s.Y[Raw]
	if !ok {
		return s
	}
	for _, w := range windows {
		if w == Raw {
			continue
		}
		cols := make(map[Category]Values, len(raw))
		for c, v := range raw {
			cols[c] = Smooth(v, int(w))
		}
		s.Y[w] = cols
	}
	return s
}

// Slice returns the minutes of s within [from, to], sharing no storage with s.
func (s *Series) Slice(from, to MinuteTimestamp) *Series {
	lo := sort.Search(len(s.X), func(i int) bool { return s.X[i] >= from })
	hi := sort.Search(len(s.X), func(i int) bool { return s.X[i] > to })
	if hi < lo {
		hi = lo
	}
	out := &Series{
		X: append([]MinuteTimestamp{}, s.X[lo:hi]...),
		Y: make(map[RollingAverage]map[Category]Values, len(s.Y)),
	}
	for w, cols := range s.Y {
		cut := make(map[Category]Values, len(cols))
		for c, v := range cols {
			cut[c] = append(Values{}, v[lo:hi]...)
		}
		out.Y[w] = cut
	}
	return out
}

// Only keeps "all" plus the listed categories. A listed category absent
// from a window is filled the way reconstruction backfills: NaN where
// "all" is NaN, 0 elsewhere. An empty list keeps everything.
func (s *Series) Only(cats []Category) *Series {
	if len(cats) == 0 {
		return s
	}
	keep := map[Category]bool{CategoryAll: true}
	for _, c := range cats {
		keep[c] = true
	}
	for w, cols := range s.Y {
		for c := range cols {
			if !keep[c] {
				delete(cols, c)
			}
		}
		all := cols[CategoryAll]
		for c := range keep {
			if _, ok := cols[c]; ok {
				continue
			}
			fill := make(Values, len(s.X))
			for i := range fill {
				if i < len(all) && math.IsNaN(all[i]) {
					fill[i] = nan
				}
			}
			cols[c] = fill
		}
		s.Y[w] = cols
	}
	return s
}

func emptySeries() *Series {
	return &Series{
		X: []MinuteTimestamp{},
		Y: map[RollingAverage]map[Category]Values{},
	}
}
