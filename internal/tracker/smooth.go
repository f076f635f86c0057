package tracker

import "math"

var nan = math.NaN()

// Smooth returns the centred rolling mean of v over [i-window, i+window].
// NaN entries are skipped; a window with no data yields NaN.
func Smooth(v Values, window int) Values {
	out := make(Values, len(v))
	if window <= 0 {
		copy(out, v)
		return out
	}

	// prefix sums over non-NaN entries
	sum := make([]float64, len(v)+1)
	cnt := make([]int, len(v)+1)
	for i, f := range v {
		sum[i+1], cnt[i+1] = sum[i], cnt[i]
		if !math.IsNaN(f) {
			sum[i+1] += f
			cnt[i+1]++
		}
	}

	for i := range v {
		lo := max(i-window, 0)
		hi := min(i+window+1, len(v))
		n := cnt[hi] - cnt[lo]
		if n == 0 {
			out[i] = nan
			continue
		}
		out[i] = (sum[hi] - sum[lo]) / float64(n)
	}
	return out
}
