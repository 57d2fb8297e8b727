package processors

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

const quintiles = 5

// ScoreQuintiles converts values into 1..5 scores by quintile of their rank.
// Missing or non-finite values take the median of the rest. Ranks break ties
// by input order, so every value gets a unique rank and binning stays defined
// for low-cardinality inputs. When higherIsBetter is false the scale is
// inverted (6 - bucket). The result always lies in 1..5.
func ScoreQuintiles(values []float64, higherIsBetter bool) []int {
	if len(values) == 0 {
		return []int{}
	}
	ranks := RankFirst(ImputeMedian(values))

	buckets, ok := equalFrequencyBuckets(ranks)
	if !ok {
		buckets = equalWidthBuckets(ranks)
	}

	if !higherIsBetter {
		for i, b := range buckets {
			buckets[i] = quintiles + 1 - b
		}
	}
	return buckets
}

// ImputeMedian returns a copy of values with NaN and ±Inf replaced by the
// median of the finite entries (0 when there are none).
func ImputeMedian(values []float64) []float64 {
	finite := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	median := 0.0
	if len(finite) > 0 {
		if m, err := stats.Median(finite); err == nil {
			median = m
		}
	}

	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = median
		} else {
			out[i] = v
		}
	}
	return out
}

// RankFirst assigns ranks 1..n in ascending value order, breaking ties by
// position in the input.
func RankFirst(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})
	ranks := make([]float64, len(values))
	for rank, idx := range order {
		ranks[idx] = float64(rank + 1)
	}
	return ranks
}

// equalFrequencyBuckets bins ranks at their 0, 20, ..., 100 percentiles
// (linear interpolation, lowest edge inclusive). Duplicate edges are dropped;
// the result is accepted only when five non-empty buckets remain.
func equalFrequencyBuckets(ranks []float64) ([]int, bool) {
	sorted := append([]float64(nil), ranks...)
	sort.Float64s(sorted)

	edges := make([]float64, 0, quintiles+1)
	for k := 0; k <= quintiles; k++ {
		e := quantile(sorted, k, quintiles)
		if len(edges) == 0 || e != edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	if len(edges) != quintiles+1 {
		return nil, false
	}

	buckets := assignBuckets(ranks, edges)
	seen := make(map[int]bool, quintiles)
	for _, b := range buckets {
		seen[b] = true
	}
	return buckets, len(seen) == quintiles
}

// equalWidthBuckets splits [min, max] of ranks into five equal intervals. The
// lowest edge is lowered by 0.1% of the range so the minimum is included; a
// zero-width range is widened by 0.1% of its value on both sides instead.
func equalWidthBuckets(ranks []float64) []int {
	lo, hi := ranks[0], ranks[0]
	for _, r := range ranks {
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}

	degenerate := lo == hi
	if degenerate {
		if lo != 0 {
			lo -= 0.001 * math.Abs(lo)
			hi += 0.001 * math.Abs(hi)
		} else {
			lo, hi = -0.001, 0.001
		}
	}
	edges := make([]float64, quintiles+1)
	for k := range edges {
		edges[k] = lo + (hi-lo)*float64(k)/quintiles
	}
	edges[quintiles] = hi
	if !degenerate {
		edges[0] -= (hi - lo) * 0.001
	}
	return assignBuckets(ranks, edges)
}

// assignBuckets labels each value with the first interval (edges[k-1], edges[k]]
// containing it; values at or below edges[0] land in bucket 1.
func assignBuckets(values, edges []float64) []int {
	out := make([]int, len(values))
	last := len(edges) - 1
	for i, v := range values {
		b := sort.SearchFloat64s(edges[1:], v) + 1
		if b > last {
			b = last
		}
		out[i] = b
	}
	return out
}

// quantile returns the num/den-th quantile of sorted data with linear
// interpolation. The position is kept as an integer fraction so that edges
// landing on a data point are exact.
func quantile(sorted []float64, num, den int) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	idx := num * (n - 1) / den
	rem := num * (n - 1) % den
	if rem == 0 {
		return sorted[idx]
	}
	return sorted[idx] + (sorted[idx+1]-sorted[idx])*float64(rem)/float64(den)
}
