package engine

import (
	"math"
	"sort"
)

// percentileOf maps each value to its percentile rank in [0, 1] within the
// slice, using the midrank of ties so equal inputs normalize equally.
// Returns an empty map for empty input and 0.5 for a single value.
func percentileOf(values map[string]float64) map[string]float64 {
	n := len(values)
	out := make(map[string]float64, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		for k := range values {
			out[k] = 0.5
		}
		return out
	}

	type kv struct {
		key string
		val float64
	}
	sorted := make([]kv, 0, n)
	for k, v := range values {
		sorted = append(sorted, kv{k, v})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].val != sorted[j].val {
			return sorted[i].val < sorted[j].val
		}
		return sorted[i].key < sorted[j].key
	})

	i := 0
	for i < n {
		j := i
		for j < n && sorted[j].val == sorted[i].val {
			j++
		}
		// midrank of the tie block, scaled to [0, 1]
		mid := (float64(i) + float64(j-1)) / 2
		p := mid / float64(n-1)
		for k := i; k < j; k++ {
			out[sorted[k].key] = p
		}
		i = j
	}
	return out
}

// zscoreOf standardizes values to zero mean and unit variance. Degenerate
// inputs (fewer than two values, or zero variance) map everything to 0.
func zscoreOf(values map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	if len(values) < 2 {
		for k := range values {
			out[k] = 0
		}
		return out
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var varSum float64
	for _, v := range values {
		varSum += (v - mean) * (v - mean)
	}
	std := math.Sqrt(varSum / float64(len(values)))
	if std == 0 {
		for k := range values {
			out[k] = 0
		}
		return out
	}

	for k, v := range values {
		out[k] = (v - mean) / std
	}
	return out
}

// ranksOf assigns dense ranks 1..K by descending value, ties broken by key
// for determinism.
func ranksOf(values map[string]float64) map[string]uint32 {
	type kv struct {
		key string
		val float64
	}
	sorted := make([]kv, 0, len(values))
	for k, v := range values {
		sorted = append(sorted, kv{k, v})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].val != sorted[j].val {
			return sorted[i].val > sorted[j].val
		}
		return sorted[i].key < sorted[j].key
	})

	out := make(map[string]uint32, len(sorted))
	for i, e := range sorted {
		out[e.key] = uint32(i + 1)
	}
	return out
}
