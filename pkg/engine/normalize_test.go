package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPercentileOfMidrankTies(t *testing.T) {
	pct := percentileOf(map[string]float64{
		"low": 1, "mid1": 5, "mid2": 5, "high": 9,
	})

	require.Equal(t, 0.0, pct["low"])
	require.Equal(t, 1.0, pct["high"])
	// Tied values share the midrank percentile.
	require.Equal(t, pct["mid1"], pct["mid2"])
	require.InDelta(t, 0.5, pct["mid1"], 1e-12)
}

func TestPercentileOfDegenerateInputs(t *testing.T) {
	require.Empty(t, percentileOf(nil))

	single := percentileOf(map[string]float64{"only": 42})
	require.Equal(t, 0.5, single["only"])
}

func TestZscoreOfZeroVariance(t *testing.T) {
	z := zscoreOf(map[string]float64{"a": 3, "b": 3, "c": 3})
	for _, v := range z {
		require.Equal(t, 0.0, v)
	}
}

func TestRanksOfDenseAndDeterministic(t *testing.T) {
	values := map[string]float64{"a": 0.9, "b": 0.7, "c": 0.7, "d": 0.1}

	ranks := ranksOf(values)

	require.Equal(t, uint32(1), ranks["a"])
	// Ties broken by key so reruns agree.
	require.Equal(t, uint32(2), ranks["b"])
	require.Equal(t, uint32(3), ranks["c"])
	require.Equal(t, uint32(4), ranks["d"])

	// Ranks are contiguous 1..K.
	seen := make(map[uint32]bool)
	for _, r := range ranks {
		seen[r] = true
	}
	for i := uint32(1); i <= uint32(len(values)); i++ {
		require.True(t, seen[i])
	}
}
