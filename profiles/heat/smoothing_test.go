// SPDX-License-Identifier: EUPL-1.2

package heat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothIsDeterministic(t *testing.T) {
	demand := randomDemand(42)

	first, err := NewSmoother().Smooth(demand, "medium")
	require.NoError(t, err)
	second, err := NewSmoother().Smooth(demand, "medium")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other := NewSmoother()
	other.Seed = 7331
	third, err := other.Smooth(demand, "medium")
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestSmoothPreservesLengthAndTotal(t *testing.T) {
	demand := randomDemand(1)
	smoother := NewSmoother()

	smoothed, err := smoother.Smooth(demand, "low")
	require.NoError(t, err)
	require.Len(t, smoothed, len(demand))

	// Interpolation wraps around the year and trimming averages, so the
	// total demand scales exactly with the number of summed houses.
	var original, total float64
	for _, v := range demand {
		original += v
	}
	for _, v := range smoothed {
		total += v
	}
	assert.InDelta(t, original*float64(smoother.Houses), total, original*1e-6)
}

func TestSmoothConstantProfileStaysConstant(t *testing.T) {
	demand := make([]float64, HoursPerYear)
	for i := range demand {
		demand[i] = 2.5
	}

	smoother := NewSmoother()
	smoothed, err := smoother.Smooth(demand, "high")
	require.NoError(t, err)

	want := 2.5 * float64(smoother.Houses)
	for _, v := range smoothed {
		assert.InDelta(t, want, v, 1e-9)
	}
}

func TestSmoothRejectsUnknownLevel(t *testing.T) {
	_, err := NewSmoother().Smooth(randomDemand(1), "superb")
	require.Error(t, err)
}

func TestRollWrapsBothDirections(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	assert.Equal(t, []float64{4, 5, 1, 2, 3}, roll(values, 2))
	assert.Equal(t, []float64{3, 4, 5, 1, 2}, roll(values, -2))
	assert.Equal(t, values, roll(values, 0))
	assert.Equal(t, values, roll(values, 5))
}

func randomDemand(seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	demand := make([]float64, HoursPerYear)
	for i := range demand {
		demand[i] = rng.Float64() * 3
	}
	return demand
}
