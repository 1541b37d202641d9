// SPDX-License-Identifier: EUPL-1.2

package heat

import (
	"fmt"
	"math"
	"math/rand"
)

// Smoother turns one household's demand curve into a neighbourhood curve.
// The hourly curve is interpolated to 6-minute steps, shifted in time once
// per simulated house by a normally distributed offset, summed and
// averaged back to hourly values. Better insulated houses spread wider,
// hence the per-level standard deviations.
type Smoother struct {
	// Houses is the number of shifted copies that are averaged.
	Houses int
	// HoursShifted maps insulation level to the standard deviation, in
	// hours, of the random time shifts.
	HoursShifted map[string]float64
	// Steps is the number of interpolation steps per hour.
	Steps int
	// Seed makes the drawn shifts reproducible.
	Seed int64
}

// NewSmoother returns a smoother with the reference parameters: 300
// houses, shifts of 2/2.5/3 hours for low/medium/high insulation,
// 6-minute interpolation steps and a fixed seed.
func NewSmoother() *Smoother {
	return &Smoother{
		Houses:       300,
		HoursShifted: map[string]float64{"low": 2, "medium": 2.5, "high": 3},
		Steps:        10,
		Seed:         1337,
	}
}

// Smooth averages shifted copies of demand for the given insulation
// level. The input length is preserved.
func (s *Smoother) Smooth(demand []float64, insulationLevel string) ([]float64, error) {
	scale, ok := s.HoursShifted[insulationLevel]
	if !ok {
		return nil, fmt.Errorf("heat: no shift deviation for insulation level %q", insulationLevel)
	}
	if len(demand) == 0 {
		return nil, fmt.Errorf("heat: empty demand profile")
	}

	interpolated := s.interpolate(demand)
	cumulative := make([]float64, len(interpolated))

	for _, shift := range s.deviations(scale) {
		shifted := roll(interpolated, shift)
		for i, v := range shifted {
			cumulative[i] += v
		}
	}

	return s.trim(cumulative), nil
}

// deviations draws one time shift per house: normal with mean zero and
// the given standard deviation in hours, rounded to 0.1h and expressed in
// interpolation steps.
func (s *Smoother) deviations(scale float64) []int {
	rng := rand.New(rand.NewSource(s.Seed))

	shifts := make([]int, s.Houses)
	for i := range shifts {
		rounded := math.Round(rng.NormFloat64()*scale*10) / 10
		shifts[i] = int(rounded * float64(s.Steps))
	}
	return shifts
}

// interpolate expands the hourly curve to Steps points per hour with
// linear interpolation that wraps around the year boundary.
func (s *Smoother) interpolate(values []float64) []float64 {
	out := make([]float64, 0, len(values)*s.Steps)
	for i, start := range values {
		stop := values[(i+1)%len(values)]
		step := (stop - start) / float64(s.Steps)
		for j := 0; j < s.Steps; j++ {
			out = append(out, start+float64(j)*step)
		}
	}
	return out
}

// trim averages the interpolated curve back to hourly values. The
// half-step pre-shift centers every hour's average on the whole hour.
func (s *Smoother) trim(values []float64) []float64 {
	values = roll(values, s.Steps/2)

	out := make([]float64, 0, len(values)/s.Steps)
	for i := 0; i < len(values); i += s.Steps {
		var sum float64
		for _, v := range values[i : i+s.Steps] {
			sum += v
		}
		out = append(out, sum/float64(s.Steps))
	}
	return out
}

// roll rotates values by n positions; elements pushed off the end wrap to
// the front.
func roll(values []float64, n int) []float64 {
	length := len(values)
	out := make([]float64, length)
	for i, v := range values {
		out[((i+n)%length+length)%length] = v
	}
	return out
}
