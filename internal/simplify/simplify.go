// Package simplify reduces a dense elevation profile to a piecewise-linear
// approximation using Ramer-Douglas-Peucker point elimination with a
// must-keep mask, and ranks the approximation errors it introduces.
//
// Deviation is measured along the elevation axis only: the chord between two
// kept points is evaluated by linear interpolation on distance, and a point's
// deviation is the absolute elevation difference from that chord. Epsilon
// must therefore be given in the same unit as the stored elevations (meters).
package simplify

import (
	"fmt"
	"math"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// Config holds the parameters of one simplification run
type Config struct {
	// Epsilon is the largest elevation deviation, in meters, that may be discarded
	Epsilon float64

	// MustKeepIndices are original indices that always survive and always split
	MustKeepIndices []int
}

// Apply simplifies points with the configured epsilon and must-keep indices
func (c Config) Apply(points profile.Profile) ([]bool, error) {
	return Simplify(points, c.Epsilon, profile.MustKeepMask(len(points), c.MustKeepIndices))
}

type indexRange struct {
	start, end int
}

// Simplify returns the kept mask for points. The first and last point are
// always kept, as is every index set in mustKeep (which may be nil).
//
// When the point of maximum deviation inside a range is itself must-keep, the
// range is split there regardless of epsilon. Otherwise the range is split
// only when the maximum deviation exceeds epsilon, and discarded wholesale
// when it does not.
func Simplify(points profile.Profile, epsilon float64, mustKeep []bool) ([]bool, error) {
	n := len(points)
	if mustKeep != nil && len(mustKeep) != n {
		return nil, profile.NewDataError("simplify", profile.ErrMaskLength,
			"must-keep mask has %d entries, profile has %d", len(mustKeep), n)
	}
	if math.IsNaN(epsilon) || epsilon < 0 {
		return nil, profile.NewDataError("simplify", nil, "epsilon must be >= 0, got %v", epsilon)
	}
	if err := points.Validate(); err != nil {
		return nil, err
	}

	keep := make([]bool, n)
	if n <= 2 {
		for i := range keep {
			keep[i] = true
		}
		return keep, nil
	}

	keep[0] = true
	keep[n-1] = true
	orMask(keep, mustKeep)

	stack := []indexRange{{0, n - 1}}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if r.end <= r.start+1 {
			continue
		}

		maxIdx, maxDev := maxDeviation(points, r.start, r.end)

		switch {
		case mustKeep != nil && mustKeep[maxIdx]:
			keep[maxIdx] = true
		case maxDev > epsilon:
			keep[maxIdx] = true
		default:
			continue
		}

		stack = append(stack, indexRange{maxIdx, r.end}, indexRange{r.start, maxIdx})
	}

	// Must-keep points inside a discarded range are never visited above
	orMask(keep, mustKeep)

	return keep, nil
}

// maxDeviation returns the interior index of largest deviation from the chord
// start-end. The first index wins ties.
func maxDeviation(points profile.Profile, start, end int) (int, float64) {
	maxIdx := start + 1
	maxDev := -1.0
	for i := start + 1; i < end; i++ {
		d := deviation(points, start, end, i)
		if d > maxDev {
			maxDev = d
			maxIdx = i
		}
	}
	return maxIdx, maxDev
}

// deviation is the vertical distance from point i to the chord start-end.
// A chord with no distance extent is treated as horizontal at the start elevation.
func deviation(points profile.Profile, start, end, i int) float64 {
	a, b, p := points[start], points[end], points[i]
	if b.Distance == a.Distance {
		return math.Abs(p.Elevation - a.Elevation)
	}
	t := (p.Distance - a.Distance) / (b.Distance - a.Distance)
	line := a.Elevation + t*(b.Elevation-a.Elevation)
	return math.Abs(p.Elevation - line)
}

func orMask(dst, src []bool) {
	for i, v := range src {
		if v {
			dst[i] = true
		}
	}
}

// KeptIndices returns the indices set in a kept mask
func KeptIndices(kept []bool) []int {
	var out []int
	for i, k := range kept {
		if k {
			out = append(out, i)
		}
	}
	return out
}

// Summary describes a kept mask in one line
func Summary(kept []bool) string {
	n := len(KeptIndices(kept))
	if len(kept) == 0 {
		return "0/0 points kept"
	}
	return fmt.Sprintf("%d/%d points kept (%.1f%%)", n, len(kept), 100*float64(n)/float64(len(kept)))
}
