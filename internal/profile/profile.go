// Package profile holds the pipeline elevation profile model shared by the
// simplification, segmentation and wall-thickness packages.
//
// Distances and elevations are stored in meters. Every point carries an
// OrigRowID assigned once by Normalize; it is the only key used to map a
// simplified point back to its row in the original profile.
package profile

import (
	"math"
	"sort"
	"strings"
)

// Point is a single profile sample
type Point struct {
	Distance  float64 // meters from the start of the line
	Elevation float64 // meters
	Station   string
	Features  string

	// NominalPipeSize is the NPS in inches, NaN when missing
	NominalPipeSize float64

	// NominalWallThickness is in millimeters, NaN when missing
	NominalWallThickness float64

	OrigRowID int
}

// HasStation reports whether the point is tagged with a station label
func (p Point) HasStation() bool {
	return strings.TrimSpace(p.Station) != ""
}

// IsValve reports whether the point's feature tag names a valve
func (p Point) IsValve() bool {
	return IsValve(p.Features)
}

// IsValve reports whether a feature tag names a valve ("GATE VALVE", "Check Valve", ...)
func IsValve(features string) bool {
	return strings.Contains(strings.ToUpper(features), "VALVE")
}

// Profile is an ordered sequence of points
type Profile []Point

// Distances returns the distance column
func (p Profile) Distances() []float64 {
	out := make([]float64, len(p))
	for i, pt := range p {
		out[i] = pt.Distance
	}
	return out
}

// Elevations returns the elevation column
func (p Profile) Elevations() []float64 {
	out := make([]float64, len(p))
	for i, pt := range p {
		out[i] = pt.Elevation
	}
	return out
}

// OrigRowIDs returns the back-mapping column
func (p Profile) OrigRowIDs() []int {
	out := make([]int, len(p))
	for i, pt := range p {
		out[i] = pt.OrigRowID
	}
	return out
}

// Span returns the first and last distance, or zeros for an empty profile
func (p Profile) Span() (start, end float64) {
	if len(p) == 0 {
		return 0, 0
	}
	return p[0].Distance, p[len(p)-1].Distance
}

// Length returns last minus first distance in meters
func (p Profile) Length() float64 {
	start, end := p.Span()
	return end - start
}

// Validate checks that every distance and elevation is finite
func (p Profile) Validate() error {
	for i, pt := range p {
		if !isFinite(pt.Distance) {
			return NewDataError("validate", ErrNonFinite, "distance at row %d is %v", i, pt.Distance)
		}
		if !isFinite(pt.Elevation) {
			return NewDataError("validate", ErrNonFinite, "elevation at row %d is %v", i, pt.Elevation)
		}
	}
	return nil
}

// Normalize returns a sorted copy of points ready for simplification.
// Points are stably sorted by distance, shifted so the minimum distance is
// zero when it is negative, and numbered with sequential OrigRowIDs.
func Normalize(points []Point) (Profile, error) {
	out := make(Profile, len(points))
	copy(out, points)

	if err := out.Validate(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})

	if len(out) > 0 && out[0].Distance < 0 {
		shift := -out[0].Distance
		for i := range out {
			out[i].Distance += shift
		}
	}

	for i := range out {
		out[i].OrigRowID = i
	}

	return out, nil
}

// Subset returns the points at kept indices. OrigRowID is carried over
// unchanged so the result can be mapped back to p.
func (p Profile) Subset(kept []bool) (Profile, error) {
	if len(kept) != len(p) {
		return nil, NewDataError("subset", ErrMaskLength, "mask has %d entries, profile has %d", len(kept), len(p))
	}

	out := make(Profile, 0, countTrue(kept))
	for i, k := range kept {
		if k {
			out = append(out, p[i])
		}
	}
	return out, nil
}

// FillPipeSize returns the nominal pipe size series with gaps forward-filled
// and any leading gap backward-filled. The profile is not modified. The
// result is all NaN only when no point carries a pipe size.
func FillPipeSize(p Profile) []float64 {
	out := make([]float64, len(p))
	last := math.NaN()
	for i, pt := range p {
		if !math.IsNaN(pt.NominalPipeSize) {
			last = pt.NominalPipeSize
		}
		out[i] = last
	}

	next := math.NaN()
	for i := len(out) - 1; i >= 0; i-- {
		if math.IsNaN(out[i]) {
			out[i] = next
		} else {
			next = out[i]
		}
	}
	return out
}

// SnapToIndex returns the index of the point whose distance is closest to
// distance. Ties resolve to the lower index. Returns -1 for an empty profile.
func (p Profile) SnapToIndex(distance float64) int {
	if len(p) == 0 {
		return -1
	}

	i := sort.Search(len(p), func(i int) bool {
		return p[i].Distance >= distance
	})

	switch {
	case i == 0:
		return 0
	case i == len(p):
		return len(p) - 1
	}

	// Walk back over duplicate distances so ties land on the first of them
	lo := i - 1
	for lo > 0 && p[lo-1].Distance == p[lo].Distance {
		lo--
	}
	if math.Abs(distance-p[lo].Distance) <= math.Abs(p[i].Distance-distance) {
		return lo
	}
	return i
}

// MustKeepMask builds a mask of length n with the given indices set.
// Out-of-range indices are ignored.
func MustKeepMask(n int, indices []int) []bool {
	mask := make([]bool, n)
	for _, idx := range indices {
		if idx >= 0 && idx < n {
			mask[idx] = true
		}
	}
	return mask
}

// FeatureIndices returns the indices of valve- or station-tagged points
func (p Profile) FeatureIndices() []int {
	var out []int
	for i, pt := range p {
		if pt.IsValve() || pt.HasStation() {
			out = append(out, i)
		}
	}
	return out
}

func countTrue(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
