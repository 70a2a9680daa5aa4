package segment

import (
	"math"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// DefaultMinRun is the constant-size run, in meters, required on both sides
// of a pipe size change before it is reported
const DefaultMinRun = 1000.0

// Marker is a detected nominal pipe size change
type Marker struct {
	Distance  float64
	Elevation float64
	PrevSize  float64
	CurrSize  float64
	Index     int
}

// DetectSizeChanges reports pipe size changes on the original profile using DefaultMinRun
func DetectSizeChanges(points profile.Profile) []Marker {
	return DetectSizeChangesMinRun(points, DefaultMinRun)
}

// DetectSizeChangesMinRun reports every index where the filled nominal pipe
// size differs from the previous point and both neighbouring constant-size
// runs are at least minRun meters long.
//
// A run is measured from its first point to the first point of the next run,
// or to the last point of the profile for the final run.
func DetectSizeChangesMinRun(points profile.Profile, minRun float64) []Marker {
	n := len(points)
	if n < 2 {
		return nil
	}
	sizes := profile.FillPipeSize(points)

	var changes []int
	for i := 1; i < n; i++ {
		if math.IsNaN(sizes[i]) || math.IsNaN(sizes[i-1]) {
			continue
		}
		if sizes[i] != sizes[i-1] {
			changes = append(changes, i)
		}
	}

	var markers []Marker
	for c, i := range changes {
		runStart := 0
		if c > 0 {
			runStart = changes[c-1]
		}
		runEnd := n - 1
		if c+1 < len(changes) {
			runEnd = changes[c+1]
		}

		before := points[i].Distance - points[runStart].Distance
		after := points[runEnd].Distance - points[i].Distance
		if before < minRun || after < minRun {
			continue
		}

		markers = append(markers, Marker{
			Distance:  points[i].Distance,
			Elevation: points[i].Elevation,
			PrevSize:  sizes[i-1],
			CurrSize:  sizes[i],
			Index:     i,
		})
	}
	return markers
}

// MarkerIndices returns the original indices of markers
func MarkerIndices(markers []Marker) []int {
	out := make([]int, len(markers))
	for i, m := range markers {
		out[i] = m.Index
	}
	return out
}
