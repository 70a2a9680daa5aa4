// Package segment partitions a simplified profile into transfer-line
// segments at forced breakpoints and detects nominal pipe size changes.
package segment

import (
	"sort"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// Segment is an inclusive index range in simplified-profile space
type Segment struct {
	Start  int
	End    int
	Points profile.Profile
}

// StartDistance returns the distance of the first point in meters
func (s Segment) StartDistance() float64 {
	return s.Points[0].Distance
}

// EndDistance returns the distance of the last point in meters
func (s Segment) EndDistance() float64 {
	return s.Points[len(s.Points)-1].Distance
}

// Length returns the segment span in meters
func (s Segment) Length() float64 {
	return s.EndDistance() - s.StartDistance()
}

// FirstOrigRowID returns the original index of the first point
func (s Segment) FirstOrigRowID() int {
	return s.Points[0].OrigRowID
}

// LastOrigRowID returns the original index of the last point
func (s Segment) LastOrigRowID() int {
	return s.Points[len(s.Points)-1].OrigRowID
}

// Build splits simplified at the points whose OrigRowID is listed in
// forcedOrigIDs.
//
// A forced breakpoint only takes effect when its point survived
// simplification; breakpoints missing from simplified, or falling on its
// first or last point, are dropped. With no usable breakpoints the whole
// profile is a single segment. Every returned segment has at least two points.
func Build(simplified profile.Profile, forcedOrigIDs []int) []Segment {
	n := len(simplified)
	if n < 2 {
		return nil
	}

	byOrig := make(map[int]int, n)
	for i, pt := range simplified {
		byOrig[pt.OrigRowID] = i
	}

	seen := make(map[int]struct{}, len(forcedOrigIDs))
	var breaks []int
	for _, id := range forcedOrigIDs {
		idx, ok := byOrig[id]
		if !ok || idx == 0 || idx == n-1 {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		breaks = append(breaks, idx)
	}
	sort.Ints(breaks)

	var segments []Segment
	start := 0
	for _, bp := range breaks {
		if bp <= start {
			continue
		}
		segments = append(segments, newSegment(simplified, start, bp))
		start = bp
	}
	if n-1 > start {
		segments = append(segments, newSegment(simplified, start, n-1))
	}

	return segments
}

// DroppedBreaks returns the forced breakpoints Build ignores, either because
// the point was discarded by simplification or because it is an endpoint
func DroppedBreaks(simplified profile.Profile, forcedOrigIDs []int) []int {
	n := len(simplified)
	byOrig := make(map[int]int, n)
	for i, pt := range simplified {
		byOrig[pt.OrigRowID] = i
	}

	var dropped []int
	for _, id := range forcedOrigIDs {
		idx, ok := byOrig[id]
		if !ok || idx == 0 || idx == n-1 {
			dropped = append(dropped, id)
		}
	}
	return dropped
}

func newSegment(p profile.Profile, start, end int) Segment {
	return Segment{
		Start:  start,
		End:    end,
		Points: p[start : end+1],
	}
}
