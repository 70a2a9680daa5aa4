package pipe

import (
	"math"
	"sort"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// Strategy names how a segment's original rows were located
type Strategy string

const (
	ByDistanceRange   Strategy = "distance-range"
	ByOrigRowID       Strategy = "orig-row-id"
	BySequentialSlice Strategy = "sequential-slice"
	NoMatch           Strategy = "none"
)

// Span locates a segment in the original profile. SliceStart and SliceEnd
// are positional indices used only by the last-resort strategy.
type Span struct {
	StartDistance  float64
	EndDistance    float64
	FirstOrigRowID int
	LastOrigRowID  int
	SliceStart     int
	SliceEnd       int
}

type matcher struct {
	strategy Strategy
	match    func(original profile.Profile, span Span) profile.Profile
}

// matchers are tried in order; the first non-empty result wins
var matchers = []matcher{
	{ByDistanceRange, matchByDistanceRange},
	{ByOrigRowID, matchByOrigRowID},
	{BySequentialSlice, matchBySequentialSlice},
}

// MatchSourceRows returns the original rows covered by span and the strategy that found them
func MatchSourceRows(original profile.Profile, span Span) (profile.Profile, Strategy) {
	for _, m := range matchers {
		if rows := m.match(original, span); len(rows) > 0 {
			return rows, m.strategy
		}
	}
	return nil, NoMatch
}

// matchByDistanceRange relies on original being sorted by distance
func matchByDistanceRange(original profile.Profile, span Span) profile.Profile {
	if math.IsNaN(span.StartDistance) || math.IsNaN(span.EndDistance) || span.StartDistance > span.EndDistance {
		return nil
	}
	lo := sort.Search(len(original), func(i int) bool {
		return original[i].Distance >= span.StartDistance
	})
	hi := sort.Search(len(original), func(i int) bool {
		return original[i].Distance > span.EndDistance
	})
	if lo >= hi {
		return nil
	}
	return original[lo:hi]
}

func matchByOrigRowID(original profile.Profile, span Span) profile.Profile {
	if span.FirstOrigRowID < 0 || span.LastOrigRowID < span.FirstOrigRowID {
		return nil
	}
	var rows profile.Profile
	for _, pt := range original {
		if pt.OrigRowID >= span.FirstOrigRowID && pt.OrigRowID <= span.LastOrigRowID {
			rows = append(rows, pt)
		}
	}
	return rows
}

func matchBySequentialSlice(original profile.Profile, span Span) profile.Profile {
	start := max(span.SliceStart, 0)
	end := min(span.SliceEnd, len(original)-1)
	if start > end {
		return nil
	}
	return original[start : end+1]
}
