package simplify

import (
	"sort"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// Deviation is the elevation error of one original point against the
// simplified chord it falls under
type Deviation struct {
	Value float64
	Index int
}

// TopDeviations returns at most n deviations in descending order, each
// original index appearing once. Every point between two consecutive kept
// points is measured against their chord, endpoints included, so an index on
// a chord boundary is scored twice and deduplicated. Equal deviations are
// ordered by ascending index.
func TopDeviations(points profile.Profile, kept []bool, n int) ([]Deviation, error) {
	if len(kept) != len(points) {
		return nil, profile.NewDataError("top deviations", profile.ErrMaskLength,
			"kept mask has %d entries, profile has %d", len(kept), len(points))
	}
	if err := points.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return []Deviation{}, nil
	}

	anchors := KeptIndices(kept)

	var all []Deviation
	for a := 0; a+1 < len(anchors); a++ {
		start, end := anchors[a], anchors[a+1]
		for i := start; i <= end; i++ {
			all = append(all, Deviation{
				Value: deviation(points, start, end, i),
				Index: i,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Value != all[j].Value {
			return all[i].Value > all[j].Value
		}
		return all[i].Index < all[j].Index
	})

	out := make([]Deviation, 0, n)
	seen := make(map[int]struct{}, n)
	for _, d := range all {
		if len(out) == n {
			break
		}
		if _, dup := seen[d.Index]; dup {
			continue
		}
		seen[d.Index] = struct{}{}
		out = append(out, d)
	}
	return out, nil
}
