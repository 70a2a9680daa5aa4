package export

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// DenseOptions controls the dense distance/wall thickness table
type DenseOptions struct {
	// MaxRows triggers importance subsampling when exceeded; 0 disables it
	MaxRows int

	// InterpolateGapMax is the longest run of missing values filled by linear interpolation
	InterpolateGapMax int

	// UniformFraction of the row budget is spent on evenly spaced rows
	UniformFraction float64
}

// DefaultDenseOptions returns the standard dense table settings
func DefaultDenseOptions() DenseOptions {
	return DenseOptions{
		MaxRows:           1000,
		InterpolateGapMax: 3,
		UniformFraction:   0.5,
	}
}

// DenseRow is one row of the dense table
type DenseRow struct {
	Distance float64
	WT       float64
}

// DenseTable is the per-point wall thickness table in display units
type DenseTable struct {
	Unit profile.DistanceUnit
	Rows []DenseRow
}

// Header returns the column names for the table's unit
func (t DenseTable) Header() []string {
	return []string{
		"Distance_" + string(t.Unit),
		"WT_" + t.Unit.WallThicknessLabel(),
	}
}

// BuildDenseWT converts every original point to a distance/WT row. Short gaps
// in WT are interpolated against distance, longer ones forward- then
// backward-filled, and the table is subsampled when it exceeds MaxRows.
func BuildDenseWT(original profile.Profile, unit profile.DistanceUnit, opts DenseOptions) DenseTable {
	dist := make([]float64, len(original))
	wt := make([]float64, len(original))
	for i, pt := range original {
		dist[i] = unit.FromMeters(pt.Distance)
		wt[i] = unit.WallThicknessFromMM(pt.NominalWallThickness)
	}

	FillGaps(dist, wt, opts.InterpolateGapMax)

	rows := make([]DenseRow, len(original))
	for i := range rows {
		rows[i] = DenseRow{Distance: dist[i], WT: wt[i]}
	}

	return DenseTable{
		Unit: unit,
		Rows: Subsample(rows, opts),
	}
}

// FillGaps fills NaN runs of values in place. Runs of at most maxGap values
// bounded on both sides are linearly interpolated against x; the rest are
// forward-filled, then any leading run is backward-filled.
func FillGaps(x, values []float64, maxGap int) {
	n := len(values)
	for i := 0; i < n; {
		if !math.IsNaN(values[i]) {
			i++
			continue
		}
		j := i
		for j < n && math.IsNaN(values[j]) {
			j++
		}
		// values[i:j] is a gap
		if i > 0 && j < n && j-i <= maxGap {
			interpolateGap(x, values, i-1, j)
		}
		i = j
	}

	last := math.NaN()
	for i := range values {
		if math.IsNaN(values[i]) {
			values[i] = last
		} else {
			last = values[i]
		}
	}
	next := math.NaN()
	for i := n - 1; i >= 0; i-- {
		if math.IsNaN(values[i]) {
			values[i] = next
		} else {
			next = values[i]
		}
	}
}

// interpolateGap fills values strictly between lo and hi on the line through
// both bounds. Coincident bounds take the left value.
func interpolateGap(x, values []float64, lo, hi int) {
	var pl interp.PiecewiseLinear
	if err := pl.Fit([]float64{x[lo], x[hi]}, []float64{values[lo], values[hi]}); err != nil {
		for k := lo + 1; k < hi; k++ {
			values[k] = values[lo]
		}
		return
	}
	for k := lo + 1; k < hi; k++ {
		values[k] = pl.Predict(x[k])
	}
}

// Subsample reduces rows to opts.MaxRows. The first and last rows are always
// kept, a UniformFraction share of the budget is spread evenly over the rest,
// and the remainder goes to the rows where WT changes the most. The result
// stays in input order.
func Subsample(rows []DenseRow, opts DenseOptions) []DenseRow {
	n := len(rows)
	if opts.MaxRows <= 0 || n <= opts.MaxRows {
		return rows
	}
	if opts.MaxRows < 2 {
		return []DenseRow{rows[0], rows[n-1]}
	}

	selected := make([]bool, n)
	selected[0] = true
	selected[n-1] = true

	budget := opts.MaxRows - 2
	interior := n - 2

	fraction := math.Min(math.Max(opts.UniformFraction, 0), 1)
	uniform := int(float64(budget) * fraction)
	for k := 0; k < uniform; k++ {
		selected[1+k*interior/uniform] = true
	}

	remaining := budget - countSelected(selected) + 2

	candidates := make([]int, 0, interior)
	weights := variationWeights(rows)
	for i := 1; i < n-1; i++ {
		if !selected[i] {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return weights[candidates[a]] > weights[candidates[b]]
	})
	for _, i := range candidates[:min(remaining, len(candidates))] {
		selected[i] = true
	}

	out := make([]DenseRow, 0, opts.MaxRows)
	for i, s := range selected {
		if s {
			out = append(out, rows[i])
		}
	}
	return out
}

// variationWeights scores each row by the absolute WT change to its neighbours
func variationWeights(rows []DenseRow) []float64 {
	w := make([]float64, len(rows))
	for i := range rows {
		if i > 0 {
			w[i] += absDiff(rows[i].WT, rows[i-1].WT)
		}
		if i+1 < len(rows) {
			w[i] += absDiff(rows[i+1].WT, rows[i].WT)
		}
	}
	return w
}

func absDiff(a, b float64) float64 {
	d := math.Abs(a - b)
	if math.IsNaN(d) {
		return 0
	}
	return d
}

func countSelected(selected []bool) int {
	n := 0
	for _, s := range selected {
		if s {
			n++
		}
	}
	return n
}
