// Package pipe converts nominal pipe sizes to outer diameters and reduces
// per-point wall thickness samples to a single volume-conserving value.
package pipe

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// ErrInvalidNPS is returned for non-positive or non-finite nominal pipe sizes
var ErrInvalidNPS = errors.New("invalid nominal pipe size")

// largePipeNPS is the size above which OD equals NPS
const largePipeNPS = 12.0

// nominalOD lists ASME B36.10M outer diameters in inches keyed by NPS
var nominalOD = map[float64]float64{
	0.5:  0.840,
	0.75: 1.050,
	1:    1.315,
	1.25: 1.660,
	1.5:  1.900,
	2:    2.375,
	2.5:  2.875,
	3:    3.500,
	3.5:  4.000,
	4:    4.500,
	5:    5.563,
	6:    6.625,
	8:    8.625,
	10:   10.750,
	12:   12.750,
	14:   14,
	16:   16,
	18:   18,
	20:   20,
	22:   22,
	24:   24,
	26:   26,
	28:   28,
	30:   30,
	32:   32,
	34:   34,
	36:   36,
	42:   42,
	48:   48,
	54:   54,
	60:   60,
	72:   72,
}

// smallPipe interpolates OD between table entries up to largePipeNPS
var smallPipe = func() interp.PiecewiseLinear {
	var xs []float64
	for nps := range nominalOD {
		if nps <= largePipeNPS {
			xs = append(xs, nps)
		}
	}
	sort.Float64s(xs)

	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = nominalOD[x]
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		panic("pipe: invalid NPS table: " + err.Error())
	}
	return pl
}()

// NominalToActualOD converts a nominal pipe size to outer diameter, both in inches.
// Table sizes map directly. Other sizes up to 12" are linearly interpolated
// between neighbouring table entries, and clamped to the smallest entry below
// it. Other sizes above 12" follow the large-pipe convention OD = NPS.
func NominalToActualOD(nps float64) (float64, error) {
	if math.IsNaN(nps) || math.IsInf(nps, 0) || nps <= 0 {
		return 0, profile.NewDataError("nominal to actual od", ErrInvalidNPS, "got %v", nps)
	}

	if od, ok := nominalOD[nps]; ok {
		return od, nil
	}
	if nps > largePipeNPS {
		return nps, nil
	}
	return smallPipe.Predict(nps), nil
}

// MeanOD averages the converted OD of rows using the filled pipe size
// series of the original profile, indexed by OrigRowID. Rows without a
// pipe size are skipped; NaN is returned when none remain.
func MeanOD(rows profile.Profile, filledNPS []float64) (float64, error) {
	var ods []float64
	for _, r := range rows {
		if r.OrigRowID < 0 || r.OrigRowID >= len(filledNPS) {
			continue
		}
		nps := filledNPS[r.OrigRowID]
		if math.IsNaN(nps) {
			continue
		}
		od, err := NominalToActualOD(nps)
		if err != nil {
			return 0, err
		}
		ods = append(ods, od)
	}
	if len(ods) == 0 {
		return math.NaN(), nil
	}
	return stat.Mean(ods, nil), nil
}
