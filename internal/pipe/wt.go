package pipe

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// ErrNoWallData is returned when a wall thickness cannot be produced at all:
// there are no samples and no usable OD to estimate from
var ErrNoWallData = errors.New("no wall thickness samples and no outer diameter")

const (
	// MinWallMM is the lower clamp for any reported wall thickness
	MinWallMM = 0.1

	// estimateFraction of OD is used as wall thickness when nothing was sampled
	estimateFraction = 0.06

	mmPerMeter = 1000.0
)

// Method records which branch produced a wall thickness
type Method string

const (
	MethodEstimate     Method = "od-estimate"
	MethodSingle       Method = "single-sample"
	MethodMean         Method = "two-sample-mean"
	MethodVolume       Method = "volume-conserving"
	MethodMeanFallback Method = "mean-fallback"
)

// Sample is one wall thickness reading
type Sample struct {
	DistanceM   float64
	ThicknessMM float64
}

// Integration is the outcome of reducing a segment's samples
type Integration struct {
	ThicknessMM float64
	Method      Method
	Samples     int
}

// SamplesFrom extracts the valid wall thickness samples of rows sorted by distance
func SamplesFrom(rows profile.Profile) []Sample {
	var out []Sample
	for _, r := range rows {
		if !finite(r.Distance) || !finite(r.NominalWallThickness) {
			continue
		}
		out = append(out, Sample{DistanceM: r.Distance, ThicknessMM: r.NominalWallThickness})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceM < out[j].DistanceM
	})
	return out
}

// VolumeConservingWT reduces the original rows of a segment to one wall
// thickness, returned in mm for kilometers and in inches for any other unit.
func VolumeConservingWT(rows profile.Profile, segmentLengthM, odInches float64, unit profile.DistanceUnit) (float64, error) {
	res, err := Integrate(SamplesFrom(rows), segmentLengthM, odInches)
	if err != nil {
		return 0, err
	}
	return unit.WallThicknessFromMM(res.ThicknessMM), nil
}

// Integrate reduces samples (sorted by distance) to a single wall thickness in mm.
//
// No samples fall back to 6% of OD. One sample is used as is and two are
// averaged. With three or more, the steel volume of each gap between
// consecutive samples is taken at the thickness of the gap's first sample,
// and the thickness of a single shell holding that volume over the whole
// segment length is solved for. The result is clamped to [0.1 mm, OD/4].
func Integrate(samples []Sample, segmentLengthM, odInches float64) (Integration, error) {
	odMM := odInches * profile.MillimetersPerInch
	haveOD := finite(odMM) && odMM > 0

	res := Integration{Samples: len(samples)}

	switch {
	case len(samples) == 0:
		if !haveOD {
			return Integration{}, profile.NewDataError("volume conserving wt", ErrNoWallData, "od %v", odInches)
		}
		res.ThicknessMM = estimateFraction * odMM
		res.Method = MethodEstimate
	case len(samples) == 1:
		res.ThicknessMM = samples[0].ThicknessMM
		res.Method = MethodSingle
	case len(samples) == 2:
		res.ThicknessMM = (samples[0].ThicknessMM + samples[1].ThicknessMM) / 2
		res.Method = MethodMean
	default:
		res.ThicknessMM, res.Method = equivalentShell(samples, segmentLengthM, odMM, haveOD)
	}

	res.ThicknessMM = clampWall(res.ThicknessMM, odMM, haveOD)
	return res, nil
}

func equivalentShell(samples []Sample, segmentLengthM, odMM float64, haveOD bool) (float64, Method) {
	if !haveOD {
		return meanThickness(samples), MethodMeanFallback
	}

	lengthMM := segmentLengthM * mmPerMeter
	if !finite(lengthMM) || lengthMM <= 0 {
		return meanThickness(samples), MethodMeanFallback
	}

	rOuter := odMM / 2
	innerSq := rOuter*rOuter - SteelVolume(samples, odMM)/(math.Pi*lengthMM)
	if innerSq <= 0 {
		return meanThickness(samples), MethodMeanFallback
	}
	return rOuter - math.Sqrt(innerSq), MethodVolume
}

// SteelVolume integrates the annular steel cross-section between consecutive
// samples and returns the volume in mm³. Each gap carries the thickness of
// the sample it starts at.
func SteelVolume(samples []Sample, odMM float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	rOuter := odMM / 2

	lengths := make([]float64, len(samples)-1)
	areas := make([]float64, len(samples)-1)
	for k := 0; k+1 < len(samples); k++ {
		lengths[k] = (samples[k+1].DistanceM - samples[k].DistanceM) * mmPerMeter
		areas[k] = annulus(rOuter, samples[k].ThicknessMM)
	}
	return floats.Dot(areas, lengths)
}

// annulus is the steel cross-section of a pipe wall in mm²
func annulus(rOuter, wt float64) float64 {
	rInner := math.Max(0, rOuter-wt)
	return math.Pi * (rOuter*rOuter - rInner*rInner)
}

func meanThickness(samples []Sample) float64 {
	wts := make([]float64, len(samples))
	for i, s := range samples {
		wts[i] = s.ThicknessMM
	}
	return stat.Mean(wts, nil)
}

func clampWall(mm, odMM float64, haveOD bool) float64 {
	if haveOD && mm > odMM/4 {
		mm = odMM / 4
	}
	if math.IsNaN(mm) || mm < MinWallMM {
		mm = MinWallMM
	}
	return mm
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
