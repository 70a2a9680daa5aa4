package profile

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	points := []Point{
		{Distance: 10, Elevation: 3},
		{Distance: -5, Elevation: 1},
		{Distance: 0, Elevation: 2},
		{Distance: 0, Elevation: 2.5},
	}

	p, err := Normalize(points)
	require.NoError(t, err)
	require.Len(t, p, 4)

	assert.Equal(t, []float64{0, 5, 5, 15}, p.Distances())
	assert.Equal(t, []float64{1, 2, 2.5, 3}, p.Elevations())
	assert.Equal(t, []int{0, 1, 2, 3}, p.OrigRowIDs())

	// input slice must not be reordered
	assert.Equal(t, 10.0, points[0].Distance)
}

func TestNormalizeRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{"nan distance", []Point{{Distance: math.NaN(), Elevation: 1}}},
		{"inf elevation", []Point{{Distance: 1, Elevation: math.Inf(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.points)
			require.Error(t, err)
			assert.True(t, IsDataProcessingError(err))
			assert.True(t, errors.Is(err, ErrNonFinite))
		})
	}
}

func TestNormalizeEmpty(t *testing.T) {
	p, err := Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestSubsetKeepsOrigRowID(t *testing.T) {
	p, err := Normalize([]Point{{Distance: 0}, {Distance: 1}, {Distance: 2}, {Distance: 3}})
	require.NoError(t, err)

	s, err := p.Subset([]bool{true, false, true, true})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, s.OrigRowIDs())

	_, err = p.Subset([]bool{true})
	assert.True(t, errors.Is(err, ErrMaskLength))
}

func TestFillPipeSize(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name     string
		sizes    []float64
		expected []float64
	}{
		{"no gaps", []float64{12, 12, 16}, []float64{12, 12, 16}},
		{"internal gap forward filled", []float64{12, nan, nan, 16}, []float64{12, 12, 12, 16}},
		{"leading gap backward filled", []float64{nan, nan, 8, 10}, []float64{8, 8, 8, 10}},
		{"trailing gap", []float64{8, nan}, []float64{8, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := make(Profile, len(tt.sizes))
			for i, s := range tt.sizes {
				p[i] = Point{Distance: float64(i), NominalPipeSize: s}
			}
			assert.Equal(t, tt.expected, FillPipeSize(p))
		})
	}

	t.Run("all missing", func(t *testing.T) {
		p := Profile{{NominalPipeSize: nan}, {NominalPipeSize: nan}}
		for _, v := range FillPipeSize(p) {
			assert.True(t, math.IsNaN(v))
		}
	})
}

func TestSnapToIndex(t *testing.T) {
	p := Profile{
		{Distance: 0},
		{Distance: 10},
		{Distance: 20},
		{Distance: 20},
		{Distance: 40},
	}

	tests := []struct {
		distance float64
		expected int
	}{
		{-3, 0},
		{0, 0},
		{4, 0},
		{5, 0}, // tie resolves low
		{6, 1},
		{19, 2},
		{20, 2},
		{30, 2}, // tie against duplicate run resolves to its first point
		{31, 4},
		{100, 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, p.SnapToIndex(tt.distance), "distance %v", tt.distance)
	}

	assert.Equal(t, -1, Profile{}.SnapToIndex(1))
}

func TestMustKeepMask(t *testing.T) {
	mask := MustKeepMask(4, []int{1, 3, 7, -1})
	assert.Equal(t, []bool{false, true, false, true}, mask)
}

func TestFeatureIndices(t *testing.T) {
	p := Profile{
		{Features: "GATE VALVE"},
		{Features: "bend"},
		{Station: "PS-2"},
		{Features: "Check Valve"},
	}
	assert.Equal(t, []int{0, 2, 3}, p.FeatureIndices())
}

func TestReadCSV(t *testing.T) {
	input := `KP,Elevation_ft,Station,Features,Nominal_Pipe_Size,Nominal_Wall_Thickness
0.5,100,,,12,9.5
0,0,PS-1,,12,
1.0,200,,GATE VALVE,,10.3
`
	p, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, p, 3)

	assert.Equal(t, []float64{0, 500, 1000}, p.Distances())
	assert.InDelta(t, 30.48, p[1].Elevation, 1e-9)
	assert.Equal(t, "PS-1", p[0].Station)
	assert.True(t, p[2].IsValve())
	assert.True(t, math.IsNaN(p[0].NominalWallThickness))
	assert.True(t, math.IsNaN(p[2].NominalPipeSize))
	assert.Equal(t, 9.5, p[1].NominalWallThickness)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
	}{
		{"empty", "", ErrEmptyProfile},
		{"no distance", "elevation\n1\n", ErrMissingColumn},
		{"no elevation", "distance\n1\n", ErrMissingColumn},
		{"blank distance", "distance,elevation\n,1\n", ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

func TestUnits(t *testing.T) {
	assert.InDelta(t, 1.0, Kilometers.FromMeters(1000), 1e-12)
	assert.InDelta(t, 1609.344, Miles.ToMeters(1), 1e-9)
	assert.InDelta(t, 1.0, ElevationFeet.ToMeters(1/0.3048), 1e-12)
	assert.Equal(t, "mm", Kilometers.WallThicknessLabel())
	assert.Equal(t, "in", Miles.WallThicknessLabel())
	assert.InDelta(t, 1.0, Miles.WallThicknessFromMM(25.4), 1e-12)

	u, err := ParseDistanceUnit(" MI ")
	require.NoError(t, err)
	assert.Equal(t, Miles, u)
	_, err = ParseDistanceUnit("furlong")
	assert.Error(t, err)

	e, err := ParseElevationUnit("FT")
	require.NoError(t, err)
	assert.Equal(t, ElevationFeet, e)
}
