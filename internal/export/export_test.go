package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/tlprofile/internal/profile"
)

func TestPipeName(t *testing.T) {
	tests := []struct {
		start    float64
		expected string
	}{
		{0, "TL_0000"},
		{12.3456, "TL_12346"},
		{1.5, "TL_1500"},
		{104.0004, "TL_104000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, PipeName(tt.start))
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.235, Round(1.2346, 3))
	assert.Equal(t, 12.0, Round(11.99996, 4))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestPipesTable(t *testing.T) {
	pipes := []Pipe{
		{StartDistanceM: 0, LengthM: 1234.5678, ODInches: 12.75, WT: 9.52501},
		{StartDistanceM: 1234.5678, LengthM: 500, ODInches: math.NaN(), WT: 7.1},
	}

	km := PipesTable(pipes, profile.Kilometers)
	assert.Equal(t, []string{"Pipe_Name", "Length_km", "OD_in", "WT_mm"}, km.Header())
	assert.Equal(t, PipeRow{Name: "TL_0000", Length: 1.235, OD: 12.75, WT: 9.525}, km.Rows[0])
	assert.Equal(t, "TL_1235", km.Rows[1].Name)

	mi := PipesTable(pipes, profile.Miles)
	assert.Equal(t, []string{"Pipe_Name", "Length_mi", "OD_in", "WT_in"}, mi.Header())
	assert.Equal(t, 0.767, mi.Rows[0].Length)

	var buf bytes.Buffer
	require.NoError(t, WritePipesCSV(&buf, km))
	assert.Equal(t,
		"Pipe_Name,Length_km,OD_in,WT_mm\n"+
			"TL_0000,1.235,12.75,9.525\n"+
			"TL_1235,0.5,,7.1\n",
		buf.String())
}

func TestWriteSegmentElevation(t *testing.T) {
	points := profile.Profile{
		{Distance: 1000, Elevation: 10},
		{Distance: 1500, Elevation: 12.34567},
		{Distance: 2609.344, Elevation: 0},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSegmentElevation(&buf, points, profile.Kilometers, profile.ElevationMeters))
	assert.Equal(t,
		"/* Distance[km],Elevation[m]\n"+
			"0.00000,10.000\n"+
			"0.50000,12.346\n"+
			"1.60934,0.000\n",
		buf.String())

	buf.Reset()
	require.NoError(t, WriteSegmentElevation(&buf, points[:1], profile.Miles, profile.ElevationFeet))
	assert.Equal(t, "/* Distance[mi],Elevation[ft]\n0.00000,32.808\n", buf.String())
}

func TestFillGaps(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name     string
		x        []float64
		values   []float64
		maxGap   int
		expected []float64
	}{
		{
			name:     "short gap interpolated on distance",
			x:        []float64{0, 1, 3, 4},
			values:   []float64{10, nan, nan, 18},
			maxGap:   3,
			expected: []float64{10, 12, 16, 18},
		},
		{
			name:     "long gap forward filled",
			x:        []float64{0, 1, 2, 3, 4, 5},
			values:   []float64{10, nan, nan, nan, nan, 20},
			maxGap:   3,
			expected: []float64{10, 10, 10, 10, 10, 20},
		},
		{
			name:     "leading gap backward filled",
			x:        []float64{0, 1, 2},
			values:   []float64{nan, nan, 5},
			maxGap:   3,
			expected: []float64{5, 5, 5},
		},
		{
			name:     "trailing gap forward filled",
			x:        []float64{0, 1, 2},
			values:   []float64{5, nan, nan},
			maxGap:   3,
			expected: []float64{5, 5, 5},
		},
		{
			name:     "coincident bounds take left value",
			x:        []float64{0, 0, 0},
			values:   []float64{4, nan, 8},
			maxGap:   3,
			expected: []float64{4, 4, 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			FillGaps(tt.x, tt.values, tt.maxGap)
			assert.InDeltaSlice(t, tt.expected, tt.values, 1e-12)
		})
	}
}

func TestBuildDenseWT(t *testing.T) {
	nan := math.NaN()
	original := profile.Profile{
		{Distance: 0, NominalWallThickness: 25.4},
		{Distance: 1609.344, NominalWallThickness: nan},
		{Distance: 3218.688, NominalWallThickness: 50.8},
	}

	table := BuildDenseWT(original, profile.Miles, DefaultDenseOptions())
	assert.Equal(t, []string{"Distance_mi", "WT_in"}, table.Header())
	require.Len(t, table.Rows, 3)
	assert.InDelta(t, 1.0, table.Rows[1].Distance, 1e-12)
	assert.InDelta(t, 1.5, table.Rows[1].WT, 1e-12)
}

func TestSubsample(t *testing.T) {
	rows := make([]DenseRow, 5000)
	for i := range rows {
		wt := 10.0
		if i >= 2500 {
			wt = 12
		}
		rows[i] = DenseRow{Distance: float64(i), WT: wt}
	}

	opts := DefaultDenseOptions()
	out := Subsample(rows, opts)

	require.Len(t, out, opts.MaxRows)
	assert.Equal(t, rows[0], out[0])
	assert.Equal(t, rows[len(rows)-1], out[len(out)-1])
	for i := 1; i < len(out); i++ {
		assert.Less(t, out[i-1].Distance, out[i].Distance)
	}

	// the WT step must survive
	var sawStep bool
	for _, r := range out {
		if r.Distance == 2499 || r.Distance == 2500 {
			sawStep = true
		}
	}
	assert.True(t, sawStep)

	assert.Len(t, Subsample(rows[:10], opts), 10)
	assert.Len(t, Subsample(rows, DenseOptions{MaxRows: 0}), len(rows))
	assert.Len(t, Subsample(rows, DenseOptions{MaxRows: 50, UniformFraction: 1}), 50)
}

func TestWriteBundle(t *testing.T) {
	id := uuid.MustParse("8a0e6f1e-3f68-4a39-9d43-2d7b1f5b9c11")
	b := Bundle{
		ID:               id,
		LineID:           "LINE-7",
		Epsilon:          2,
		OriginalPoints:   10,
		SimplifiedPoints: 4,
		DistanceUnit:     profile.Kilometers,
		ElevationUnit:    profile.ElevationMeters,
		Pipes: []Pipe{
			{StartDistanceM: 0, LengthM: 1000, ODInches: 12.75, WT: 9.5,
				Points: profile.Profile{{Distance: 0, Elevation: 1}, {Distance: 1000, Elevation: 2}}},
			{StartDistanceM: 1000, LengthM: 500, ODInches: 12.75, WT: 9.5,
				Points: profile.Profile{{Distance: 1000, Elevation: 2}, {Distance: 1500, Elevation: 3}}},
		},
		Dense: DenseTable{Unit: profile.Kilometers, Rows: []DenseRow{{0, 9.5}, {1.5, 9.5}}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBundle(&buf, b))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, "tlprofile export "+id.String(), zr.Comment)

	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = string(data)
	}

	assert.Contains(t, files, "pipes.csv")
	assert.Contains(t, files, "TL_0000.csv")
	assert.Contains(t, files, "TL_1000.csv")
	assert.Contains(t, files, "wt_profile.csv")
	assert.True(t, strings.HasPrefix(files["TL_1000.csv"], "/* Distance[km],Elevation[m]\n0.00000,2.000\n"))

	manifest, err := csv.NewReader(strings.NewReader(files["manifest.csv"])).ReadAll()
	require.NoError(t, err)
	values := map[string]string{}
	for _, rec := range manifest[1:] {
		values[rec[0]] = rec[1]
	}
	assert.Equal(t, id.String(), values["bundle_id"])
	assert.Equal(t, "LINE-7", values["line_id"])
	assert.Equal(t, "2", values["segments"])
}

func TestSegmentFileNamesDeduplicate(t *testing.T) {
	b := Bundle{
		DistanceUnit: profile.Kilometers,
		Pipes:        []Pipe{{StartDistanceM: 500}, {StartDistanceM: 500}, {StartDistanceM: 900}},
	}
	assert.Equal(t, []string{"TL_0500.csv", "TL_0500_2.csv", "TL_0900.csv"}, b.SegmentFileNames())
}

func TestBundlePipeNamesMatchSegmentFiles(t *testing.T) {
	tests := []struct {
		name   string
		unit   profile.DistanceUnit
		starts []float64
		want   []string
	}{
		{
			name:   "starts rounding to the same kilometer name",
			unit:   profile.Kilometers,
			starts: []float64{500.0001, 500.0004},
			want:   []string{"TL_0500", "TL_0500_2"},
		},
		{
			name:   "collision between distinct names",
			unit:   profile.Kilometers,
			starts: []float64{0, 500.0001, 500.0004, 500.0002, 900},
			want:   []string{"TL_0000", "TL_0500", "TL_0500_2", "TL_0500_3", "TL_0900"},
		},
		{
			name:   "no collision in miles",
			unit:   profile.Miles,
			starts: []float64{0, 1609.344},
			want:   []string{"TL_0000", "TL_1000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Bundle{
				ID:            uuid.New(),
				DistanceUnit:  tt.unit,
				ElevationUnit: profile.ElevationMeters,
				Dense:         DenseTable{Unit: tt.unit},
			}
			for _, start := range tt.starts {
				b.Pipes = append(b.Pipes, Pipe{
					StartDistanceM: start,
					LengthM:        10,
					ODInches:       12.75,
					WT:             9.5,
					Points:         profile.Profile{{Distance: start, Elevation: 1}},
				})
			}

			var buf bytes.Buffer
			require.NoError(t, WriteBundle(&buf, b))
			zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
			require.NoError(t, err)

			var segmentFiles []string
			var pipesCSV string
			for _, f := range zr.File {
				if strings.HasPrefix(f.Name, "TL_") {
					segmentFiles = append(segmentFiles, f.Name)
				}
				if f.Name == "pipes.csv" {
					rc, err := f.Open()
					require.NoError(t, err)
					data, err := io.ReadAll(rc)
					require.NoError(t, err)
					rc.Close()
					pipesCSV = string(data)
				}
			}

			records, err := csv.NewReader(strings.NewReader(pipesCSV)).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, len(tt.want)+1)

			var rowNames, rowFiles []string
			for _, rec := range records[1:] {
				rowNames = append(rowNames, rec[0])
				rowFiles = append(rowFiles, rec[0]+".csv")
			}
			assert.Equal(t, tt.want, rowNames)
			assert.ElementsMatch(t, rowFiles, segmentFiles)
			assert.Equal(t, rowFiles, b.SegmentFileNames())
		})
	}
}
