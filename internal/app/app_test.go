package app

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chrissnell/tlprofile/internal/profile"
	"github.com/chrissnell/tlprofile/pkg/config"
)

const sampleCSV = `KP,elevation_m,nominal_pipe_size,nominal_wall_thickness,features
0,100,12,9.5,
0.5,120,12,9.5,
1.0,90,12,9.5,GATE VALVE
1.5,95,12,9.5,
2.0,80,12,9.5,
`

func TestOptionsApplyLineOverrides(t *testing.T) {
	cfg := config.Defaults()
	cfg.Units = config.UnitsData{Distance: "mi", Elevation: "ft"}
	zero := 0.0
	four := 4.0
	cfg.Lines["A"] = config.LineData{Epsilon: &four, BreakAt: []float64{0.5}, SizeChanges: true}
	cfg.Lines["C"] = config.LineData{Epsilon: &zero}

	a, err := New(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	opts, err := a.Options("A")
	require.NoError(t, err)
	assert.Equal(t, "A", opts.LineID)
	assert.Equal(t, 4.0, opts.Epsilon)
	assert.Equal(t, profile.Miles, opts.DistanceUnit)
	assert.Equal(t, profile.ElevationFeet, opts.ElevationUnit)
	assert.Equal(t, []float64{0.5}, opts.BreakAt)
	assert.True(t, opts.UseSizeChanges)
	assert.Equal(t, 1000, opts.Dense.MaxRows)

	opts, err = a.Options("B")
	require.NoError(t, err)
	assert.Equal(t, 1.0, opts.Epsilon)
	assert.False(t, opts.UseSizeChanges)

	opts, err = a.Options("C")
	require.NoError(t, err)
	assert.Equal(t, 0.0, opts.Epsilon)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Cache.Size = 0
	_, err := New(cfg, zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "line.csv")
	output := filepath.Join(dir, "line.zip")
	require.NoError(t, os.WriteFile(input, []byte(sampleCSV), 0o600))

	a, err := New(config.Defaults(), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	opts, err := a.Options("L1")
	require.NoError(t, err)
	opts.UseFeatures = true

	require.NoError(t, a.Run(context.Background(), input, output, opts))

	zr, err := zip.OpenReader(output)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"pipes.csv", "TL_0000.csv", "TL_1000.csv", "wt_profile.csv", "manifest.csv"}, names)
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.zip")

	a, err := New(config.Defaults(), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	opts, err := a.Options("L1")
	require.NoError(t, err)

	assert.Error(t, a.Run(context.Background(), filepath.Join(dir, "missing.csv"), output, opts))
	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}
