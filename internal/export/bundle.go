package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// Bundle is everything written to the export archive
type Bundle struct {
	ID               uuid.UUID
	LineID           string
	Epsilon          float64
	OriginalPoints   int
	SimplifiedPoints int
	DistanceUnit     profile.DistanceUnit
	ElevationUnit    profile.ElevationUnit
	Pipes            []Pipe
	Dense            DenseTable
}

// SegmentFileNames returns the elevation file name of each pipe, matching
// the Pipe_Name column of pipes.csv
func (b Bundle) SegmentFileNames() []string {
	names := PipeNames(b.Pipes, b.DistanceUnit)
	for i := range names {
		names[i] += ".csv"
	}
	return names
}

// WriteBundle writes pipes.csv, one TL_ file per pipe, wt_profile.csv and
// manifest.csv into a zip archive
func WriteBundle(w io.Writer, b Bundle) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	zw := zip.NewWriter(w)
	if err := zw.SetComment("tlprofile export " + b.ID.String()); err != nil {
		return err
	}

	if err := writeEntry(zw, "pipes.csv", func(w io.Writer) error {
		return WritePipesCSV(w, PipesTable(b.Pipes, b.DistanceUnit))
	}); err != nil {
		return err
	}

	for i, name := range b.SegmentFileNames() {
		points := b.Pipes[i].Points
		if err := writeEntry(zw, name, func(w io.Writer) error {
			return WriteSegmentElevation(w, points, b.DistanceUnit, b.ElevationUnit)
		}); err != nil {
			return err
		}
	}

	if len(b.Dense.Rows) > 0 {
		if err := writeEntry(zw, "wt_profile.csv", func(w io.Writer) error {
			return WriteDenseCSV(w, b.Dense)
		}); err != nil {
			return err
		}
	}

	if err := writeEntry(zw, "manifest.csv", b.writeManifest); err != nil {
		return err
	}

	return zw.Close()
}

func (b Bundle) writeManifest(w io.Writer) error {
	writer := csv.NewWriter(w)
	records := [][]string{
		{"key", "value"},
		{"bundle_id", b.ID.String()},
		{"line_id", b.LineID},
		{"distance_unit", string(b.DistanceUnit)},
		{"elevation_unit", string(b.ElevationUnit)},
		{"epsilon", strconv.FormatFloat(b.Epsilon, 'f', -1, 64)},
		{"original_points", strconv.Itoa(b.OriginalPoints)},
		{"simplified_points", strconv.Itoa(b.SimplifiedPoints)},
		{"segments", strconv.Itoa(len(b.Pipes))},
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, write func(io.Writer) error) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s in archive: %w", name, err)
	}
	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
