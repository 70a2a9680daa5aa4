package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// WritePipesCSV writes pipes.csv
func WritePipesCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Header()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, r := range t.Rows {
		record := []string{r.Name, formatValue(r.Length), formatValue(r.OD), formatValue(r.WT)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.Name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSegmentElevation writes one TL_ file: a comment header followed by
// headerless distance-from-segment-start and elevation rows
func WriteSegmentElevation(w io.Writer, points profile.Profile, distUnit profile.DistanceUnit, elevUnit profile.ElevationUnit) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "/* Distance[%s],Elevation[%s]\n", distUnit, elevUnit); err != nil {
		return err
	}
	if len(points) > 0 {
		origin := points[0].Distance
		for _, pt := range points {
			_, err := fmt.Fprintf(bw, "%.5f,%.3f\n",
				distUnit.FromMeters(pt.Distance-origin),
				elevUnit.FromMeters(pt.Elevation))
			if err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// WriteDenseCSV writes the dense distance/WT table
func WriteDenseCSV(w io.Writer, t DenseTable) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Header()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, r := range t.Rows {
		if err := writer.Write([]string{formatValue(r.Distance), formatValue(r.WT)}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
