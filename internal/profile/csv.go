package profile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// distanceColumns maps accepted distance headers to their meters-per-unit factor
var distanceColumns = []struct {
	name   string
	factor float64
}{
	{"distance", 1},
	{"distance_m", 1},
	{"distance_km", metersPerKilometer},
	{"kp", metersPerKilometer},
	{"distance_mi", metersPerMile},
	{"distance_ft", metersPerFoot},
}

var elevationColumns = []struct {
	name   string
	factor float64
}{
	{"elevation", 1},
	{"elevation_m", 1},
	{"elevation_ft", metersPerFoot},
}

// ReadCSV reads a profile table with a header row and returns it normalized.
// Header matching is case-insensitive. Distance and elevation are required;
// station, features, nominal_pipe_size and nominal_wall_thickness are optional
// and blank numeric cells are treated as missing.
func ReadCSV(r io.Reader) (Profile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, NewDataError("read csv", ErrEmptyProfile, "no header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	distIdx, distFactor := lookupColumn(cols, distanceColumns)
	if distIdx < 0 {
		return nil, NewDataError("read csv", ErrMissingColumn, "no distance column in %v", header)
	}
	elevIdx, elevFactor := lookupColumn(cols, elevationColumns)
	if elevIdx < 0 {
		return nil, NewDataError("read csv", ErrMissingColumn, "no elevation column in %v", header)
	}

	stationIdx := optionalColumn(cols, "station")
	featuresIdx := optionalColumn(cols, "features")
	npsIdx := optionalColumn(cols, "nominal_pipe_size")
	wtIdx := optionalColumn(cols, "nominal_wall_thickness")

	var points []Point
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		line++

		dist, err := parseRequired(record, distIdx)
		if err != nil {
			return nil, NewDataError("read csv", err, "row %d distance", line)
		}
		elev, err := parseRequired(record, elevIdx)
		if err != nil {
			return nil, NewDataError("read csv", err, "row %d elevation", line)
		}

		pt := Point{
			Distance:             dist * distFactor,
			Elevation:            elev * elevFactor,
			Station:              cell(record, stationIdx),
			Features:             cell(record, featuresIdx),
			NominalPipeSize:      parseOptional(record, npsIdx),
			NominalWallThickness: parseOptional(record, wtIdx),
		}
		points = append(points, pt)
	}

	return Normalize(points)
}

func lookupColumn(cols map[string]int, candidates []struct {
	name   string
	factor float64
}) (int, float64) {
	for _, c := range candidates {
		if idx, ok := cols[c.name]; ok {
			return idx, c.factor
		}
	}
	return -1, 0
}

func optionalColumn(cols map[string]int, name string) int {
	if idx, ok := cols[name]; ok {
		return idx
	}
	return -1
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseRequired(record []string, idx int) (float64, error) {
	raw := cell(record, idx)
	if raw == "" {
		return 0, ErrNonFinite
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if !isFinite(v) {
		return 0, ErrNonFinite
	}
	return v, nil
}

func parseOptional(record []string, idx int) float64 {
	raw := cell(record, idx)
	if raw == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !isFinite(v) {
		return math.NaN()
	}
	return v
}
