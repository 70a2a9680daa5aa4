// Package export formats segmented profiles into the pipes table, the
// per-segment elevation files and the dense wall thickness table, and bundles
// them into a zip archive.
package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// Pipe is one segment with its derived pipe properties
type Pipe struct {
	StartDistanceM float64
	LengthM        float64
	ODInches       float64

	// WT is in mm for kilometers, inches otherwise
	WT float64

	// Points are the simplified points of the segment
	Points profile.Profile
}

// PipeRow is one formatted row of pipes.csv
type PipeRow struct {
	Name   string
	Length float64
	OD     float64
	WT     float64
}

// Table is the pipes table in one distance unit
type Table struct {
	Unit profile.DistanceUnit
	Rows []PipeRow
}

// PipesTable builds one row per pipe. Length and OD are rounded to 3
// decimals and WT to 4.
func PipesTable(pipes []Pipe, unit profile.DistanceUnit) Table {
	t := Table{Unit: unit, Rows: make([]PipeRow, len(pipes))}
	names := PipeNames(pipes, unit)
	for i, p := range pipes {
		t.Rows[i] = PipeRow{
			Name:   names[i],
			Length: Round(unit.FromMeters(p.LengthM), 3),
			OD:     Round(p.ODInches, 3),
			WT:     Round(p.WT, 4),
		}
	}
	return t
}

// Header returns the column names for the table's unit
func (t Table) Header() []string {
	return []string{
		"Pipe_Name",
		"Length_" + string(t.Unit),
		"OD_in",
		"WT_" + t.Unit.WallThicknessLabel(),
	}
}

// PipeName formats a start distance as TL_ followed by its 3-decimal
// representation with the decimal point removed
func PipeName(startDistance float64) string {
	return "TL_" + strings.Replace(strconv.FormatFloat(startDistance, 'f', 3, 64), ".", "", 1)
}

// PipeNames names every pipe by its start distance in unit. Pipes whose
// names collide after rounding get a _2, _3, ... suffix in order.
func PipeNames(pipes []Pipe, unit profile.DistanceUnit) []string {
	names := make([]string, len(pipes))
	used := make(map[string]int, len(pipes))
	for i, p := range pipes {
		name := PipeName(unit.FromMeters(p.StartDistanceM))
		used[name]++
		if used[name] > 1 {
			name = fmt.Sprintf("%s_%d", name, used[name])
		}
		names[i] = name
	}
	return names
}

// Round rounds v half away from zero to the given number of decimals
func Round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
