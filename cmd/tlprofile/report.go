package main

import (
	"github.com/chrissnell/tlprofile/internal/engine"
)

// Structured output of the simplify, deviations and markers commands.
// Distances and elevations are in the display units named in the report.

type pointReport struct {
	OrigRowID int     `json:"orig_row_id"`
	Distance  float64 `json:"distance"`
	Elevation float64 `json:"elevation"`
}

type simplifyOutput struct {
	Line          string        `json:"line"`
	DistanceUnit  string        `json:"distance_unit"`
	ElevationUnit string        `json:"elevation_unit"`
	Original      int           `json:"original_points"`
	Kept          int           `json:"kept_points"`
	Points        []pointReport `json:"points"`
}

type deviationReport struct {
	Rank      int     `json:"rank"`
	Index     int     `json:"index"`
	Distance  float64 `json:"distance"`
	Deviation float64 `json:"deviation"`
}

type markerReport struct {
	Index     int     `json:"index"`
	Distance  float64 `json:"distance"`
	Elevation float64 `json:"elevation"`
	PrevSize  float64 `json:"prev_size_in"`
	CurrSize  float64 `json:"curr_size_in"`
}

func simplifyReport(res *engine.Result, opts engine.Options) simplifyOutput {
	out := simplifyOutput{
		Line:          res.LineID,
		DistanceUnit:  string(opts.DistanceUnit),
		ElevationUnit: string(opts.ElevationUnit),
		Original:      len(res.Original),
		Kept:          len(res.Simplified),
		Points:        make([]pointReport, len(res.Simplified)),
	}
	for i, pt := range res.Simplified {
		out.Points[i] = pointReport{
			OrigRowID: pt.OrigRowID,
			Distance:  opts.DistanceUnit.FromMeters(pt.Distance),
			Elevation: opts.ElevationUnit.FromMeters(pt.Elevation),
		}
	}
	return out
}

func deviationsReport(res *engine.Result, opts engine.Options) []deviationReport {
	out := make([]deviationReport, len(res.Deviations))
	for i, d := range res.Deviations {
		out[i] = deviationReport{
			Rank:      i + 1,
			Index:     d.Index,
			Distance:  opts.DistanceUnit.FromMeters(res.Original[d.Index].Distance),
			Deviation: opts.ElevationUnit.FromMeters(d.Value),
		}
	}
	return out
}

func markersReport(res *engine.Result, opts engine.Options) []markerReport {
	out := make([]markerReport, len(res.Markers))
	for i, m := range res.Markers {
		out[i] = markerReport{
			Index:     m.Index,
			Distance:  opts.DistanceUnit.FromMeters(m.Distance),
			Elevation: opts.ElevationUnit.FromMeters(m.Elevation),
			PrevSize:  m.PrevSize,
			CurrSize:  m.CurrSize,
		}
	}
	return out
}
