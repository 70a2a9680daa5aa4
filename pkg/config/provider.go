package config

import (
	"errors"
	"fmt"

	"github.com/chrissnell/tlprofile/internal/profile"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Simplification SimplificationData  `json:"simplification" yaml:"simplification"`
	Units          UnitsData           `json:"units" yaml:"units"`
	Segmentation   SegmentationData    `json:"segmentation" yaml:"segmentation"`
	Export         ExportData          `json:"export" yaml:"export"`
	Cache          CacheData           `json:"cache" yaml:"cache"`
	Log            LogData             `json:"log" yaml:"log"`
	Lines          map[string]LineData `json:"lines,omitempty" yaml:"lines,omitempty"`
}

// SimplificationData controls RDP tolerance and deviation reporting.
// Epsilon is expressed in the display elevation unit.
type SimplificationData struct {
	Epsilon float64 `json:"epsilon" yaml:"epsilon"`
	TopN    int     `json:"top_n" yaml:"top-n"`
}

// UnitsData holds the display units
type UnitsData struct {
	Distance  string `json:"distance" yaml:"distance"`
	Elevation string `json:"elevation" yaml:"elevation"`
}

// SegmentationData controls breakpoint detection
type SegmentationData struct {
	SizeChangeMinRun float64 `json:"size_change_min_run" yaml:"size-change-min-run"`
	MinSegmentPoints int     `json:"min_segment_points" yaml:"min-segment-points"`
}

// ExportData controls the dense wall-thickness table
type ExportData struct {
	DenseMaxRows      int     `json:"dense_max_rows" yaml:"dense-max-rows"`
	InterpolateGapMax int     `json:"interpolate_gap_max" yaml:"interpolate-gap-max"`
	UniformFraction   float64 `json:"uniform_fraction" yaml:"uniform-fraction"`
}

// CacheData sizes the normalized profile cache
type CacheData struct {
	Size int `json:"size" yaml:"size"`
}

// LogData holds logging settings
type LogData struct {
	Debug bool   `json:"debug" yaml:"debug"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// LineData holds per-line overrides. A nil Epsilon means "use the global
// setting"; an explicit 0 keeps every point.
type LineData struct {
	Epsilon     *float64  `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`
	BreakAt     []float64 `json:"break_at,omitempty" yaml:"break-at,omitempty"`
	SizeChanges bool      `json:"size_changes,omitempty" yaml:"size-changes,omitempty"`
}

// LineSettings are the effective settings of one line
type LineSettings struct {
	Epsilon     float64
	BreakAt     []float64
	SizeChanges bool
}

// Defaults returns the configuration used when nothing is configured
func Defaults() *ConfigData {
	return &ConfigData{
		Simplification: SimplificationData{Epsilon: 1.0, TopN: 10},
		Units: UnitsData{
			Distance:  string(profile.Kilometers),
			Elevation: string(profile.ElevationMeters),
		},
		Segmentation: SegmentationData{SizeChangeMinRun: 1000, MinSegmentPoints: 2},
		Export:       ExportData{DenseMaxRows: 1000, InterpolateGapMax: 3, UniformFraction: 0.5},
		Cache:        CacheData{Size: 32},
		Lines:        map[string]LineData{},
	}
}

// Validate checks the configuration for values the engine cannot use
func (c *ConfigData) Validate() error {
	var errs []error

	if c.Simplification.Epsilon < 0 {
		errs = append(errs, fmt.Errorf("simplification.epsilon must not be negative, got %g", c.Simplification.Epsilon))
	}
	if c.Simplification.TopN < 0 {
		errs = append(errs, fmt.Errorf("simplification.top_n must not be negative, got %d", c.Simplification.TopN))
	}
	if _, err := profile.ParseDistanceUnit(c.Units.Distance); err != nil {
		errs = append(errs, fmt.Errorf("units.distance: %w", err))
	}
	if _, err := profile.ParseElevationUnit(c.Units.Elevation); err != nil {
		errs = append(errs, fmt.Errorf("units.elevation: %w", err))
	}
	if c.Segmentation.SizeChangeMinRun < 0 {
		errs = append(errs, fmt.Errorf("segmentation.size_change_min_run must not be negative"))
	}
	if c.Export.InterpolateGapMax < 0 {
		errs = append(errs, fmt.Errorf("export.interpolate_gap_max must not be negative"))
	}
	if c.Export.UniformFraction < 0 || c.Export.UniformFraction > 1 {
		errs = append(errs, fmt.Errorf("export.uniform_fraction must be within [0, 1], got %g", c.Export.UniformFraction))
	}
	if c.Cache.Size < 1 {
		errs = append(errs, fmt.Errorf("cache.size must be at least 1, got %d", c.Cache.Size))
	}
	for id, line := range c.Lines {
		if line.Epsilon != nil && !(*line.Epsilon >= 0) {
			errs = append(errs, fmt.Errorf("lines.%s.epsilon must not be negative", id))
		}
	}

	return errors.Join(errs...)
}

// Line returns the settings for lineID with per-line overrides applied
func (c *ConfigData) Line(lineID string) LineSettings {
	line := LineSettings{Epsilon: c.Simplification.Epsilon}
	if override, ok := c.Lines[lineID]; ok {
		if override.Epsilon != nil {
			line.Epsilon = *override.Epsilon
		}
		line.BreakAt = override.BreakAt
		line.SizeChanges = override.SizeChanges
	}
	return line
}
