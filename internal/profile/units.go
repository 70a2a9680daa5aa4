package profile

import (
	"fmt"
	"strings"
)

const (
	metersPerKilometer = 1000.0
	metersPerMile      = 1609.344
	metersPerFoot      = 0.3048

	// MillimetersPerInch converts wall thickness between mm and inches
	MillimetersPerInch = 25.4
)

// DistanceUnit is the display unit for distances along the line
type DistanceUnit string

const (
	Kilometers DistanceUnit = "km"
	Miles      DistanceUnit = "mi"
	Meters     DistanceUnit = "m"
)

// ParseDistanceUnit accepts km, mi or m (case-insensitive)
func ParseDistanceUnit(s string) (DistanceUnit, error) {
	switch DistanceUnit(strings.ToLower(strings.TrimSpace(s))) {
	case Kilometers:
		return Kilometers, nil
	case Miles:
		return Miles, nil
	case Meters:
		return Meters, nil
	}
	return "", fmt.Errorf("unknown distance unit %q", s)
}

// FromMeters converts a distance in meters to this unit
func (u DistanceUnit) FromMeters(m float64) float64 {
	switch u {
	case Kilometers:
		return m / metersPerKilometer
	case Miles:
		return m / metersPerMile
	}
	return m
}

// ToMeters converts a distance in this unit to meters
func (u DistanceUnit) ToMeters(v float64) float64 {
	switch u {
	case Kilometers:
		return v * metersPerKilometer
	case Miles:
		return v * metersPerMile
	}
	return v
}

// WallThicknessLabel is "mm" for kilometers and "in" for every other unit
func (u DistanceUnit) WallThicknessLabel() string {
	if u == Kilometers {
		return "mm"
	}
	return "in"
}

// WallThicknessFromMM converts a wall thickness in mm to the unit paired with u
func (u DistanceUnit) WallThicknessFromMM(mm float64) float64 {
	if u == Kilometers {
		return mm
	}
	return mm / MillimetersPerInch
}

// ElevationUnit is the display unit for elevations
type ElevationUnit string

const (
	ElevationMeters ElevationUnit = "m"
	ElevationFeet   ElevationUnit = "ft"
)

// ParseElevationUnit accepts m or ft (case-insensitive)
func ParseElevationUnit(s string) (ElevationUnit, error) {
	switch ElevationUnit(strings.ToLower(strings.TrimSpace(s))) {
	case ElevationMeters:
		return ElevationMeters, nil
	case ElevationFeet:
		return ElevationFeet, nil
	}
	return "", fmt.Errorf("unknown elevation unit %q", s)
}

// FromMeters converts an elevation in meters to this unit
func (u ElevationUnit) FromMeters(m float64) float64 {
	if u == ElevationFeet {
		return m / metersPerFoot
	}
	return m
}

// ToMeters converts an elevation in this unit to meters
func (u ElevationUnit) ToMeters(v float64) float64 {
	if u == ElevationFeet {
		return v * metersPerFoot
	}
	return v
}
