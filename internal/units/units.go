// Package units provides shared constants and conversions for the
// angular and linear units used across the pipeline.
package units

import "math"

// Unit constants
const (
	DegPerSec = "degps"
	RadPerSec = "radps"
	MMPerSec  = "mmps"
	MPerSec   = "mps"
)

// ValidAngularUnits contains all valid angular velocity unit values.
var ValidAngularUnits = []string{DegPerSec, RadPerSec}

// IsValidAngular checks if the given unit is a valid angular velocity unit.
func IsValidAngular(unit string) bool {
	for _, validUnit := range ValidAngularUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// ConvertAngularVelocity converts an angular velocity from rad/s to the
// target units. The pipeline computes in rad/s internally and reports
// in deg/s.
func ConvertAngularVelocity(radPerSec float64, targetUnits string) float64 {
	switch targetUnits {
	case DegPerSec:
		return RadToDeg(radPerSec)
	case RadPerSec:
		return radPerSec
	default:
		return radPerSec // default to rad/s if unknown unit
	}
}

// MMToM converts millimetres to metres. Marker positions arrive in mm;
// linear kinematics are reported in m/s and m/s².
func MMToM(mm float64) float64 {
	return mm / 1000.0
}
