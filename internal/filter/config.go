package filter

import (
	"fmt"

	"github.com/motionlab-data/kinematics.report/internal/mocap"
)

// Config holds the residual-sweep parameters and guardrail floors.
// All values are fixed research-protocol constants by default; a
// tuning file may override them (see internal/config).
type Config struct {
	// Sweep range and resolution.
	FMinHz float64
	FMaxHz float64
	StepHz float64

	// ConvergenceTol is the fraction of the residual-curve range
	// within which a residual counts as converged to the plateau.
	ConvergenceTol float64

	// FlatCurveTol is the minimum relative variation of the residual
	// curve below which no physically meaningful knee exists.
	FlatCurveTol float64

	// TopK is the number of most-dynamic position channels analysed
	// in global mode.
	TopK int

	// GlobalGuardrailHz is the floor for a single global cutoff. The
	// distal-segment floor binds because one cutoff serves all joints.
	GlobalGuardrailHz float64

	// RegionGuardrailHz holds per-region floors for per-region mode.
	RegionGuardrailHz map[mocap.Region]float64
}

// Protocol defaults.
const (
	DefaultFMinHz            = 1.0
	DefaultFMaxHz            = 12.0
	DefaultPerRegionFMaxHz   = 16.0
	DefaultStepHz            = 0.5
	DefaultConvergenceTol    = 0.05
	DefaultFlatCurveTol      = 0.02
	DefaultTopK              = 3
	DefaultGlobalGuardrailHz = 8.0

	TrunkGuardrailHz    = 6.0
	HeadGuardrailHz     = 6.0
	ProximalGuardrailHz = 6.0
	DistalGuardrailHz   = 8.0
)

// DefaultConfig returns the single-global-cutoff protocol defaults
// (1–12 Hz sweep, 8 Hz floor).
func DefaultConfig() Config {
	return Config{
		FMinHz:            DefaultFMinHz,
		FMaxHz:            DefaultFMaxHz,
		StepHz:            DefaultStepHz,
		ConvergenceTol:    DefaultConvergenceTol,
		FlatCurveTol:      DefaultFlatCurveTol,
		TopK:              DefaultTopK,
		GlobalGuardrailHz: DefaultGlobalGuardrailHz,
		RegionGuardrailHz: DefaultRegionGuardrails(),
	}
}

// DefaultPerRegionConfig returns the per-region protocol defaults
// (1–16 Hz sweep with region floors).
func DefaultPerRegionConfig() Config {
	cfg := DefaultConfig()
	cfg.FMaxHz = DefaultPerRegionFMaxHz
	return cfg
}

// DefaultRegionGuardrails returns the per-region cutoff floors.
func DefaultRegionGuardrails() map[mocap.Region]float64 {
	return map[mocap.Region]float64{
		mocap.RegionTrunk:         TrunkGuardrailHz,
		mocap.RegionHead:          HeadGuardrailHz,
		mocap.RegionUpperProximal: ProximalGuardrailHz,
		mocap.RegionUpperDistal:   DistalGuardrailHz,
		mocap.RegionLowerProximal: ProximalGuardrailHz,
		mocap.RegionLowerDistal:   DistalGuardrailHz,
	}
}

// Validate checks the sweep parameters against the sample rate.
func (c Config) Validate(fs float64) error {
	if c.FMinHz <= 0 || c.FMaxHz <= c.FMinHz {
		return fmt.Errorf("invalid sweep range [%g, %g] Hz", c.FMinHz, c.FMaxHz)
	}
	if c.FMaxHz >= fs/2 {
		return fmt.Errorf("fmax %g Hz at or above Nyquist (%g Hz)", c.FMaxHz, fs/2)
	}
	if c.StepHz <= 0 {
		return fmt.Errorf("sweep step must be positive, got %g", c.StepHz)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top-k must be at least 1, got %d", c.TopK)
	}
	return nil
}
