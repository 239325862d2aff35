package pipeline

import (
	"fmt"

	"github.com/motionlab-data/kinematics.report/internal/burst"
	"github.com/motionlab-data/kinematics.report/internal/filter"
	"github.com/motionlab-data/kinematics.report/internal/kinematics"
	"github.com/motionlab-data/kinematics.report/internal/mocap"
	"github.com/motionlab-data/kinematics.report/internal/quat"
)

// Config holds the immutable per-invocation parameters for all four
// stages. There is no process-wide state: every Process call receives
// its own copy.
type Config struct {
	Mode        filter.Mode
	Filter      filter.Config
	Kinematics  kinematics.Config
	TriggerDegS float64
}

// DefaultConfig returns the protocol defaults in global-cutoff mode.
func DefaultConfig() Config {
	return Config{
		Mode:        filter.Global(),
		Filter:      filter.DefaultConfig(),
		Kinematics:  kinematics.DefaultConfig(),
		TriggerDegS: burst.DefaultTriggerDegS,
	}
}

// DefaultPerRegionConfig returns the per-region protocol defaults.
func DefaultPerRegionConfig(regions mocap.RegionMap) Config {
	cfg := DefaultConfig()
	cfg.Mode = filter.PerRegion(regions)
	cfg.Filter = filter.DefaultPerRegionConfig()
	return cfg
}

// Result is the immutable per-run record of all four stages, consumed
// by the store and report collaborators. No field is mutated after
// Process returns.
type Result struct {
	RunID  string
	FS     float64
	Frames int

	QuatReports []quat.Report
	Filter      filter.Outcome
	Kinematics  *kinematics.Result
	Burst       burst.Report
}

// WorstDrift returns the poorest drift status across joints.
func (r *Result) WorstDrift() quat.DriftStatus {
	order := map[quat.DriftStatus]int{
		quat.DriftExcellent:  0,
		quat.DriftGood:       1,
		quat.DriftAcceptable: 2,
		quat.DriftPoor:       3,
	}
	worst := quat.DriftExcellent
	for _, rep := range r.QuatReports {
		if order[rep.Status] > order[worst] {
			worst = rep.Status
		}
	}
	return worst
}

// Process runs the full conditioning pipeline over one recording.
//
// Structural precondition violations (the run's timeline is validated
// at construction; zero valid regions in per-region mode) abort the
// run. Recoverable numerical edge cases never abort: they surface on
// the stage records instead.
func Process(run *mocap.Run, cfg Config) (*Result, error) {
	res := &Result{RunID: run.ID, FS: run.FS, Frames: run.Frames()}

	// Stage 1: quaternion integrity. Corrected orientations feed every
	// downstream consumer; invalid frames stay marked, not repaired.
	corrected := make([]mocap.JointSeries, len(run.Joints))
	invalid := make(map[string][]int)
	for i := range run.Joints {
		j := &run.Joints[i]
		seq, rep := quat.Process(j.Name, j.Orientations)
		res.QuatReports = append(res.QuatReports, rep)
		if len(rep.InvalidFrames) > 0 {
			invalid[j.Name] = rep.InvalidFrames
		}
		positions := make([]mocap.Vec3, len(j.Positions))
		copy(positions, j.Positions)
		corrected[i] = mocap.JointSeries{Name: j.Name, Positions: positions, Orientations: seq}
	}
	integrityRun := &mocap.Run{ID: run.ID, FS: run.FS, Time: run.Time, Joints: corrected}

	// Stage 2: adaptive filtering of positions.
	outcome, err := filter.Select(integrityRun, cfg.Mode, cfg.Filter)
	res.Filter = outcome
	if err != nil {
		return res, fmt.Errorf("run %s: filter selection: %w", run.ID, err)
	}
	filtered, err := filter.Apply(integrityRun, outcome, cfg.Mode)
	if err != nil {
		return res, fmt.Errorf("run %s: filter apply: %w", run.ID, err)
	}

	// Stage 3: differentiation of filtered positions and corrected
	// orientations.
	kin, err := kinematics.Compute(filtered, invalid, cfg.Kinematics)
	if err != nil {
		return res, fmt.Errorf("run %s: differentiation: %w", run.ID, err)
	}
	res.Kinematics = kin

	// Stage 4: burst classification of angular velocity magnitudes.
	series := make([]burst.Series, len(kin.Joints))
	for i := range kin.Joints {
		series[i] = burst.Series{Joint: kin.Joints[i].Joint, Values: kin.Joints[i].AngularVelocity}
	}
	res.Burst = burst.Analyze(series, cfg.TriggerDegS)

	return res, nil
}
