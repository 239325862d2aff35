package filter

import (
	"errors"
	"fmt"

	"github.com/motionlab-data/kinematics.report/internal/mocap"
)

// ModeKind discriminates the filtering mode variants.
type ModeKind string

const (
	// KindGlobal selects one cutoff from the most dynamic channels and
	// applies it to every joint.
	KindGlobal ModeKind = "global"
	// KindPerRegion selects one cutoff per anatomical region.
	KindPerRegion ModeKind = "per_region"
)

// Mode is the tagged filtering-mode variant. Construct via Global or
// PerRegion; the zero value is invalid.
type Mode struct {
	Kind    ModeKind
	Regions mocap.RegionMap // set only for KindPerRegion
}

// Global returns the single-cutoff mode.
func Global() Mode {
	return Mode{Kind: KindGlobal}
}

// PerRegion returns the per-region mode over the given joint map.
func PerRegion(regions mocap.RegionMap) Mode {
	return Mode{Kind: KindPerRegion, Regions: regions}
}

// ErrInsufficientRegionCoverage reports a per-region run in which no
// joint belongs to any known region, leaving nothing to aggregate.
var ErrInsufficientRegionCoverage = errors.New("no valid (non-unknown) regions with joints; aggregate cutoff undefined")

// Outcome is the full record of a cutoff-selection pass.
type Outcome struct {
	Mode ModeKind

	// Global is set in global mode.
	Global *Result
	// PerRegion is set in per-region mode, keyed by region.
	PerRegion map[mocap.Region]Result

	// FilterCutoffHz is the scalar summary: the global cutoff, or the
	// mean cutoff over valid regions. Zero with
	// InsufficientCoverage set when no region could be analysed.
	FilterCutoffHz float64

	// InsufficientCoverage flags the zero-valid-regions error state;
	// FilterCutoffHz is 0.0 and must not be interpreted as a cutoff.
	InsufficientCoverage bool
}

// Select runs Winter's method for the run under the given mode.
//
// Per-region mode with zero analysable regions returns
// ErrInsufficientRegionCoverage alongside a flagged Outcome: the
// condition aborts the run, but the record still reaches diagnostics.
func Select(run *mocap.Run, mode Mode, cfg Config) (Outcome, error) {
	switch mode.Kind {
	case KindGlobal:
		return selectGlobal(run, cfg)
	case KindPerRegion:
		return selectPerRegion(run, mode.Regions, cfg)
	default:
		return Outcome{}, fmt.Errorf("unknown filter mode %q", mode.Kind)
	}
}

func selectGlobal(run *mocap.Run, cfg Config) (Outcome, error) {
	names := make([]string, len(run.Joints))
	for i := range run.Joints {
		names[i] = run.Joints[i].Name
	}
	channels := topKDynamic(positionChannels(run, names), cfg.TopK)

	res, err := SelectCutoff(channels, run.FS, cfg, cfg.GlobalGuardrailHz, "")
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Mode:           KindGlobal,
		Global:         &res,
		FilterCutoffHz: res.CutoffHz,
	}, nil
}

func selectPerRegion(run *mocap.Run, regions mocap.RegionMap, cfg Config) (Outcome, error) {
	out := Outcome{
		Mode:      KindPerRegion,
		PerRegion: make(map[mocap.Region]Result),
	}

	var sum float64
	var valid int
	for _, region := range mocap.Regions {
		joints := regions.JointsIn(run, region)
		if len(joints) == 0 {
			continue
		}
		res, err := SelectCutoff(positionChannels(run, joints), run.FS, cfg, cfg.RegionGuardrailHz[region], region)
		if err != nil {
			return Outcome{}, fmt.Errorf("region %s: %w", region, err)
		}
		out.PerRegion[region] = res
		sum += res.CutoffHz
		valid++
	}

	// RegionUnknown joints are deliberately excluded from the
	// aggregate: unclassified markers must not skew the summary.
	if valid == 0 {
		out.InsufficientCoverage = true
		out.FilterCutoffHz = 0
		return out, ErrInsufficientRegionCoverage
	}
	out.FilterCutoffHz = sum / float64(valid)
	return out, nil
}

// cutoffFor resolves the cutoff that applies to one joint under the
// outcome. Unknown-region joints in per-region mode fall back to the
// aggregate cutoff.
func (o Outcome) cutoffFor(joint string, regions mocap.RegionMap) float64 {
	switch o.Mode {
	case KindGlobal:
		return o.Global.CutoffHz
	case KindPerRegion:
		if res, ok := o.PerRegion[regions.Lookup(joint)]; ok {
			return res.CutoffHz
		}
		return o.FilterCutoffHz
	}
	return 0
}

// Apply low-pass filters every joint's position channels at the cutoff
// the outcome assigns to it, zero-phase. Orientations pass through
// untouched. The input run is not modified.
func Apply(run *mocap.Run, outcome Outcome, mode Mode) (*mocap.Run, error) {
	if outcome.InsufficientCoverage {
		return nil, ErrInsufficientRegionCoverage
	}

	joints := make([]mocap.JointSeries, len(run.Joints))
	for i := range run.Joints {
		src := &run.Joints[i]
		cutoff := outcome.cutoffFor(src.Name, mode.Regions)
		if cutoff <= 0 {
			return nil, fmt.Errorf("joint %q resolved to cutoff %g Hz", src.Name, cutoff)
		}

		n := src.Frames()
		xs, ys, zs := make([]float64, n), make([]float64, n), make([]float64, n)
		for k, p := range src.Positions {
			xs[k], ys[k], zs[k] = p.X, p.Y, p.Z
		}
		var err error
		if xs, err = FiltFilt(xs, cutoff, run.FS); err != nil {
			return nil, fmt.Errorf("joint %q: %w", src.Name, err)
		}
		if ys, err = FiltFilt(ys, cutoff, run.FS); err != nil {
			return nil, fmt.Errorf("joint %q: %w", src.Name, err)
		}
		if zs, err = FiltFilt(zs, cutoff, run.FS); err != nil {
			return nil, fmt.Errorf("joint %q: %w", src.Name, err)
		}

		positions := make([]mocap.Vec3, n)
		for k := range positions {
			positions[k] = mocap.Vec3{X: xs[k], Y: ys[k], Z: zs[k]}
		}
		orientations := make([]mocap.Quat, len(src.Orientations))
		copy(orientations, src.Orientations)
		joints[i] = mocap.JointSeries{Name: src.Name, Positions: positions, Orientations: orientations}
	}

	times := make([]float64, len(run.Time))
	copy(times, run.Time)
	return &mocap.Run{ID: run.ID, FS: run.FS, Time: times, Joints: joints}, nil
}
