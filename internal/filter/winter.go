package filter

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/motionlab-data/kinematics.report/internal/mocap"
)

// Failure reasons surfaced on a Result. These are diagnostic strings,
// not errors: the sweep always recovers with an explicit fallback.
const (
	ReasonFlatCurve = "flat residual curve: no detectable motion bandwidth within search range"
	ReasonNoKnee    = "residual never converged to plateau before fmax; falling back to fmax"
)

// plateauWindow is the number of trailing sweep points averaged into
// the plateau estimate.
const plateauWindow = 3

// ResidualPoint is one point of the residual-vs-cutoff curve.
type ResidualPoint struct {
	CutoffHz float64 `json:"cutoff_hz"`
	RMSmm    float64 `json:"rms_mm"`
}

// Result records a cutoff selection with full provenance. When a
// guardrail or fallback fired, the deviation is on the record; the
// textbook outcome has KneeFound true and empty FailureReason.
type Result struct {
	Region mocap.Region `json:"region,omitempty"` // empty for a global result

	CutoffHz    float64 `json:"cutoff_hz"`
	RawCutoffHz float64 `json:"raw_cutoff_hz"` // knee-derived value before any guardrail
	FMinHz      float64 `json:"fmin_hz"`
	FMaxHz      float64 `json:"fmax_hz"`

	ResidualRMSmm float64 `json:"residual_rms_mm"` // residual at the selected cutoff
	KneeFound     bool    `json:"knee_found"`
	FailureReason string  `json:"failure_reason,omitempty"`

	GuardrailApplied bool    `json:"guardrail_applied"`
	GuardrailDeltaHz float64 `json:"guardrail_delta_hz,omitempty"`

	Channels int             `json:"channels"`
	Curve    []ResidualPoint `json:"curve,omitempty"`
}

// residualRMS is the RMS difference between a raw channel and its
// filtered version, in the channel's units (mm for positions).
func residualRMS(raw, filtered []float64) float64 {
	var sum float64
	for i := range raw {
		d := raw[i] - filtered[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(raw)))
}

// sweepResiduals filters every channel at each candidate cutoff and
// averages the per-channel residual RMS into one curve.
func sweepResiduals(channels [][]float64, fs float64, cfg Config) ([]ResidualPoint, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels to analyse")
	}
	var curve []ResidualPoint
	for f := cfg.FMinHz; f <= cfg.FMaxHz+1e-9; f += cfg.StepHz {
		var sum float64
		for _, ch := range channels {
			filtered, err := FiltFilt(ch, f, fs)
			if err != nil {
				return nil, fmt.Errorf("sweep at %.2f Hz: %w", f, err)
			}
			sum += residualRMS(ch, filtered)
		}
		curve = append(curve, ResidualPoint{CutoffHz: f, RMSmm: sum / float64(len(channels))})
	}
	if len(curve) < plateauWindow+1 {
		return nil, fmt.Errorf("sweep produced %d points, need at least %d", len(curve), plateauWindow+1)
	}
	return curve, nil
}

// findKnee locates the lowest cutoff whose residual has converged to
// within ConvergenceTol of the plateau. Returns the fmax fallback with
// an explicit reason when the curve is flat or never plateaus in range.
func findKnee(curve []ResidualPoint, cfg Config) (cutoffHz, residual float64, kneeFound bool, reason string) {
	n := len(curve)

	var plateau float64
	for _, p := range curve[n-plateauWindow:] {
		plateau += p.RMSmm
	}
	plateau /= plateauWindow

	maxR, minR := curve[0].RMSmm, curve[0].RMSmm
	for _, p := range curve {
		maxR = math.Max(maxR, p.RMSmm)
		minR = math.Min(minR, p.RMSmm)
	}

	// Flat curve: the whole sweep barely changes the residual, so no
	// knee separates signal from noise.
	if maxR < 1e-12 || (maxR-minR)/maxR < cfg.FlatCurveTol {
		return curve[n-1].CutoffHz, curve[n-1].RMSmm, false, ReasonFlatCurve
	}

	threshold := plateau + cfg.ConvergenceTol*(maxR-plateau)
	for _, p := range curve[:n-plateauWindow] {
		if p.RMSmm <= threshold {
			return p.CutoffHz, p.RMSmm, true, ""
		}
	}

	// The residual only reaches the plateau at the end of the range:
	// no knee before fmax.
	return curve[n-1].CutoffHz, curve[n-1].RMSmm, false, ReasonNoKnee
}

// SelectCutoff runs the full Winter method over a channel set: sweep,
// knee detection, and the guardrail floor. guardrailHz <= 0 disables
// the floor. The returned Result always satisfies
// FMinHz <= CutoffHz <= FMaxHz.
func SelectCutoff(channels [][]float64, fs float64, cfg Config, guardrailHz float64, region mocap.Region) (Result, error) {
	if err := cfg.Validate(fs); err != nil {
		return Result{}, err
	}
	curve, err := sweepResiduals(channels, fs, cfg)
	if err != nil {
		return Result{}, err
	}

	cutoff, residual, kneeFound, reason := findKnee(curve, cfg)
	res := Result{
		Region:        region,
		CutoffHz:      cutoff,
		RawCutoffHz:   cutoff,
		FMinHz:        cfg.FMinHz,
		FMaxHz:        cfg.FMaxHz,
		ResidualRMSmm: residual,
		KneeFound:     kneeFound,
		FailureReason: reason,
		Channels:      len(channels),
		Curve:         curve,
	}

	if guardrailHz > 0 && res.CutoffHz < guardrailHz {
		floor := math.Min(guardrailHz, cfg.FMaxHz)
		res.GuardrailApplied = true
		res.GuardrailDeltaHz = floor - res.RawCutoffHz
		res.CutoffHz = floor
		if res.FailureReason == "" {
			res.FailureReason = fmt.Sprintf("guardrail override: +%.2f Hz from raw value %.2f Hz", res.GuardrailDeltaHz, res.RawCutoffHz)
		} else {
			res.FailureReason = fmt.Sprintf("%s; guardrail override: +%.2f Hz from raw value %.2f Hz", res.FailureReason, res.GuardrailDeltaHz, res.RawCutoffHz)
		}
	}

	return res, nil
}

// topKDynamic returns the k channels with the largest standard
// deviation, the signals whose bandwidth dominates the residual curve.
func topKDynamic(channels [][]float64, k int) [][]float64 {
	if k >= len(channels) {
		return channels
	}
	type scored struct {
		idx int
		sd  float64
	}
	scores := make([]scored, len(channels))
	for i, ch := range channels {
		scores[i] = scored{idx: i, sd: stat.StdDev(ch, nil)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].sd > scores[j].sd })

	out := make([][]float64, k)
	for i := 0; i < k; i++ {
		out[i] = channels[scores[i].idx]
	}
	return out
}

// positionChannels flattens each joint's positions into three scalar
// channels (X, Y, Z) for residual analysis.
func positionChannels(run *mocap.Run, joints []string) [][]float64 {
	var channels [][]float64
	for _, name := range joints {
		j := run.Joint(name)
		if j == nil {
			continue
		}
		n := j.Frames()
		xs, ys, zs := make([]float64, n), make([]float64, n), make([]float64, n)
		for i, p := range j.Positions {
			xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
		}
		channels = append(channels, xs, ys, zs)
	}
	return channels
}
