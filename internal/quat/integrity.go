package quat

import (
	"math"

	"github.com/motionlab-data/kinematics.report/internal/mocap"
)

// DriftStatus grades how far a quaternion sequence has drifted from
// unit norm, by worst-case error over the sequence.
type DriftStatus string

const (
	// DriftExcellent indicates worst-case norm error below 1e-6.
	DriftExcellent DriftStatus = "excellent"
	// DriftGood indicates worst-case norm error below 1e-3.
	DriftGood DriftStatus = "good"
	// DriftAcceptable indicates worst-case norm error below 1e-2.
	DriftAcceptable DriftStatus = "acceptable"
	// DriftPoor indicates worst-case norm error of 1e-2 or more;
	// correction is mandatory before differentiation.
	DriftPoor DriftStatus = "poor"
)

// Drift grade boundaries (worst-case |‖q‖ − 1|).
const (
	DriftExcellentMax  = 1e-6
	DriftGoodMax       = 1e-3
	DriftAcceptableMax = 1e-2
)

// NormEpsilonGuard is the norm below which a quaternion is considered
// degenerate. Degenerate samples are flagged invalid, never silently
// replaced with the identity.
const NormEpsilonGuard = 1e-12

// Report is the per-joint diagnostic record of an integrity pass.
type Report struct {
	Joint         string
	Status        DriftStatus
	MaxNormError  float64
	MeanNormError float64
	// InvalidFrames lists frames whose quaternion norm fell below
	// NormEpsilonGuard. Downstream consumers must treat these frames
	// as missing.
	InvalidFrames []int
	// HemisphereFlips counts frames negated by the continuity scan.
	HemisphereFlips int
	Frames          int
}

// Clean reports whether the pass completed without degenerate samples.
func (r Report) Clean() bool {
	return len(r.InvalidFrames) == 0
}

// NormalizeSafe divides q by max(‖q‖, NormEpsilonGuard). The second
// return value is false when q is degenerate; the caller must mark the
// frame invalid rather than use the returned value.
func NormalizeSafe(q mocap.Quat) (mocap.Quat, bool) {
	n := q.Norm()
	if n < NormEpsilonGuard {
		return q, false
	}
	inv := 1.0 / n
	return mocap.Quat{W: q.W * inv, X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv}, true
}

// GradeDrift classifies a worst-case norm error into a DriftStatus.
func GradeDrift(maxErr float64) DriftStatus {
	switch {
	case maxErr < DriftExcellentMax:
		return DriftExcellent
	case maxErr < DriftGoodMax:
		return DriftGood
	case maxErr < DriftAcceptableMax:
		return DriftAcceptable
	default:
		return DriftPoor
	}
}

// DetectDrift measures |‖q‖ − 1| for every sample and grades the
// sequence by its worst-case error. Degenerate samples are excluded
// from the error statistics (their "norm error" would be ~1 by
// construction and would mask real drift).
func DetectDrift(seq []mocap.Quat) (status DriftStatus, maxErr, meanErr float64) {
	var sum float64
	var counted int
	for _, q := range seq {
		n := q.Norm()
		if n < NormEpsilonGuard {
			continue
		}
		e := math.Abs(n - 1)
		if e > maxErr {
			maxErr = e
		}
		sum += e
		counted++
	}
	if counted > 0 {
		meanErr = sum / float64(counted)
	}
	return GradeDrift(maxErr), maxErr, meanErr
}

// EnforceHemisphereContinuity negates q[t] whenever dot(q[t-1], q[t])
// is negative, so consecutive samples stay on the same hemisphere of
// the double cover. The scan is an explicit left-to-right fold: the
// sign chosen at t depends on the already-corrected sample at t-1.
// Returns the corrected copy and the number of frames negated.
func EnforceHemisphereContinuity(seq []mocap.Quat) ([]mocap.Quat, int) {
	out := make([]mocap.Quat, len(seq))
	copy(out, seq)
	flips := 0
	for t := 1; t < len(out); t++ {
		if out[t-1].Dot(out[t]) < 0 {
			out[t] = out[t].Neg()
			flips++
		}
	}
	return out, flips
}

// Process runs the full integrity pass for one joint: safe
// normalisation with degenerate-frame marking, then the hemisphere
// continuity scan, then drift grading of the raw input.
//
// The returned sequence is unit-norm and hemisphere-continuous except
// at frames listed in Report.InvalidFrames, which are passed through
// unmodified.
func Process(joint string, seq []mocap.Quat) ([]mocap.Quat, Report) {
	rep := Report{Joint: joint, Frames: len(seq)}

	// Grade drift on the raw sequence so the report reflects sensor
	// quality, not the result of our own normalisation.
	rep.Status, rep.MaxNormError, rep.MeanNormError = DetectDrift(seq)

	out := make([]mocap.Quat, len(seq))
	for t, q := range seq {
		n, ok := NormalizeSafe(q)
		if !ok {
			rep.InvalidFrames = append(rep.InvalidFrames, t)
			out[t] = q
			continue
		}
		out[t] = n
	}

	// The continuity scan skips invalid frames as anchors: flipping
	// against a degenerate quaternion would be meaningless.
	flips := 0
	prev := -1
	invalid := make(map[int]bool, len(rep.InvalidFrames))
	for _, f := range rep.InvalidFrames {
		invalid[f] = true
	}
	for t := 0; t < len(out); t++ {
		if invalid[t] {
			continue
		}
		if prev >= 0 && out[prev].Dot(out[t]) < 0 {
			out[t] = out[t].Neg()
			flips++
		}
		prev = t
	}
	rep.HemisphereFlips = flips

	return out, rep
}
