package kinematics

import (
	"fmt"
	"math"

	"github.com/motionlab-data/kinematics.report/internal/mocap"
	"github.com/motionlab-data/kinematics.report/internal/units"
)

// Method selects the angular-velocity algorithm.
type Method string

const (
	// MethodQuatLog is the quaternion-logarithm method (primary).
	MethodQuatLog Method = "quat_log"
	// MethodStencil is the 5-point weighted-stencil method
	// (noise-resistant alternative).
	MethodStencil Method = "stencil"
)

// Protocol defaults for the Savitzky-Golay derivative filter. The
// default window/order pair has an effective cutoff near 2.3 Hz at
// 120 Hz sampling.
const (
	DefaultSGWindowSeconds = 0.175
	DefaultSGOrder         = 3
)

// Config holds the differentiation parameters.
type Config struct {
	Method          Method
	SGWindowSeconds float64
	SGOrder         int
}

// DefaultConfig returns the protocol defaults.
func DefaultConfig() Config {
	return Config{
		Method:          MethodQuatLog,
		SGWindowSeconds: DefaultSGWindowSeconds,
		SGOrder:         DefaultSGOrder,
	}
}

// Extremum is the run-wide maximum of a magnitude series with its
// provenance: the owning joint and the frame it occurred on.
type Extremum struct {
	Joint string
	Frame int
	Value float64
}

// JointKinematics holds one joint's magnitude series, aligned to the
// run timeline. Angular units are deg/s and deg/s²; linear units are
// m/s and m/s². NaN marks frames derived from invalid quaternions.
type JointKinematics struct {
	Joint string

	AngularVelocity     []float64
	AngularAcceleration []float64
	LinearVelocity      []float64
	LinearAcceleration  []float64
}

// Result is the differentiation output for a whole run.
type Result struct {
	Method Method
	Joints []JointKinematics

	PeakAngularVelocity     Extremum
	PeakAngularAcceleration Extremum
	PeakLinearVelocity      Extremum
	PeakLinearAcceleration  Extremum
}

// Joint returns the kinematics for the named joint, or nil.
func (r *Result) Joint(name string) *JointKinematics {
	for i := range r.Joints {
		if r.Joints[i].Joint == name {
			return &r.Joints[i]
		}
	}
	return nil
}

// Compute differentiates a run: filtered positions in, integrity-checked
// orientations in, magnitude series with extremum provenance out.
// invalidFrames lists, per joint, the frames whose quaternions were
// marked degenerate by the integrity stage; derivatives touching those
// frames are NaN rather than fabricated.
func Compute(run *mocap.Run, invalidFrames map[string][]int, cfg Config) (*Result, error) {
	if cfg.SGWindowSeconds <= 0 {
		return nil, fmt.Errorf("savgol window must be positive, got %g", cfg.SGWindowSeconds)
	}
	window := WindowForRate(cfg.SGWindowSeconds, run.FS)
	if run.Frames() < window {
		return nil, fmt.Errorf("run has %d frames, savgol window needs %d", run.Frames(), window)
	}
	dt := 1.0 / run.FS

	res := &Result{Method: cfg.Method, Joints: make([]JointKinematics, 0, len(run.Joints))}

	for i := range run.Joints {
		j := &run.Joints[i]
		orient := maskInvalid(j.Orientations, invalidFrames[j.Name])

		var omega []mocap.Vec3
		switch cfg.Method {
		case MethodQuatLog:
			omega = AngularVelocityQuatLog(orient, run.FS)
		case MethodStencil:
			omega = AngularVelocityStencil(orient, run.FS)
		default:
			return nil, fmt.Errorf("unknown angular velocity method %q", cfg.Method)
		}

		angVel := magnitudes(omega)
		for k, v := range angVel {
			if !math.IsNaN(v) {
				angVel[k] = units.RadToDeg(v)
			}
		}

		angAcc, err := SavitzkyGolay(angVel, window, cfg.SGOrder, 1, dt)
		if err != nil {
			return nil, fmt.Errorf("joint %q angular acceleration: %w", j.Name, err)
		}

		linVel, linAcc, err := linearDerivatives(j.Positions, window, cfg.SGOrder, dt)
		if err != nil {
			return nil, fmt.Errorf("joint %q linear derivatives: %w", j.Name, err)
		}

		res.Joints = append(res.Joints, JointKinematics{
			Joint:               j.Name,
			AngularVelocity:     angVel,
			AngularAcceleration: absAll(angAcc),
			LinearVelocity:      linVel,
			LinearAcceleration:  linAcc,
		})
	}

	res.PeakAngularVelocity = runMax(res.Joints, func(j *JointKinematics) []float64 { return j.AngularVelocity })
	res.PeakAngularAcceleration = runMax(res.Joints, func(j *JointKinematics) []float64 { return j.AngularAcceleration })
	res.PeakLinearVelocity = runMax(res.Joints, func(j *JointKinematics) []float64 { return j.LinearVelocity })
	res.PeakLinearAcceleration = runMax(res.Joints, func(j *JointKinematics) []float64 { return j.LinearAcceleration })

	return res, nil
}

// linearDerivatives applies the Savitzky-Golay scheme per axis to the
// position channels and combines the axis derivatives into magnitude
// series. Positions are mm; output is m/s and m/s².
func linearDerivatives(positions []mocap.Vec3, window, order int, dt float64) (vel, acc []float64, err error) {
	n := len(positions)
	axes := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	for i, p := range positions {
		axes[0][i], axes[1][i], axes[2][i] = p.X, p.Y, p.Z
	}

	var d1, d2 [3][]float64
	for a := 0; a < 3; a++ {
		if d1[a], err = SavitzkyGolay(axes[a], window, order, 1, dt); err != nil {
			return nil, nil, err
		}
		if d2[a], err = SavitzkyGolay(axes[a], window, order, 2, dt); err != nil {
			return nil, nil, err
		}
	}

	vel = make([]float64, n)
	acc = make([]float64, n)
	for i := 0; i < n; i++ {
		vel[i] = units.MMToM(math.Sqrt(d1[0][i]*d1[0][i] + d1[1][i]*d1[1][i] + d1[2][i]*d1[2][i]))
		acc[i] = units.MMToM(math.Sqrt(d2[0][i]*d2[0][i] + d2[1][i]*d2[1][i] + d2[2][i]*d2[2][i]))
	}
	return vel, acc, nil
}

// maskInvalid zeroes out frames marked degenerate so the quaternion-log
// product sees them as missing (near-zero norm) rather than as valid
// orientations.
func maskInvalid(seq []mocap.Quat, invalid []int) []mocap.Quat {
	if len(invalid) == 0 {
		return seq
	}
	out := make([]mocap.Quat, len(seq))
	copy(out, seq)
	for _, f := range invalid {
		if f >= 0 && f < len(out) {
			out[f] = mocap.Quat{}
		}
	}
	return out
}

func absAll(x []float64) []float64 {
	for i, v := range x {
		x[i] = math.Abs(v)
	}
	return x
}

// runMax scans every joint's series for the run-wide maximum, skipping
// NaN gaps, and records which joint and frame own it.
func runMax(joints []JointKinematics, series func(*JointKinematics) []float64) Extremum {
	best := Extremum{Frame: -1, Value: math.Inf(-1)}
	for i := range joints {
		for f, v := range series(&joints[i]) {
			if math.IsNaN(v) {
				continue
			}
			if v > best.Value {
				best = Extremum{Joint: joints[i].Joint, Frame: f, Value: v}
			}
		}
	}
	if best.Frame < 0 {
		return Extremum{Frame: -1, Value: math.NaN()}
	}
	return best
}
