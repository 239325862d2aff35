package kinematics

import (
	"math"

	"github.com/motionlab-data/kinematics.report/internal/mocap"
)

// smallAngleEps is the half-angle below which the quaternion logarithm
// uses its small-angle limit (2·θ/sin θ → 2).
const smallAngleEps = 1e-8

// stencilKernel is the symmetric weight kernel for the 5-point method.
var stencilKernel = [5]float64{0.15, 0.20, 0.30, 0.20, 0.15}

// stencilKernel3 is the reduced kernel applied at sequence boundaries.
var stencilKernel3 = [3]float64{0.25, 0.50, 0.25}

// rotationRate converts the incremental rotation from q0 to q1 into an
// angular velocity vector in rad/s via the quaternion logarithm:
// Δq = q1 ⊗ q0⁻¹, r = 2·θ/sin(θ)·vec(Δq), ω = r/Δt. Exact for
// constant-rate rotation. NaN vector when either sample is degenerate.
func rotationRate(q0, q1 mocap.Quat, dt float64) mocap.Vec3 {
	if q0.Norm() < 1e-9 || q1.Norm() < 1e-9 {
		return mocap.Vec3{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
	}

	// No shortest-arc repair here: the integrity stage owns hemisphere
	// continuity, and an uncorrected flip must surface as the spurious
	// jump it is rather than be silently absorbed.
	dq := q1.Mul(q0.Conj())

	w := dq.W
	if w > 1 {
		w = 1
	} else if w < -1 {
		w = -1
	}
	theta := math.Acos(w)

	var scale float64
	sinTheta := math.Sin(theta)
	if theta < smallAngleEps || sinTheta < smallAngleEps {
		scale = 2.0
	} else {
		scale = 2.0 * theta / sinTheta
	}
	return mocap.Vec3{
		X: scale * dq.X / dt,
		Y: scale * dq.Y / dt,
		Z: scale * dq.Z / dt,
	}
}

// AngularVelocityQuatLog computes per-frame angular velocity (rad/s)
// from consecutive quaternion pairs. Frame t holds the rate from t to
// t+1; the final frame repeats its predecessor so the series stays
// aligned to the timeline. Frames adjacent to a degenerate quaternion
// come out NaN.
func AngularVelocityQuatLog(seq []mocap.Quat, fs float64) []mocap.Vec3 {
	n := len(seq)
	out := make([]mocap.Vec3, n)
	if n < 2 {
		return out
	}
	dt := 1.0 / fs
	for t := 0; t < n-1; t++ {
		out[t] = rotationRate(seq[t], seq[t+1], dt)
	}
	out[n-1] = out[n-2]
	return out
}

// AngularVelocityStencil computes angular velocity with the
// noise-resistant 5-point method: simple pairwise rates combined with
// a fixed symmetric weight kernel, reduced to 3 points at the
// boundaries. NaN rates exclude the whole window, matching the
// missing-frame policy.
func AngularVelocityStencil(seq []mocap.Quat, fs float64) []mocap.Vec3 {
	simple := AngularVelocityQuatLog(seq, fs)
	n := len(simple)
	out := make([]mocap.Vec3, n)
	if n < 2 {
		return out
	}

	weighted := func(t int, offsets []int, kernel []float64) mocap.Vec3 {
		var acc mocap.Vec3
		for i, off := range offsets {
			v := simple[t+off]
			if math.IsNaN(v.X) {
				return mocap.Vec3{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
			}
			acc.X += kernel[i] * v.X
			acc.Y += kernel[i] * v.Y
			acc.Z += kernel[i] * v.Z
		}
		return acc
	}

	for t := 0; t < n; t++ {
		switch {
		case t >= 2 && t <= n-3:
			out[t] = weighted(t, []int{-2, -1, 0, 1, 2}, stencilKernel[:])
		case t >= 1 && t <= n-2:
			out[t] = weighted(t, []int{-1, 0, 1}, stencilKernel3[:])
		default:
			out[t] = simple[t]
		}
	}
	return out
}

// magnitudes reduces a vector series to Euclidean magnitudes.
func magnitudes(vs []mocap.Vec3) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = v.Norm()
	}
	return out
}
