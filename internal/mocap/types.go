package mocap

import (
	"fmt"
	"math"
)

// Vec3 is a 3D position sample in millimetres.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean length of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Quat is an orientation quaternion in (w, x, y, z) component order,
// already calibrated relative to the recording's reference pose.
type Quat struct {
	W, X, Y, Z float64
}

// Norm returns the quaternion's Euclidean norm.
func (q Quat) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Dot returns the 4D dot product with o.
func (q Quat) Dot(o Quat) float64 {
	return q.W*o.W + q.X*o.X + q.Y*o.Y + q.Z*o.Z
}

// Neg returns the antipodal quaternion. q and q.Neg() encode the same
// rotation; hemisphere continuity picks one sign per frame.
func (q Quat) Neg() Quat {
	return Quat{-q.W, -q.X, -q.Y, -q.Z}
}

// Conj returns the conjugate. For unit quaternions this is the inverse.
func (q Quat) Conj() Quat {
	return Quat{q.W, -q.X, -q.Y, -q.Z}
}

// Mul returns the Hamilton product q ⊗ o.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Identity returns the identity orientation.
func Identity() Quat {
	return Quat{W: 1}
}

// JointSeries is one joint's ordered samples on the run's shared timeline.
type JointSeries struct {
	Name         string
	Positions    []Vec3
	Orientations []Quat
}

// Frames returns the number of samples in the series.
func (s JointSeries) Frames() int {
	return len(s.Positions)
}

// Run is a single recording: all joints on one uniform timeline.
// Construct via NewRun, which enforces the timeline precondition.
type Run struct {
	ID     string
	FS     float64 // sample rate (Hz)
	Time   []float64
	Joints []JointSeries
}

// Frames returns the shared frame count.
func (r *Run) Frames() int {
	return len(r.Time)
}

// Joint returns the series for the named joint, or nil.
func (r *Run) Joint(name string) *JointSeries {
	for i := range r.Joints {
		if r.Joints[i].Name == name {
			return &r.Joints[i]
		}
	}
	return nil
}

// UniformTimelineTolerance is the permitted relative deviation of any
// inter-sample interval from the nominal 1/fs period.
const UniformTimelineTolerance = 1e-3

// NonUniformTimelineError reports an irregularly sampled recording.
// The pipeline never resamples; this condition aborts the run.
type NonUniformTimelineError struct {
	Frame    int
	Got      float64
	Expected float64
}

func (e *NonUniformTimelineError) Error() string {
	return fmt.Sprintf("non-uniform timeline at frame %d: interval %.6fs, expected %.6fs", e.Frame, e.Got, e.Expected)
}

// NewRun builds a Run and validates the shared-timeline preconditions:
// positive sample rate, equal series lengths across joints, and uniform
// sample spacing. The timeline may be nil, in which case it is derived
// from fs.
func NewRun(id string, fs float64, time []float64, joints []JointSeries) (*Run, error) {
	if fs <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", fs)
	}
	if len(joints) == 0 {
		return nil, fmt.Errorf("run %s has no joints", id)
	}

	n := joints[0].Frames()
	for _, j := range joints {
		if j.Frames() != n {
			return nil, fmt.Errorf("joint %q has %d frames, expected %d", j.Name, j.Frames(), n)
		}
		if len(j.Orientations) != n {
			return nil, fmt.Errorf("joint %q has %d orientations, expected %d", j.Name, len(j.Orientations), n)
		}
	}

	if time == nil {
		time = make([]float64, n)
		for i := range time {
			time[i] = float64(i) / fs
		}
	}
	if len(time) != n {
		return nil, fmt.Errorf("timeline has %d entries, expected %d", len(time), n)
	}

	dt := 1.0 / fs
	for i := 1; i < len(time); i++ {
		got := time[i] - time[i-1]
		if got <= 0 || math.Abs(got-dt) > UniformTimelineTolerance*dt {
			return nil, &NonUniformTimelineError{Frame: i, Got: got, Expected: dt}
		}
	}

	return &Run{ID: id, FS: fs, Time: time, Joints: joints}, nil
}
