package quat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motionlab-data/kinematics.report/internal/mocap"
)

// rotZ returns a unit quaternion for a rotation of angle radians about Z.
func rotZ(angle float64) mocap.Quat {
	return mocap.Quat{W: math.Cos(angle / 2), Z: math.Sin(angle / 2)}
}

func TestNormalizeSafe(t *testing.T) {
	t.Parallel()

	t.Run("restores unit norm for drifted quaternions", func(t *testing.T) {
		t.Parallel()
		// Up to 10% norm deviation must normalise back to unit.
		for _, scale := range []float64{0.9, 0.95, 1.05, 1.1} {
			q := rotZ(0.7)
			drifted := mocap.Quat{W: q.W * scale, X: q.X * scale, Y: q.Y * scale, Z: q.Z * scale}
			n, ok := NormalizeSafe(drifted)
			require.True(t, ok)
			assert.InDelta(t, 1.0, n.Norm(), 1e-12)
		}
	})

	t.Run("flags degenerate quaternion instead of fabricating identity", func(t *testing.T) {
		t.Parallel()
		got, ok := NormalizeSafe(mocap.Quat{W: 1e-14})
		assert.False(t, ok)
		assert.NotEqual(t, mocap.Identity(), got)
	})
}

func TestDetectDrift(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		scale float64
		want  DriftStatus
	}{
		{"excellent", 1 + 1e-9, DriftExcellent},
		{"good", 1 + 1e-4, DriftGood},
		{"acceptable", 1 + 5e-3, DriftAcceptable},
		{"poor", 1.05, DriftPoor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			seq := make([]mocap.Quat, 20)
			for i := range seq {
				q := rotZ(float64(i) * 0.01)
				seq[i] = mocap.Quat{W: q.W * tc.scale, X: q.X * tc.scale, Y: q.Y * tc.scale, Z: q.Z * tc.scale}
			}
			status, maxErr, meanErr := DetectDrift(seq)
			assert.Equal(t, tc.want, status)
			assert.InDelta(t, math.Abs(tc.scale-1), maxErr, 1e-9)
			assert.Greater(t, meanErr, 0.0)
		})
	}

	t.Run("degenerate samples do not mask drift grade", func(t *testing.T) {
		t.Parallel()
		seq := []mocap.Quat{rotZ(0.1), {W: 1e-14}, rotZ(0.2)}
		status, maxErr, _ := DetectDrift(seq)
		assert.Equal(t, DriftExcellent, status)
		assert.Less(t, maxErr, DriftExcellentMax)
	})
}

func TestEnforceHemisphereContinuity(t *testing.T) {
	t.Parallel()

	t.Run("negates sign-flipped samples", func(t *testing.T) {
		t.Parallel()
		seq := make([]mocap.Quat, 50)
		for i := range seq {
			seq[i] = rotZ(float64(i) * 0.02)
			if i%7 == 3 {
				seq[i] = seq[i].Neg() // injected double-cover flip
			}
		}
		out, flips := EnforceHemisphereContinuity(seq)
		assert.Greater(t, flips, 0)
		for i := 1; i < len(out); i++ {
			assert.GreaterOrEqual(t, out[i-1].Dot(out[i]), 0.0, "frame %d", i)
		}
	})

	t.Run("continuous input is untouched", func(t *testing.T) {
		t.Parallel()
		seq := []mocap.Quat{rotZ(0.1), rotZ(0.12), rotZ(0.14)}
		out, flips := EnforceHemisphereContinuity(seq)
		assert.Zero(t, flips)
		assert.Equal(t, seq, out)
	})
}

func TestProcess(t *testing.T) {
	t.Parallel()

	t.Run("unit norm invariant holds for drifted input", func(t *testing.T) {
		t.Parallel()
		seq := make([]mocap.Quat, 100)
		for i := range seq {
			scale := 1 + 0.1*math.Sin(float64(i)) // up to 10% drift
			q := rotZ(float64(i) * 0.01)
			seq[i] = mocap.Quat{W: q.W * scale, X: q.X * scale, Y: q.Y * scale, Z: q.Z * scale}
		}
		out, rep := Process("pelvis", seq)
		require.True(t, rep.Clean())
		assert.Equal(t, DriftPoor, rep.Status)
		for t2, q := range out {
			assert.InDelta(t, 1.0, q.Norm(), 1e-9, "frame %d", t2)
		}
	})

	t.Run("degenerate frames are reported and passed through", func(t *testing.T) {
		t.Parallel()
		seq := []mocap.Quat{rotZ(0.1), {}, rotZ(0.2), rotZ(0.3)}
		out, rep := Process("l_hand", seq)
		assert.Equal(t, []int{1}, rep.InvalidFrames)
		assert.False(t, rep.Clean())
		assert.Equal(t, mocap.Quat{}, out[1])
	})

	t.Run("continuity resumes across an invalid frame", func(t *testing.T) {
		t.Parallel()
		seq := []mocap.Quat{rotZ(0.1), {}, rotZ(0.12).Neg(), rotZ(0.14)}
		out, rep := Process("spine", seq)
		require.Equal(t, []int{1}, rep.InvalidFrames)
		// Frame 2 must flip back against frame 0, the last valid anchor.
		assert.GreaterOrEqual(t, out[0].Dot(out[2]), 0.0)
		assert.GreaterOrEqual(t, out[2].Dot(out[3]), 0.0)
		assert.Equal(t, 1, rep.HemisphereFlips)
	})
}
