package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motionlab-data/kinematics.report/internal/mocap"
	"github.com/motionlab-data/kinematics.report/internal/units"
)

const testFS = 120.0

// constantRotation builds a quaternion sequence rotating about Z at
// rate rad/s.
func constantRotation(frames int, rate float64) []mocap.Quat {
	out := make([]mocap.Quat, frames)
	for i := range out {
		angle := rate * float64(i) / testFS
		out[i] = mocap.Quat{W: math.Cos(angle / 2), Z: math.Sin(angle / 2)}
	}
	return out
}

func staticJoint(name string, frames int) mocap.JointSeries {
	positions := make([]mocap.Vec3, frames)
	orientations := make([]mocap.Quat, frames)
	for i := range orientations {
		orientations[i] = mocap.Identity()
	}
	return mocap.JointSeries{Name: name, Positions: positions, Orientations: orientations}
}

func TestSavitzkyGolay(t *testing.T) {
	t.Parallel()

	t.Run("exact first derivative of a cubic", func(t *testing.T) {
		t.Parallel()
		dt := 1.0 / testFS
		n := 200
		x := make([]float64, n)
		for i := range x {
			tt := float64(i) * dt
			x[i] = tt*tt*tt - 2*tt*tt + 3*tt
		}
		d, err := SavitzkyGolay(x, 21, 3, 1, dt)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			tt := float64(i) * dt
			want := 3*tt*tt - 4*tt + 3
			assert.InDelta(t, want, d[i], 1e-6, "frame %d", i)
		}
	})

	t.Run("exact second derivative of a cubic", func(t *testing.T) {
		t.Parallel()
		dt := 1.0 / testFS
		n := 200
		x := make([]float64, n)
		for i := range x {
			tt := float64(i) * dt
			x[i] = 0.5*tt*tt*tt + tt*tt
		}
		d, err := SavitzkyGolay(x, 21, 3, 2, dt)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			tt := float64(i) * dt
			assert.InDelta(t, 3*tt+2, d[i], 1e-4, "frame %d", i)
		}
	})

	t.Run("NaN gaps propagate instead of being bridged", func(t *testing.T) {
		t.Parallel()
		x := make([]float64, 100)
		for i := range x {
			x[i] = float64(i)
		}
		x[50] = math.NaN()
		d, err := SavitzkyGolay(x, 21, 3, 1, 1.0/testFS)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(d[50]))
		assert.True(t, math.IsNaN(d[45]))
		assert.False(t, math.IsNaN(d[20]))
	})

	t.Run("rejects too-short input", func(t *testing.T) {
		t.Parallel()
		_, err := SavitzkyGolay(make([]float64, 10), 21, 3, 1, 1.0/testFS)
		assert.Error(t, err)
	})

	t.Run("window sizing", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 21, WindowForRate(0.175, 120))
		assert.Equal(t, 5, WindowForRate(0.01, 120))
	})
}

func TestAngularVelocityQuatLog(t *testing.T) {
	t.Parallel()

	t.Run("constant-rate rotation is recovered within 0.1%", func(t *testing.T) {
		t.Parallel()
		const rate = 0.5 // rad/s
		seq := constantRotation(240, rate)
		omega := AngularVelocityQuatLog(seq, testFS)
		for i, w := range omega {
			assert.InDelta(t, rate, w.Norm(), rate*0.001, "frame %d", i)
			assert.InDelta(t, rate, w.Z, rate*0.001, "frame %d axis", i)
		}
	})

	t.Run("hemisphere-flipped input would corrupt the rate", func(t *testing.T) {
		t.Parallel()
		// The differentiator assumes continuity has been enforced: an
		// uncorrected sign flip shows up as a huge spurious rate.
		seq := constantRotation(20, 0.5)
		seq[10] = seq[10].Neg()
		omega := AngularVelocityQuatLog(seq, testFS)
		assert.Greater(t, omega[9].Norm(), 100.0)
	})

	t.Run("degenerate quaternions yield NaN", func(t *testing.T) {
		t.Parallel()
		seq := constantRotation(20, 0.5)
		seq[5] = mocap.Quat{}
		omega := AngularVelocityQuatLog(seq, testFS)
		assert.True(t, math.IsNaN(omega[4].X))
		assert.True(t, math.IsNaN(omega[5].X))
		assert.False(t, math.IsNaN(omega[6].X))
	})
}

func TestAngularVelocityStencil(t *testing.T) {
	t.Parallel()

	t.Run("matches quat-log on constant rotation", func(t *testing.T) {
		t.Parallel()
		seq := constantRotation(240, 0.5)
		omega := AngularVelocityStencil(seq, testFS)
		// Kernel weights sum to 1, so a constant rate passes through.
		for i := 2; i < len(omega)-2; i++ {
			assert.InDelta(t, 0.5, omega[i].Norm(), 0.5*0.001, "frame %d", i)
		}
	})

	t.Run("suppresses an isolated rate spike better than quat-log", func(t *testing.T) {
		t.Parallel()
		seq := constantRotation(50, 0.5)
		// Perturb one sample: a one-frame orientation glitch.
		g := seq[25]
		seq[25] = mocap.Quat{W: g.W, X: 0.05, Y: 0, Z: g.Z}
		simple := AngularVelocityQuatLog(seq, testFS)
		smooth := AngularVelocityStencil(seq, testFS)
		assert.Less(t, smooth[25].Norm(), simple[25].Norm())
	})
}

func TestCompute(t *testing.T) {
	t.Parallel()

	newRun := func(t *testing.T, joints ...mocap.JointSeries) *mocap.Run {
		t.Helper()
		run, err := mocap.NewRun("kin-run", testFS, nil, joints)
		require.NoError(t, err)
		return run
	}

	t.Run("linear velocity of a constant-velocity marker", func(t *testing.T) {
		t.Parallel()
		frames := 240
		j := staticJoint("l_hand", frames)
		for i := range j.Positions {
			// 600 mm/s along X.
			j.Positions[i] = mocap.Vec3{X: 600 * float64(i) / testFS}
		}
		run := newRun(t, j)
		res, err := Compute(run, nil, DefaultConfig())
		require.NoError(t, err)
		jk := res.Joint("l_hand")
		require.NotNil(t, jk)
		for i, v := range jk.LinearVelocity {
			assert.InDelta(t, 0.6, v, 1e-6, "frame %d", i) // m/s
		}
		assert.Equal(t, "l_hand", res.PeakLinearVelocity.Joint)
	})

	t.Run("angular peak carries joint and frame provenance", func(t *testing.T) {
		t.Parallel()
		frames := 240
		slow := staticJoint("pelvis", frames)
		for i := range slow.Orientations {
			angle := 0.2 * float64(i) / testFS
			slow.Orientations[i] = mocap.Quat{W: math.Cos(angle / 2), Z: math.Sin(angle / 2)}
		}
		fast := staticJoint("r_hand", frames)
		for i := range fast.Orientations {
			rate := 1.0
			if i >= 120 && i < 130 {
				rate = 30.0 // sustained fast spin mid-run
			}
			angle := rate * float64(i) / testFS
			fast.Orientations[i] = mocap.Quat{W: math.Cos(angle / 2), Z: math.Sin(angle / 2)}
		}
		run := newRun(t, slow, fast)
		res, err := Compute(run, nil, DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, "r_hand", res.PeakAngularVelocity.Joint)
		assert.GreaterOrEqual(t, res.PeakAngularVelocity.Frame, 0)
		assert.Greater(t, res.PeakAngularVelocity.Value, units.RadToDeg(1.0))
	})

	t.Run("invalid frames surface as NaN and are skipped by extrema", func(t *testing.T) {
		t.Parallel()
		frames := 240
		j := staticJoint("head", frames)
		for i := range j.Orientations {
			angle := 0.5 * float64(i) / testFS
			j.Orientations[i] = mocap.Quat{W: math.Cos(angle / 2), Z: math.Sin(angle / 2)}
		}
		run := newRun(t, j)
		res, err := Compute(run, map[string][]int{"head": {100}}, DefaultConfig())
		require.NoError(t, err)
		jk := res.Joint("head")
		assert.True(t, math.IsNaN(jk.AngularVelocity[100]))
		assert.True(t, math.IsNaN(jk.AngularVelocity[99]))
		assert.False(t, math.IsNaN(res.PeakAngularVelocity.Value))
	})

	t.Run("unknown method is rejected", func(t *testing.T) {
		t.Parallel()
		run := newRun(t, staticJoint("pelvis", 240))
		cfg := DefaultConfig()
		cfg.Method = "finite-diff"
		_, err := Compute(run, nil, cfg)
		assert.Error(t, err)
	})
}
