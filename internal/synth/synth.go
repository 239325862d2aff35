// Package synth generates synthetic motion-capture recordings for
// tests and for exercising the pipeline without lab data.
//
// The base recording is deterministic for a given seed: each joint
// rotates about Z at a constant rate while its position traces a slow
// sinusoid with additive noise. Injection helpers then corrupt
// specific frames to reproduce the failure modes the pipeline is
// built to catch.
package synth

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/motionlab-data/kinematics.report/internal/mocap"
)

// Config describes one synthetic recording.
type Config struct {
	Joints       []string
	Frames       int
	FS           float64 // Hz
	RotationDegS float64 // constant angular velocity about Z
	NoiseMM      float64 // position noise amplitude
	Seed         int64
}

// DefaultConfig is a two-second three-joint recording at 120 Hz.
func DefaultConfig() Config {
	return Config{
		Joints:       []string{"pelvis", "l_hand", "r_hand"},
		Frames:       240,
		FS:           120,
		RotationDegS: 90,
		NoiseMM:      0.5,
		Seed:         1,
	}
}

// Generate builds the recording described by cfg.
func Generate(cfg Config) (*mocap.Run, error) {
	if cfg.Frames < 2 {
		return nil, fmt.Errorf("need at least 2 frames, got %d", cfg.Frames)
	}
	if cfg.FS <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", cfg.FS)
	}
	if len(cfg.Joints) == 0 {
		return nil, fmt.Errorf("no joints configured")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	dt := 1.0 / cfg.FS
	rateRad := cfg.RotationDegS * math.Pi / 180

	times := make([]float64, cfg.Frames)
	for i := range times {
		times[i] = float64(i) * dt
	}

	joints := make([]mocap.JointSeries, len(cfg.Joints))
	for j, name := range cfg.Joints {
		s := mocap.JointSeries{Name: name}
		// Offset each joint so channels are not identical.
		phase := float64(j) * math.Pi / 3
		for i := 0; i < cfg.Frames; i++ {
			t := times[i]
			s.Positions = append(s.Positions, mocap.Vec3{
				X: 100*float64(j+1) + 50*math.Sin(2*math.Pi*0.5*t+phase) + cfg.NoiseMM*rng.NormFloat64(),
				Y: 200 + 30*math.Cos(2*math.Pi*0.5*t+phase) + cfg.NoiseMM*rng.NormFloat64(),
				Z: 900 + cfg.NoiseMM*rng.NormFloat64(),
			})

			half := rateRad * t / 2
			s.Orientations = append(s.Orientations, mocap.Quat{
				W: math.Cos(half),
				Z: math.Sin(half),
			})
		}
		joints[j] = s
	}

	return mocap.NewRun(fmt.Sprintf("synth-%d", cfg.Seed), cfg.FS, times, joints)
}

// InjectOrientationSpike rotates the named joint by extraDeg within a
// single frame at frame, producing an angular-velocity spike of
// roughly extraDeg*fs deg/s that decays back over the following
// frames frames.
func InjectOrientationSpike(run *mocap.Run, joint string, frame, frames int, extraDeg float64) error {
	j := run.Joint(joint)
	if j == nil {
		return fmt.Errorf("no joint %q in run %s", joint, run.ID)
	}
	if frame < 0 || frame+frames >= len(j.Orientations) {
		return fmt.Errorf("spike frames [%d, %d) out of range", frame, frame+frames)
	}

	half := extraDeg * math.Pi / 180 / 2
	kick := mocap.Quat{W: math.Cos(half), Y: math.Sin(half)}
	for i := frame; i < frame+frames; i++ {
		j.Orientations[i] = kick.Mul(j.Orientations[i])
	}
	return nil
}

// InjectHemisphereFlip negates the joint's quaternions from frame
// onward, a sign discontinuity with no physical rotation behind it.
func InjectHemisphereFlip(run *mocap.Run, joint string, frame int) error {
	j := run.Joint(joint)
	if j == nil {
		return fmt.Errorf("no joint %q in run %s", joint, run.ID)
	}
	if frame < 0 || frame >= len(j.Orientations) {
		return fmt.Errorf("frame %d out of range", frame)
	}
	for i := frame; i < len(j.Orientations); i++ {
		j.Orientations[i] = j.Orientations[i].Neg()
	}
	return nil
}

// InvalidateFrame zeroes the joint's quaternion at frame, simulating
// a degenerate tracker sample.
func InvalidateFrame(run *mocap.Run, joint string, frame int) error {
	j := run.Joint(joint)
	if j == nil {
		return fmt.Errorf("no joint %q in run %s", joint, run.ID)
	}
	if frame < 0 || frame >= len(j.Orientations) {
		return fmt.Errorf("frame %d out of range", frame)
	}
	j.Orientations[frame] = mocap.Quat{}
	return nil
}

// WriteCSV writes run in the exported table layout the parser reads:
// a time column plus <joint>_{px,py,pz,qw,qx,qy,qz} per joint.
func WriteCSV(w io.Writer, run *mocap.Run) error {
	if _, err := io.WriteString(w, "time"); err != nil {
		return err
	}
	for i := range run.Joints {
		name := run.Joints[i].Name
		for _, sfx := range []string{"px", "py", "pz", "qw", "qx", "qy", "qz"} {
			if _, err := fmt.Fprintf(w, ",%s_%s", name, sfx); err != nil {
				return err
			}
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}

	for f := 0; f < run.Frames(); f++ {
		if _, err := fmt.Fprintf(w, "%.6f", run.Time[f]); err != nil {
			return err
		}
		for i := range run.Joints {
			p := run.Joints[i].Positions[f]
			q := run.Joints[i].Orientations[f]
			if _, err := fmt.Fprintf(w, ",%.4f,%.4f,%.4f,%.9f,%.9f,%.9f,%.9f",
				p.X, p.Y, p.Z, q.W, q.X, q.Y, q.Z); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
