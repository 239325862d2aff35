// Command synth-run generates synthetic motion-capture .csv
// recordings for exercising the pipeline without lab data.
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/motionlab-data/kinematics.report/internal/synth"
)

func main() {
	output := flag.String("o", "synthetic.csv", "output path")
	joints := flag.String("joints", "pelvis,l_hand,r_hand", "comma-separated joint names")
	frames := flag.Int("n", 2400, "number of frames")
	fs := flag.Float64("fs", 120, "sample rate (Hz)")
	rate := flag.Float64("rate", 90, "constant rotation rate (deg/s)")
	noise := flag.Float64("noise", 0.5, "position noise amplitude (mm)")
	seed := flag.Int64("seed", 1, "random seed")
	spikeAt := flag.Int("spike-at", -1, "frame to inject a 2-frame orientation artifact (-1 for none)")
	flipAt := flag.Int("flip-at", -1, "frame to inject a hemisphere flip (-1 for none)")
	flag.Parse()

	cfg := synth.Config{
		Joints:       strings.Split(*joints, ","),
		Frames:       *frames,
		FS:           *fs,
		RotationDegS: *rate,
		NoiseMM:      *noise,
		Seed:         *seed,
	}

	run, err := synth.Generate(cfg)
	if err != nil {
		log.Fatalf("generate: %v", err)
	}

	target := cfg.Joints[len(cfg.Joints)-1]
	if *spikeAt >= 0 {
		// 25 degrees in one frame at 120 Hz is roughly 3000 deg/s,
		// comfortably over the default burst trigger.
		if err := synth.InjectOrientationSpike(run, target, *spikeAt, 2, 25); err != nil {
			log.Fatalf("inject spike: %v", err)
		}
	}
	if *flipAt >= 0 {
		if err := synth.InjectHemisphereFlip(run, target, *flipAt); err != nil {
			log.Fatalf("inject flip: %v", err)
		}
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	defer f.Close()

	if err := synth.WriteCSV(f, run); err != nil {
		log.Fatalf("write: %v", err)
	}
	log.Printf("wrote %d frames x %d joints to %s", *frames, len(cfg.Joints), *output)
}
