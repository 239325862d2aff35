package burst

import (
	"math"
)

// Tier is the duration-based classification of a contiguous
// over-threshold run.
type Tier string

const (
	// TierArtifact is a 1–3 frame run (<~25 ms at 120 Hz):
	// physiologically impossible to sustain, excluded from clean
	// statistics.
	TierArtifact Tier = "artifact"
	// TierBurst is a 4–7 frame run (33–58 ms): plausible rapid
	// movement, flagged for review but retained.
	TierBurst Tier = "burst"
	// TierFlow is a run of 8 or more frames (>=65 ms): sustained
	// intentional movement, retained and accepted.
	TierFlow Tier = "flow"
)

// Classification thresholds. Protocol constants, not per-recording
// tunables.
const (
	// DefaultTriggerDegS is the angular velocity above which a frame
	// joins an event run.
	DefaultTriggerDegS = 2000.0

	// ArtifactMaxFrames is the longest run still classified ARTIFACT.
	ArtifactMaxFrames = 3
	// BurstMaxFrames is the longest run still classified BURST.
	BurstMaxFrames = 7

	// ReviewArtifactRatePercent is the artifact rate at which a run
	// needs manual review.
	ReviewArtifactRatePercent = 0.5
	// RejectArtifactRatePercent is the artifact rate indicating a
	// systemic tracking failure.
	RejectArtifactRatePercent = 1.0
)

// Decision is the overall quality verdict for a run.
type Decision string

const (
	// DecisionPass indicates no retained events and at most trace
	// artifacts.
	DecisionPass Decision = "pass"
	// DecisionAcceptHighIntensity indicates sustained high-intensity
	// movement: events present, all FLOW-tier.
	DecisionAcceptHighIntensity Decision = "accept_high_intensity"
	// DecisionReview indicates BURST-tier events or an elevated
	// artifact rate.
	DecisionReview Decision = "review"
	// DecisionReject indicates an artifact rate consistent with a
	// systemic tracking failure.
	DecisionReject Decision = "reject"
)

// Event is one contiguous over-threshold run.
// Invariant: DurationFrames == EndFrame - StartFrame + 1.
type Event struct {
	Joint            string  `json:"joint"`
	StartFrame       int     `json:"start_frame"`
	EndFrame         int     `json:"end_frame"`
	DurationFrames   int     `json:"duration_frames"`
	Tier             Tier    `json:"tier"`
	PeakVelocityDegS float64 `json:"peak_velocity_deg_s"`
}

// CleanStats compares the series statistics before and after masking
// artifact-tier frames.
type CleanStats struct {
	RawMax    float64
	RawMean   float64
	CleanMax  float64
	CleanMean float64

	// ArtifactsRemoved counts ARTIFACT-tier events.
	ArtifactsRemoved int
	// ArtifactFrames counts the frames those events covered.
	ArtifactFrames int

	DataRetainedPercent float64
	MaxReductionPercent float64
}

// Report is the classifier's full diagnostic record for a run.
type Report struct {
	TriggerDegS float64

	Events     []Event
	TierCounts map[Tier]int

	Stats               CleanStats
	ArtifactRatePercent float64
	Decision            Decision
}

// Series is one joint's angular-velocity magnitude input, aligned to
// the run timeline. NaN marks frames the integrity stage invalidated.
type Series struct {
	Joint  string
	Values []float64 // deg/s
}

// TierFor classifies a run duration. Pure function of the duration:
// the same length always lands in the same tier, independent of joint
// or recording.
func TierFor(durationFrames int) Tier {
	switch {
	case durationFrames <= ArtifactMaxFrames:
		return TierArtifact
	case durationFrames <= BurstMaxFrames:
		return TierBurst
	default:
		return TierFlow
	}
}

// DetectEvents finds every contiguous run of frames exceeding the
// trigger in one series. NaN frames never join a run; they terminate
// any open one.
func DetectEvents(s Series, triggerDegS float64) []Event {
	var events []Event
	start := -1
	var peak float64

	flush := func(end int) {
		if start < 0 {
			return
		}
		d := end - start + 1
		events = append(events, Event{
			Joint:            s.Joint,
			StartFrame:       start,
			EndFrame:         end,
			DurationFrames:   d,
			Tier:             TierFor(d),
			PeakVelocityDegS: peak,
		})
		start = -1
		peak = 0
	}

	for i, v := range s.Values {
		if !math.IsNaN(v) && v > triggerDegS {
			if start < 0 {
				start = i
			}
			if v > peak {
				peak = v
			}
			continue
		}
		flush(i - 1)
	}
	flush(len(s.Values) - 1)
	return events
}

// Analyze classifies every series of a run and derives the clean
// statistics and overall decision. triggerDegS <= 0 selects the
// protocol default.
func Analyze(series []Series, triggerDegS float64) Report {
	if triggerDegS <= 0 {
		triggerDegS = DefaultTriggerDegS
	}

	rep := Report{
		TriggerDegS: triggerDegS,
		TierCounts:  map[Tier]int{},
	}

	// Artifact frames are masked per joint before computing clean
	// statistics; raw statistics keep every valid frame.
	var totalFrames int
	var rawSum, cleanSum float64
	var rawCount, cleanCount int
	rawMax, cleanMax := math.Inf(-1), math.Inf(-1)

	for _, s := range series {
		events := DetectEvents(s, triggerDegS)
		rep.Events = append(rep.Events, events...)

		artifact := make(map[int]bool)
		for _, e := range events {
			rep.TierCounts[e.Tier]++
			if e.Tier == TierArtifact {
				rep.Stats.ArtifactsRemoved++
				rep.Stats.ArtifactFrames += e.DurationFrames
				for f := e.StartFrame; f <= e.EndFrame; f++ {
					artifact[f] = true
				}
			}
		}

		totalFrames += len(s.Values)
		for i, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			rawSum += v
			rawCount++
			if v > rawMax {
				rawMax = v
			}
			if artifact[i] {
				continue
			}
			cleanSum += v
			cleanCount++
			if v > cleanMax {
				cleanMax = v
			}
		}
	}

	if rawCount > 0 {
		rep.Stats.RawMax = rawMax
		rep.Stats.RawMean = rawSum / float64(rawCount)
	}
	if cleanCount > 0 {
		rep.Stats.CleanMax = cleanMax
		rep.Stats.CleanMean = cleanSum / float64(cleanCount)
	}
	if totalFrames > 0 {
		rep.Stats.DataRetainedPercent = 100 * float64(totalFrames-rep.Stats.ArtifactFrames) / float64(totalFrames)
		rep.ArtifactRatePercent = 100 * float64(rep.Stats.ArtifactFrames) / float64(totalFrames)
	}
	if rep.Stats.RawMax > 0 {
		rep.Stats.MaxReductionPercent = 100 * (rep.Stats.RawMax - rep.Stats.CleanMax) / rep.Stats.RawMax
	}

	rep.Decision = decide(rep)
	return rep
}

// decide maps the tier counts and artifact rate onto the overall
// verdict. Precedence: systemic failure, then review triggers, then
// accepted high intensity.
func decide(rep Report) Decision {
	if len(rep.Events) == 0 {
		return DecisionPass
	}
	if rep.ArtifactRatePercent > RejectArtifactRatePercent {
		return DecisionReject
	}
	if rep.TierCounts[TierBurst] > 0 || rep.ArtifactRatePercent >= ReviewArtifactRatePercent {
		return DecisionReview
	}
	if rep.TierCounts[TierFlow] > 0 {
		return DecisionAcceptHighIntensity
	}
	// Only trace artifacts remain; they were removed from the clean
	// statistics, so the run passes.
	return DecisionPass
}
