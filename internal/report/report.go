// Package report renders pipeline results as JSON diagnostics
// documents and residual/velocity charts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/motionlab-data/kinematics.report/internal/burst"
	"github.com/motionlab-data/kinematics.report/internal/filter"
	"github.com/motionlab-data/kinematics.report/internal/kinematics"
	"github.com/motionlab-data/kinematics.report/internal/mocap"
	"github.com/motionlab-data/kinematics.report/internal/pipeline"
)

// Document is the per-run diagnostics record serialized for archival
// next to the recording. Everything a reviewer needs to audit the
// pipeline's choices is on it, including the full residual curves.
type Document struct {
	RunID  string  `json:"run_id"`
	FS     float64 `json:"fs"`
	Frames int     `json:"frames"`

	Integrity []IntegrityEntry `json:"integrity"`
	Filter    FilterSection    `json:"filter"`
	Peaks     []PeakEntry      `json:"peaks"`
	Burst     BurstSection     `json:"burst"`
}

// IntegrityEntry summarizes one joint's quaternion checks.
type IntegrityEntry struct {
	Joint           string  `json:"joint"`
	DriftStatus     string  `json:"drift_status"`
	MaxNormError    float64 `json:"max_norm_error"`
	InvalidFrames   int     `json:"invalid_frames"`
	HemisphereFlips int     `json:"hemisphere_flips"`
}

// FilterSection records the cutoff selection with full provenance.
type FilterSection struct {
	Mode                 string        `json:"mode"`
	CutoffHz             float64       `json:"cutoff_hz"`
	InsufficientCoverage bool          `json:"insufficient_coverage,omitempty"`
	Results              []FilterEntry `json:"results"`
}

// FilterEntry is one region's (or the global) selection record.
type FilterEntry struct {
	Region           string          `json:"region,omitempty"`
	CutoffHz         float64         `json:"cutoff_hz"`
	RawCutoffHz      float64         `json:"raw_cutoff_hz"`
	ResidualRMSmm    float64         `json:"residual_rms_mm"`
	KneeFound        bool            `json:"knee_found"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	GuardrailApplied bool            `json:"guardrail_applied"`
	GuardrailDeltaHz float64         `json:"guardrail_delta_hz,omitempty"`
	Channels         int             `json:"channels"`
	Curve            []CurvePointDoc `json:"curve,omitempty"`
}

// CurvePointDoc is one residual-curve sample.
type CurvePointDoc struct {
	CutoffHz float64 `json:"cutoff_hz"`
	RMSmm    float64 `json:"rms_mm"`
}

// PeakEntry is one kinematic extremum with its provenance.
type PeakEntry struct {
	Quantity string  `json:"quantity"`
	Joint    string  `json:"joint"`
	Frame    int     `json:"frame"`
	Value    float64 `json:"value"`
	Units    string  `json:"units"`
}

// BurstSection records the classifier outcome.
type BurstSection struct {
	TriggerDegS         float64        `json:"trigger_deg_s"`
	Decision            string         `json:"decision"`
	ArtifactRatePercent float64        `json:"artifact_rate_percent"`
	TierCounts          map[string]int `json:"tier_counts,omitempty"`
	Events              []burst.Event  `json:"events,omitempty"`
	RawMaxDegS          float64        `json:"raw_max_deg_s"`
	CleanMaxDegS        float64        `json:"clean_max_deg_s"`
	DataRetainedPercent float64        `json:"data_retained_percent"`
}

// Build assembles the diagnostics document from a pipeline result.
func Build(res *pipeline.Result) *Document {
	doc := &Document{
		RunID:  res.RunID,
		FS:     res.FS,
		Frames: res.Frames,
	}

	for _, rep := range res.QuatReports {
		doc.Integrity = append(doc.Integrity, IntegrityEntry{
			Joint:           rep.Joint,
			DriftStatus:     string(rep.Status),
			MaxNormError:    rep.MaxNormError,
			InvalidFrames:   len(rep.InvalidFrames),
			HemisphereFlips: rep.HemisphereFlips,
		})
	}

	doc.Filter = FilterSection{
		Mode:                 string(res.Filter.Mode),
		CutoffHz:             res.Filter.FilterCutoffHz,
		InsufficientCoverage: res.Filter.InsufficientCoverage,
	}
	for _, fr := range outcomeResults(res.Filter) {
		doc.Filter.Results = append(doc.Filter.Results, filterEntry(fr))
	}

	if res.Kinematics != nil {
		k := res.Kinematics
		doc.Peaks = []PeakEntry{
			peak("angular_velocity", k.PeakAngularVelocity, "deg/s"),
			peak("angular_acceleration", k.PeakAngularAcceleration, "deg/s^2"),
			peak("linear_velocity", k.PeakLinearVelocity, "m/s"),
			peak("linear_acceleration", k.PeakLinearAcceleration, "m/s^2"),
		}
	}

	tiers := make(map[string]int, len(res.Burst.TierCounts))
	for tier, n := range res.Burst.TierCounts {
		tiers[string(tier)] = n
	}
	doc.Burst = BurstSection{
		TriggerDegS:         res.Burst.TriggerDegS,
		Decision:            string(res.Burst.Decision),
		ArtifactRatePercent: res.Burst.ArtifactRatePercent,
		TierCounts:          tiers,
		Events:              res.Burst.Events,
		RawMaxDegS:          res.Burst.Stats.RawMax,
		CleanMaxDegS:        res.Burst.Stats.CleanMax,
		DataRetainedPercent: res.Burst.Stats.DataRetainedPercent,
	}

	return doc
}

// WriteJSON writes the indented diagnostics document for res to w.
func WriteJSON(w io.Writer, res *pipeline.Result) error {
	data, err := json.MarshalIndent(Build(res), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func filterEntry(fr filter.Result) FilterEntry {
	e := FilterEntry{
		Region:           string(fr.Region),
		CutoffHz:         fr.CutoffHz,
		RawCutoffHz:      fr.RawCutoffHz,
		ResidualRMSmm:    fr.ResidualRMSmm,
		KneeFound:        fr.KneeFound,
		FailureReason:    fr.FailureReason,
		GuardrailApplied: fr.GuardrailApplied,
		GuardrailDeltaHz: fr.GuardrailDeltaHz,
		Channels:         fr.Channels,
	}
	for _, p := range fr.Curve {
		e.Curve = append(e.Curve, CurvePointDoc{CutoffHz: p.CutoffHz, RMSmm: p.RMSmm})
	}
	return e
}

func peak(quantity string, ex kinematics.Extremum, units string) PeakEntry {
	return PeakEntry{
		Quantity: quantity,
		Joint:    ex.Joint,
		Frame:    ex.Frame,
		Value:    sanitize(ex.Value),
		Units:    units,
	}
}

// outcomeResults flattens an outcome into its per-region (or single
// global) results in stable region order.
func outcomeResults(o filter.Outcome) []filter.Result {
	if o.Global != nil {
		return []filter.Result{*o.Global}
	}
	out := make([]filter.Result, 0, len(o.PerRegion))
	for _, region := range mocap.Regions {
		if fr, ok := o.PerRegion[region]; ok {
			out = append(out, fr)
		}
	}
	return out
}

// sanitize replaces NaN with 0 for JSON and chart encoders that cannot
// represent it.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
