// Package store persists pipeline results to SQLite for the report
// and browse layers.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/motionlab-data/kinematics.report/internal/burst"
	"github.com/motionlab-data/kinematics.report/internal/filter"
	"github.com/motionlab-data/kinematics.report/internal/mocap"
	"github.com/motionlab-data/kinematics.report/internal/pipeline"
)

type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the results database at path. Use
// ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: sqlite serialises writers anyway, and it keeps
	// ":memory:" databases from splitting across pool connections.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			source_id TEXT,
			processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			fs DOUBLE,
			frames INTEGER,
			drift_status TEXT,
			filter_mode TEXT,
			filter_cutoff_hz DOUBLE,
			insufficient_coverage INTEGER DEFAULT 0,
			decision TEXT,
			artifact_rate_percent DOUBLE,
			raw_max_deg_s DOUBLE,
			clean_max_deg_s DOUBLE,
			data_retained_percent DOUBLE,
			peak_ang_vel_deg_s DOUBLE,
			peak_ang_vel_joint TEXT,
			peak_ang_vel_frame INTEGER
		);
		CREATE TABLE IF NOT EXISTS filter_results (
			run_id TEXT,
			region TEXT,
			cutoff_hz DOUBLE,
			raw_cutoff_hz DOUBLE,
			fmin_hz DOUBLE,
			fmax_hz DOUBLE,
			residual_rms_mm DOUBLE,
			knee_found INTEGER,
			failure_reason TEXT,
			guardrail_applied INTEGER,
			guardrail_delta_hz DOUBLE,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS burst_events (
			run_id TEXT,
			joint TEXT,
			start_frame INTEGER,
			end_frame INTEGER,
			duration_frames INTEGER,
			tier TEXT,
			peak_velocity_deg_s DOUBLE,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db}, nil
}

// SaveResult persists one pipeline result and returns the generated
// run identifier.
func (s *Store) SaveResult(res *pipeline.Result) (string, error) {
	runID := uuid.NewString()

	tx, err := s.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, source_id, fs, frames, drift_status,
			filter_mode, filter_cutoff_hz, insufficient_coverage,
			decision, artifact_rate_percent,
			raw_max_deg_s, clean_max_deg_s, data_retained_percent,
			peak_ang_vel_deg_s, peak_ang_vel_joint, peak_ang_vel_frame
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.RunID, res.FS, res.Frames, string(res.WorstDrift()),
		string(res.Filter.Mode), res.Filter.FilterCutoffHz, boolInt(res.Filter.InsufficientCoverage),
		string(res.Burst.Decision), res.Burst.ArtifactRatePercent,
		res.Burst.Stats.RawMax, res.Burst.Stats.CleanMax, res.Burst.Stats.DataRetainedPercent,
		peakValue(res), peakJoint(res), peakFrame(res),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, fr := range filterResults(res.Filter) {
		_, err = tx.Exec(`
			INSERT INTO filter_results (
				run_id, region, cutoff_hz, raw_cutoff_hz, fmin_hz, fmax_hz,
				residual_rms_mm, knee_found, failure_reason,
				guardrail_applied, guardrail_delta_hz
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, string(fr.Region), fr.CutoffHz, fr.RawCutoffHz, fr.FMinHz, fr.FMaxHz,
			fr.ResidualRMSmm, boolInt(fr.KneeFound), fr.FailureReason,
			boolInt(fr.GuardrailApplied), fr.GuardrailDeltaHz,
		)
		if err != nil {
			return "", fmt.Errorf("insert filter result: %w", err)
		}
	}

	for _, e := range res.Burst.Events {
		_, err = tx.Exec(`
			INSERT INTO burst_events (
				run_id, joint, start_frame, end_frame,
				duration_frames, tier, peak_velocity_deg_s
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, e.Joint, e.StartFrame, e.EndFrame,
			e.DurationFrames, string(e.Tier), e.PeakVelocityDegS,
		)
		if err != nil {
			return "", fmt.Errorf("insert burst event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// RunSummary is one row of the runs table for listing.
type RunSummary struct {
	RunID               string  `json:"run_id"`
	SourceID            string  `json:"source_id"`
	FS                  float64 `json:"fs"`
	Frames              int     `json:"frames"`
	DriftStatus         string  `json:"drift_status"`
	FilterMode          string  `json:"filter_mode"`
	FilterCutoffHz      float64 `json:"filter_cutoff_hz"`
	Decision            string  `json:"decision"`
	ArtifactRatePercent float64 `json:"artifact_rate_percent"`
	DataRetainedPercent float64 `json:"data_retained_percent"`
	PeakAngVelDegS      float64 `json:"peak_ang_vel_deg_s"`
	PeakAngVelJoint     string  `json:"peak_ang_vel_joint"`
}

// ListRuns returns run summaries, most recent first.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.Query(`
		SELECT run_id, source_id, fs, frames, drift_status,
		       filter_mode, filter_cutoff_hz, decision,
		       artifact_rate_percent, data_retained_percent,
		       peak_ang_vel_deg_s, peak_ang_vel_joint
		FROM runs ORDER BY processed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(
			&r.RunID, &r.SourceID, &r.FS, &r.Frames, &r.DriftStatus,
			&r.FilterMode, &r.FilterCutoffHz, &r.Decision,
			&r.ArtifactRatePercent, &r.DataRetainedPercent,
			&r.PeakAngVelDegS, &r.PeakAngVelJoint,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Events returns the burst events recorded for a run.
func (s *Store) Events(runID string) ([]burst.Event, error) {
	rows, err := s.Query(`
		SELECT joint, start_frame, end_frame, duration_frames, tier, peak_velocity_deg_s
		FROM burst_events WHERE run_id = ? ORDER BY start_frame`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []burst.Event
	for rows.Next() {
		var e burst.Event
		var tier string
		if err := rows.Scan(&e.Joint, &e.StartFrame, &e.EndFrame, &e.DurationFrames, &tier, &e.PeakVelocityDegS); err != nil {
			return nil, err
		}
		e.Tier = burst.Tier(tier)
		out = append(out, e)
	}
	return out, rows.Err()
}

// FilterResults returns the stored cutoff records for a run.
func (s *Store) FilterResults(runID string) ([]filter.Result, error) {
	rows, err := s.Query(`
		SELECT region, cutoff_hz, raw_cutoff_hz, fmin_hz, fmax_hz,
		       residual_rms_mm, knee_found, failure_reason,
		       guardrail_applied, guardrail_delta_hz
		FROM filter_results WHERE run_id = ? ORDER BY region`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []filter.Result
	for rows.Next() {
		var fr filter.Result
		var region string
		var knee, guard int
		if err := rows.Scan(&region, &fr.CutoffHz, &fr.RawCutoffHz, &fr.FMinHz, &fr.FMaxHz,
			&fr.ResidualRMSmm, &knee, &fr.FailureReason, &guard, &fr.GuardrailDeltaHz); err != nil {
			return nil, err
		}
		fr.Region = mocap.Region(region)
		fr.KneeFound = knee != 0
		fr.GuardrailApplied = guard != 0
		out = append(out, fr)
	}
	return out, rows.Err()
}

func filterResults(o filter.Outcome) []filter.Result {
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

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func peakValue(res *pipeline.Result) float64 {
	if res.Kinematics == nil {
		return 0
	}
	return res.Kinematics.PeakAngularVelocity.Value
}

func peakJoint(res *pipeline.Result) string {
	if res.Kinematics == nil {
		return ""
	}
	return res.Kinematics.PeakAngularVelocity.Joint
}

func peakFrame(res *pipeline.Result) int {
	if res.Kinematics == nil {
		return -1
	}
	return res.Kinematics.PeakAngularVelocity.Frame
}
