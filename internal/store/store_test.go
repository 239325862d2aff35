package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motionlab-data/kinematics.report/internal/burst"
	"github.com/motionlab-data/kinematics.report/internal/filter"
	"github.com/motionlab-data/kinematics.report/internal/kinematics"
	"github.com/motionlab-data/kinematics.report/internal/mocap"
	"github.com/motionlab-data/kinematics.report/internal/pipeline"
	"github.com/motionlab-data/kinematics.report/internal/quat"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:  "rec-017",
		FS:     120,
		Frames: 2400,
		QuatReports: []quat.Report{
			{Joint: "pelvis", Status: quat.DriftExcellent},
			{Joint: "l_hand", Status: quat.DriftGood, HemisphereFlips: 2},
		},
		Filter: filter.Outcome{
			Mode: filter.KindGlobal,
			Global: &filter.Result{
				CutoffHz:      8.0,
				RawCutoffHz:   6.5,
				FMinHz:        1,
				FMaxHz:        12,
				ResidualRMSmm:    0.42,
				KneeFound:        true,
				GuardrailApplied: true,
				GuardrailDeltaHz: 1.5,
			},
			FilterCutoffHz: 8.0,
		},
		Kinematics: &kinematics.Result{
			PeakAngularVelocity: kinematics.Extremum{Joint: "l_hand", Frame: 812, Value: 1650},
		},
		Burst: burst.Report{
			TriggerDegS: 2000,
			Events: []burst.Event{
				{Joint: "l_hand", StartFrame: 810, EndFrame: 811, DurationFrames: 2, Tier: burst.TierArtifact, PeakVelocityDegS: 2450},
				{Joint: "l_hand", StartFrame: 1500, EndFrame: 1509, DurationFrames: 10, Tier: burst.TierFlow, PeakVelocityDegS: 2210},
			},
			Stats: burst.CleanStats{
				RawMax:              2450,
				CleanMax:            2210,
				DataRetainedPercent: 99.96,
			},
			ArtifactRatePercent: 0.04,
			Decision:            burst.DecisionAcceptHighIntensity,
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	runID, err := s.SaveResult(sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, runID, got.RunID)
	assert.Equal(t, "rec-017", got.SourceID)
	assert.Equal(t, 2400, got.Frames)
	assert.Equal(t, string(quat.DriftGood), got.DriftStatus)
	assert.Equal(t, string(filter.KindGlobal), got.FilterMode)
	assert.Equal(t, 8.0, got.FilterCutoffHz)
	assert.Equal(t, string(burst.DecisionAcceptHighIntensity), got.Decision)
	assert.Equal(t, "l_hand", got.PeakAngVelJoint)
	assert.Equal(t, 1650.0, got.PeakAngVelDegS)

	events, err := s.Events(runID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, burst.TierArtifact, events[0].Tier)
	assert.Equal(t, 810, events[0].StartFrame)
	assert.Equal(t, burst.TierFlow, events[1].Tier)

	frs, err := s.FilterResults(runID)
	require.NoError(t, err)
	require.Len(t, frs, 1)
	assert.Equal(t, 8.0, frs[0].CutoffHz)
	assert.Equal(t, 6.5, frs[0].RawCutoffHz)
	assert.True(t, frs[0].KneeFound)
	assert.True(t, frs[0].GuardrailApplied)
}

func TestStorePerRegionResults(t *testing.T) {
	t.Parallel()

	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	res := sampleResult()
	res.Filter = filter.Outcome{
		Mode: filter.KindPerRegion,
		PerRegion: map[mocap.Region]filter.Result{
			mocap.RegionTrunk:       {Region: mocap.RegionTrunk, CutoffHz: 6.0, KneeFound: true},
			mocap.RegionUpperDistal: {Region: mocap.RegionUpperDistal, CutoffHz: 9.5, KneeFound: true},
		},
		FilterCutoffHz: 7.75,
	}

	runID, err := s.SaveResult(res)
	require.NoError(t, err)

	frs, err := s.FilterResults(runID)
	require.NoError(t, err)
	require.Len(t, frs, 2)

	byRegion := map[mocap.Region]float64{}
	for _, fr := range frs {
		byRegion[fr.Region] = fr.CutoffHz
	}
	assert.Equal(t, 6.0, byRegion[mocap.RegionTrunk])
	assert.Equal(t, 9.5, byRegion[mocap.RegionUpperDistal])
}

func TestStoreEmptyListing(t *testing.T) {
	t.Parallel()

	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
