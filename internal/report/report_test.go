package report

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motionlab-data/kinematics.report/internal/burst"
	"github.com/motionlab-data/kinematics.report/internal/filter"
	"github.com/motionlab-data/kinematics.report/internal/kinematics"
	"github.com/motionlab-data/kinematics.report/internal/pipeline"
	"github.com/motionlab-data/kinematics.report/internal/quat"
)

func sampleResult() *pipeline.Result {
	curve := []filter.ResidualPoint{
		{CutoffHz: 1, RMSmm: 2.1},
		{CutoffHz: 2, RMSmm: 1.2},
		{CutoffHz: 3, RMSmm: 0.6},
		{CutoffHz: 4, RMSmm: 0.45},
		{CutoffHz: 5, RMSmm: 0.42},
		{CutoffHz: 6, RMSmm: 0.41},
	}
	return &pipeline.Result{
		RunID:  "rec-042",
		FS:     120,
		Frames: 6,
		QuatReports: []quat.Report{
			{Joint: "pelvis", Status: quat.DriftExcellent, MaxNormError: 2e-7},
		},
		Filter: filter.Outcome{
			Mode: filter.KindGlobal,
			Global: &filter.Result{
				CutoffHz:      4,
				RawCutoffHz:   4,
				ResidualRMSmm: 0.45,
				KneeFound:     true,
				Channels:      3,
				Curve:         curve,
			},
			FilterCutoffHz: 4,
		},
		Kinematics: &kinematics.Result{
			Method: kinematics.MethodQuatLog,
			Joints: []kinematics.JointKinematics{
				{Joint: "pelvis", AngularVelocity: []float64{10, 12, math.NaN(), 14, 11, 9}},
			},
			PeakAngularVelocity: kinematics.Extremum{Joint: "pelvis", Frame: 3, Value: 14},
		},
		Burst: burst.Report{
			TriggerDegS: 2000,
			TierCounts:  map[burst.Tier]int{},
			Stats:       burst.CleanStats{DataRetainedPercent: 100},
			Decision:    burst.DecisionPass,
		},
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult()))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "rec-042", doc.RunID)
	require.Len(t, doc.Integrity, 1)
	assert.Equal(t, string(quat.DriftExcellent), doc.Integrity[0].DriftStatus)

	assert.Equal(t, string(filter.KindGlobal), doc.Filter.Mode)
	require.Len(t, doc.Filter.Results, 1)
	assert.Equal(t, 4.0, doc.Filter.Results[0].CutoffHz)
	assert.Len(t, doc.Filter.Results[0].Curve, 6)

	require.Len(t, doc.Peaks, 4)
	assert.Equal(t, "angular_velocity", doc.Peaks[0].Quantity)
	assert.Equal(t, "pelvis", doc.Peaks[0].Joint)
	assert.Equal(t, 14.0, doc.Peaks[0].Value)

	assert.Equal(t, string(burst.DecisionPass), doc.Burst.Decision)
}

func TestRenderResidualHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderResidualHTML(&buf, sampleResult()))
	html := buf.String()
	assert.True(t, strings.Contains(html, "echarts"))
	assert.Contains(t, html, "aggregate (4.00 Hz)")
}

func TestRenderVelocityHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderVelocityHTML(&buf, sampleResult()))
	html := buf.String()
	assert.Contains(t, html, "pelvis")
	assert.Contains(t, html, "trigger")
	// NaN frames must not leak into the chart payload.
	assert.NotContains(t, html, "NaN")
}

func TestSaveResidualPNG(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "residual.png")
	require.NoError(t, SaveResidualPNG(sampleResult(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderResidualHTMLNoResults(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	res.Filter = filter.Outcome{Mode: filter.KindPerRegion, InsufficientCoverage: true}
	var buf bytes.Buffer
	assert.Error(t, RenderResidualHTML(&buf, res))
}
