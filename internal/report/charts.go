package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/motionlab-data/kinematics.report/internal/pipeline"
)

// RenderResidualHTML writes an interactive residual-vs-cutoff chart
// for every selection the run produced. Each region (or the single
// global aggregate) becomes one series, with the chosen cutoff in the
// series name.
func RenderResidualHTML(w io.Writer, res *pipeline.Result) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Residual Analysis " + res.RunID, Width: "1100px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Residual vs cutoff",
			Subtitle: fmt.Sprintf("run=%s fs=%.1f Hz selected=%.2f Hz", res.RunID, res.FS, res.Filter.FilterCutoffHz),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "cutoff (Hz)", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "residual RMS (mm)", NameLocation: "middle", NameGap: 45}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	results := outcomeResults(res.Filter)
	if len(results) == 0 {
		return fmt.Errorf("run %s: no filter results to chart", res.RunID)
	}

	// All sweeps share the same cutoff grid, so the first curve sets
	// the x axis.
	x := make([]string, 0, len(results[0].Curve))
	for _, p := range results[0].Curve {
		x = append(x, fmt.Sprintf("%.2f", p.CutoffHz))
	}
	line.SetXAxis(x)

	for _, fr := range results {
		name := "aggregate"
		if fr.Region != "" {
			name = string(fr.Region)
		}
		name = fmt.Sprintf("%s (%.2f Hz)", name, fr.CutoffHz)

		data := make([]opts.LineData, 0, len(fr.Curve))
		for _, p := range fr.Curve {
			data = append(data, opts.LineData{Value: sanitize(p.RMSmm)})
		}
		line.AddSeries(name, data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render residual chart: %w", err)
	}
	return nil
}

// RenderVelocityHTML writes an angular-velocity timeline chart with
// one series per joint and the burst trigger drawn as a reference
// series. Gaps (NaN frames) render as zero.
func RenderVelocityHTML(w io.Writer, res *pipeline.Result) error {
	if res.Kinematics == nil {
		return fmt.Errorf("run %s: no kinematics to chart", res.RunID)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Angular Velocity " + res.RunID, Width: "1100px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Angular velocity magnitude",
			Subtitle: fmt.Sprintf("run=%s trigger=%.0f deg/s decision=%s", res.RunID, res.Burst.TriggerDegS, res.Burst.Decision),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "deg/s", NameLocation: "middle", NameGap: 45}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	x := make([]int, res.Frames)
	for i := range x {
		x[i] = i
	}
	line.SetXAxis(x)

	for _, jk := range res.Kinematics.Joints {
		data := make([]opts.LineData, 0, len(jk.AngularVelocity))
		for _, v := range jk.AngularVelocity {
			data = append(data, opts.LineData{Value: sanitize(v)})
		}
		line.AddSeries(jk.Joint, data)
	}

	trigger := make([]opts.LineData, res.Frames)
	for i := range trigger {
		trigger[i] = opts.LineData{Value: res.Burst.TriggerDegS}
	}
	line.AddSeries("trigger", trigger, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render velocity chart: %w", err)
	}
	return nil
}
