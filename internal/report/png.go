package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/motionlab-data/kinematics.report/internal/pipeline"
)

var seriesColors = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
}

// SaveResidualPNG writes a static residual-vs-cutoff plot to path, one
// line per selection result, with the chosen cutoffs marked as
// vertical drops in the legend names.
func SaveResidualPNG(res *pipeline.Result, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Residual vs cutoff (run %s)", res.RunID)
	p.X.Label.Text = "cutoff (Hz)"
	p.Y.Label.Text = "residual RMS (mm)"
	p.Legend.Top = true

	results := outcomeResults(res.Filter)
	if len(results) == 0 {
		return fmt.Errorf("run %s: no filter results to plot", res.RunID)
	}

	for i, fr := range results {
		pts := make(plotter.XYs, 0, len(fr.Curve))
		for _, cp := range fr.Curve {
			pts = append(pts, plotter.XY{X: cp.CutoffHz, Y: sanitize(cp.RMSmm)})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("residual line: %w", err)
		}
		line.Width = vg.Points(1.5)
		line.Color = seriesColors[i%len(seriesColors)]
		p.Add(line)

		name := "aggregate"
		if fr.Region != "" {
			name = string(fr.Region)
		}
		p.Legend.Add(fmt.Sprintf("%s (%.2f Hz)", name, fr.CutoffHz), line)
	}

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save residual plot: %w", err)
	}
	return nil
}
