package wave

import (
	"io"

	"github.com/db47h/irsim"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// laneHeight is the vertical space used by each trace in PNG output.
const laneHeight = 1.5

// RenderPNG draws the traces stacked in a single PNG image, from time 0 to
// end.
//
func RenderPNG(w io.Writer, title string, traces []Trace, end irsim.Time) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (ns)"
	p.X.Min = 0
	p.X.Max = irsim.DeltaToNS(end)
	p.Y.Min = -0.25
	p.Y.Max = laneHeight * float64(len(traces))
	p.Add(plotter.NewGrid())

	var ticks []plot.Tick
	for i := range traces {
		t := &traces[i]
		base := laneHeight * float64(len(traces)-i-1)
		xs, ys := t.steps(end)
		pts := make(plotter.XYs, len(xs))
		for j := range xs {
			pts[j].X = xs[j]
			pts[j].Y = base + ys[j]
		}
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrap(err, t.Name)
		}
		l.Color = plotutil.Color(i)
		p.Add(l)
		ticks = append(ticks, plot.Tick{Value: base + 0.5, Label: t.Name})
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)

	height := vg.Length(len(traces)+1) * vg.Inch
	wt, err := p.WriterTo(10*vg.Inch, height, "png")
	if err != nil {
		return errors.Wrap(err, "render png")
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "render png")
}
