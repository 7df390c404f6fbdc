package wave

import (
	"io"

	"github.com/db47h/irsim"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/pkg/errors"
)

// RenderHTML writes an HTML page with one step chart per trace, from time 0
// to end.
//
func RenderHTML(w io.Writer, title string, traces []Trace, end irsim.Time) error {
	page := components.NewPage()
	page.PageTitle = title
	for i := range traces {
		t := &traces[i]
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{
				Theme:  types.ThemeWesteros,
				Height: "180px",
			}),
			charts.WithTitleOpts(opts.Title{
				Title: t.Name,
			}),
			charts.WithXAxisOpts(opts.XAxis{
				Name: "ns",
				Type: "value",
				Max:  irsim.DeltaToNS(end),
			}),
			charts.WithYAxisOpts(opts.YAxis{
				Min: 0,
				Max: 1,
			}),
			charts.WithDataZoomOpts(opts.DataZoom{
				Type:       "inside",
				XAxisIndex: []int{0},
			}),
		)
		xs, ys := t.steps(end)
		data := make([]opts.LineData, len(xs))
		for j := range xs {
			data[j] = opts.LineData{Value: []interface{}{xs[j], ys[j]}}
		}
		line.AddSeries(t.Name, data)
		page.AddCharts(line)
	}
	return errors.Wrap(page.Render(w), "render html")
}
