package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lidar.perception/internal/fsutil"
)

// ErrNoObjects is returned when there is nothing to chart.
var ErrNoObjects = errors.New("no tracked objects")

const (
	// Output file names used by the analysis command.
	UniqueCountsPNG      = "unique_object_counts.png"
	DurationHistogramPNG = "tracking_durations_histogram.png"
	ReportHTML           = "report.html"

	pngWidth  = 10 * vg.Inch
	pngHeight = 6 * vg.Inch
)

var classColors = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

// UniqueCountsPlot builds a bar chart of unique objects per class, with
// the exact count above each bar.
func UniqueCountsPlot(s *Summary) (*plot.Plot, error) {
	classes := s.ClassOrder()
	if len(classes) == 0 {
		return nil, ErrNoObjects
	}

	p := plot.New()
	p.Title.Text = "Count of Unique Objects Detected Across All Frames"
	p.X.Label.Text = "Object Class"
	p.Y.Label.Text = "Number of Unique Objects"

	names := make([]string, len(classes))
	labels := plotter.XYLabels{XYs: make(plotter.XYs, len(classes)), Labels: make([]string, len(classes))}
	for i, c := range classes {
		n := s.UniqueCounts[c]
		names[i] = string(c)

		values := make(plotter.Values, len(classes))
		values[i] = float64(n)
		bar, err := plotter.NewBarChart(values, vg.Points(40))
		if err != nil {
			return nil, fmt.Errorf("bar chart: %w", err)
		}
		bar.Color = classColors[i%len(classColors)]
		bar.LineStyle.Width = 0
		p.Add(bar)

		labels.XYs[i] = plotter.XY{X: float64(i), Y: float64(n)}
		labels.Labels[i] = strconv.Itoa(n)
	}

	countLabels, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("bar labels: %w", err)
	}
	for i := range countLabels.TextStyle {
		countLabels.TextStyle[i].XAlign = -0.5
	}
	countLabels.Offset = vg.Point{Y: vg.Points(3)}
	p.Add(countLabels)
	p.NominalX(names...)
	p.Y.Min = 0
	return p, nil
}

// DurationHistogramPlot builds a histogram of tracking durations on a
// logarithmic count axis.
func DurationHistogramPlot(s *Summary, bins int) (*plot.Plot, error) {
	if len(s.Objects) == 0 {
		return nil, ErrNoObjects
	}

	p := plot.New()
	p.Title.Text = "Distribution of Object Tracking Durations"
	p.X.Label.Text = "Number of Frames an Object was Tracked (Tracking Duration)"
	p.Y.Label.Text = "Number of Objects"

	hb := s.DurationHistogram(bins)
	h := &plotter.Histogram{
		Bins:      make([]plotter.HistogramBin, len(hb)),
		Width:     hb[0].Max - hb[0].Min,
		LineStyle: plotter.DefaultLineStyle,
	}
	for i, b := range hb {
		h.Bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: float64(b.Count)}
	}
	h.FillColor = color.RGBA{R: 0x87, G: 0xce, B: 0xeb, A: 0xff}
	h.LineStyle.Color = color.Black
	h.LogY = true
	p.Add(h)
	// Short-lived tracks dominate; a log axis keeps the tail visible.
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	return p, nil
}

// WritePNG renders p as a PNG file.
func WritePNG(fs fsutil.FileSystem, path string, p *plot.Plot) error {
	wt, err := p.WriterTo(pngWidth, pngHeight, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := fs.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// RenderUniqueCountsPNG writes the unique-object bar chart to path.
func RenderUniqueCountsPNG(fs fsutil.FileSystem, path string, s *Summary) error {
	p, err := UniqueCountsPlot(s)
	if err != nil {
		return err
	}
	return WritePNG(fs, path, p)
}

// RenderDurationHistogramPNG writes the tracking-duration histogram to path.
func RenderDurationHistogramPNG(fs fsutil.FileSystem, path string, s *Summary) error {
	p, err := DurationHistogramPlot(s, DefaultHistogramBins)
	if err != nil {
		return err
	}
	return WritePNG(fs, path, p)
}

// RenderHTML writes a self-contained page with both charts. assetsHost
// overrides where the echarts scripts are loaded from; empty keeps the
// library default.
func RenderHTML(w io.Writer, s *Summary, assetsHost string) error {
	if len(s.Objects) == 0 {
		return ErrNoObjects
	}

	classes := s.ClassOrder()
	names := make([]string, len(classes))
	counts := make([]opts.BarData, len(classes))
	for i, c := range classes {
		names[i] = string(c)
		counts[i] = opts.BarData{Value: s.UniqueCounts[c]}
	}

	classBar := charts.NewBar()
	classBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "500px", AssetsHost: assetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Unique Objects by Class",
			Subtitle: fmt.Sprintf("frames=%d detections=%d objects=%d", s.Frames, s.Detections, len(s.Objects)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Objects"}),
	)
	classBar.SetXAxis(names).
		AddSeries("objects", counts,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	bins := s.DurationHistogram(DefaultHistogramBins)
	binNames := make([]string, len(bins))
	binCounts := make([]opts.BarData, len(bins))
	for i, b := range bins {
		binNames[i] = fmt.Sprintf("%.1f-%.1f", b.Min, b.Max)
		binCounts[i] = opts.BarData{Value: b.Count}
	}

	durationBar := charts.NewBar()
	durationBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "500px", AssetsHost: assetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Tracking Durations", Subtitle: "frames per object"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frames", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Objects"}),
	)
	durationBar.SetXAxis(binNames).AddSeries("durations", binCounts)

	page := components.NewPage()
	page.SetPageTitle("Perception Run Report")
	if assetsHost != "" {
		page.SetAssetsHost(assetsHost)
	}
	page.AddCharts(classBar, durationBar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render report page: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
