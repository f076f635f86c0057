// Package chart renders reconstructed series and presence intervals as
// PNG or SVG line charts.
package chart

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/hpungsan/statustracker/internal/errors"
	"github.com/hpungsan/statustracker/internal/tracker"
)

// Format selects the output encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() gochart.RendererProvider {
	if f == SVG {
		return gochart.SVG
	}
	return gochart.PNG
}

// ParseFormat accepts "png" or "svg" (case-insensitive); empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", PNG:
		return PNG, nil
	case SVG:
		return SVG, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unsupported chart format %q", s))
}

// Options sizes and titles a chart. Zero values pick defaults.
type Options struct {
	Width  int
	Height int
	Title  string
}

// Size limits keep a single render well under 32MB of canvas.
const (
	MaxWidth  = 4096
	MaxHeight = 2048
)

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 1024
	}
	if h <= 0 {
		h = 400
	}
	return min(w, MaxWidth), min(h, MaxHeight)
}

const timeLayout = "01-02 15:04"

// lineStyle draws a plain line with no dots.
func lineStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
	}
}

// Counts renders every category column of window as one line. Untracked
// minutes are gaps. Returns a NO_DATA error when nothing is tracked.
func Counts(w io.Writer, s *tracker.Series, window tracker.RollingAverage, f Format, opts Options) error {
	if s == nil || s.Len() == 0 {
		return errors.NewNoData("counts chart")
	}

	times := s.Times()
	var series, legend []gochart.Series
	minY, maxY := math.MaxFloat64, -math.MaxFloat64

	for i, c := range s.Categories(window) {
		col, _ := s.Column(window, c)
		style := lineStyle(gochart.GetDefaultColor(i))
		for j, run := range runs(times, col) {
			for _, v := range run.YValues {
				minY = min(minY, v)
				maxY = max(maxY, v)
			}
			run.Name = string(c)
			run.Style = style
			series = append(series, run)
			if j == 0 {
				legend = append(legend, run)
			}
		}
	}
	if len(series) == 0 {
		return errors.NewNoData("counts chart")
	}

	if maxY <= minY {
		maxY = minY + 1
	}
	title := opts.Title
	if title == "" {
		title = "Players online (" + window.Label() + ")"
	}
	return render(w, f, opts, title, "players", &gochart.ContinuousRange{Min: math.Min(0, minY), Max: maxY}, series, legend)
}

// runs splits a column at untracked minutes so gaps are not drawn.
// go-chart needs at least two X values per series, so a lone point is
// widened to half a minute.
func runs(times []time.Time, col tracker.Values) []gochart.TimeSeries {
	var out []gochart.TimeSeries
	var cur gochart.TimeSeries
	flush := func() {
		switch len(cur.XValues) {
		case 0:
			return
		case 1:
			cur.XValues = append(cur.XValues, cur.XValues[0].Add(30*time.Second))
			cur.YValues = append(cur.YValues, cur.YValues[0])
		}
		out = append(out, cur)
		cur = gochart.TimeSeries{}
	}
	for i, v := range col {
		if i >= len(times) {
			break
		}
		if math.IsNaN(v) {
			flush()
			continue
		}
		cur.XValues = append(cur.XValues, times[i])
		cur.YValues = append(cur.YValues, v)
	}
	flush()
	return out
}

// Sessions renders intervals as a 0/1 step line over [from, to]. Open
// intervals run to the end of the range.
func Sessions(w io.Writer, name string, ivs []tracker.Interval, from, to tracker.MinuteTimestamp, f Format, opts Options) error {
	if to <= from {
		return errors.NewInvalidRequest("sessions chart needs a range of at least two minutes")
	}

	xs := []time.Time{from.Time()}
	ys := []float64{0}
	step := func(m tracker.MinuteTimestamp, before, after float64) {
		t := m.Time()
		xs = append(xs, t, t)
		ys = append(ys, before, after)
	}
	for _, iv := range tracker.Bounded(ivs, to+1) {
		start := max(iv.Start, from)
		end := min(iv.End, to+1)
		if end <= start {
			continue
		}
		step(start, 0, 1)
		step(end, 1, 0)
	}
	xs = append(xs, (to + 1).Time())
	ys = append(ys, 0)

	title := opts.Title
	if title == "" {
		title = name + " online"
	}
	series := []gochart.Series{gochart.TimeSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style: gochart.Style{
			StrokeColor: gochart.ColorBlue,
			StrokeWidth: 2,
			FillColor:   gochart.ColorBlue.WithAlpha(64),
		},
	}}
	return render(w, f, opts, title, "online", &gochart.ContinuousRange{Min: 0, Max: 1.2}, series, series)
}

// render draws series with a legend listing only the legend series.
func render(w io.Writer, f Format, opts Options, title, yName string, yRange *gochart.ContinuousRange, series, legend []gochart.Series) error {
	width, height := opts.size()
	ch := gochart.Chart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat(timeLayout),
		},
		YAxis:  gochart.YAxis{Name: yName, Range: yRange},
		Series: series,
	}
	keys := ch
	keys.Series = legend
	ch.Elements = []gochart.Renderable{gochart.Legend(&keys)}

	if err := ch.Render(f.provider(), w); err != nil {
		return errors.NewInternal(fmt.Errorf("render chart: %w", err))
	}
	return nil
}
