package output

import (
	"fmt"
	"io"
	"math"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/nconklindev/tally/internal/types"
)

// Chart image size in pixels.
const (
	ChartWidth  = 640
	ChartHeight = 400
)

// HistogramBins matches the default bin count of a pandas histogram.
const HistogramBins = 10

// MaxPieSlices caps the slices drawn in a pie; smaller categories are
// merged into a single remainder slice.
const MaxPieSlices = 20

// OtherLabel names the merged remainder slice.
const OtherLabel = "Otros"

// Bin is one histogram bar: values in [Low, High), the last bin closed.
type Bin struct {
	Low   float64
	High  float64
	Count int
}

// Slice is one pie wedge.
type Slice struct {
	Label string
	Count int
}

// ChartRenderer draws chart images.
type ChartRenderer interface {
	Histogram(w io.Writer, title string, bins []Bin) error
	Pie(w io.Writer, title string, slices []Slice) error
}

// Histogram splits values into n equal-width bins over [min, max]. A
// column with a single distinct value is centred in a unit-wide range.
// Non-finite values are ignored.
func Histogram(values []float64, n int) []Bin {
	if n < 1 {
		return nil
	}
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	dividers := floats.Span(make([]float64, n+1), lo, hi)
	// stat.Histogram bins are half-open, so the top divider is nudged up for
	// the maximum to land in the last bin.
	dividers[n] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Low: dividers[i], High: dividers[i+1], Count: int(counts[i])}
	}
	bins[n-1].High = hi
	return bins
}

// Frequencies counts the distinct values, most frequent first; ties keep
// label order. Beyond limit slices the rest are merged into OtherLabel.
func Frequencies(values []any, limit int) []Slice {
	counts := make(map[string]int)
	for _, v := range values {
		if v == nil {
			continue
		}
		counts[types.FormatCell(v)]++
	}

	slices := make([]Slice, 0, len(counts))
	for label, n := range counts {
		slices = append(slices, Slice{Label: label, Count: n})
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Count != slices[j].Count {
			return slices[i].Count > slices[j].Count
		}
		return slices[i].Label < slices[j].Label
	})

	if limit > 1 && len(slices) > limit {
		rest := 0
		for _, s := range slices[limit-1:] {
			rest += s.Count
		}
		slices = append(slices[:limit-1], Slice{Label: OtherLabel, Count: rest})
	}
	return slices
}

// GoChartRenderer renders PNG images with go-chart.
type GoChartRenderer struct {
	Width  int
	Height int
}

func NewGoChartRenderer() *GoChartRenderer {
	return &GoChartRenderer{Width: ChartWidth, Height: ChartHeight}
}

func (r *GoChartRenderer) Histogram(w io.Writer, title string, bins []Bin) error {
	if len(bins) == 0 {
		return fmt.Errorf("histogram %q: no data", title)
	}

	bars := make([]chart.Value, len(bins))
	maxCount := 1
	for i, b := range bins {
		bars[i] = chart.Value{Value: float64(b.Count), Label: fmt.Sprintf("%.4g", b.Low)}
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   (r.Width - 80) / len(bins) * 3 / 4,
		BarSpacing: 4,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

func (r *GoChartRenderer) Pie(w io.Writer, title string, slices []Slice) error {
	total := 0
	for _, s := range slices {
		total += s.Count
	}
	if total == 0 {
		return fmt.Errorf("pie %q: no data", title)
	}

	values := make([]chart.Value, len(slices))
	for i, s := range slices {
		pct := float64(s.Count) / float64(total) * 100
		values[i] = chart.Value{Value: float64(s.Count), Label: fmt.Sprintf("%s %.1f%%", s.Label, pct)}
	}

	graph := chart.PieChart{
		Title:  title,
		Width:  r.Width,
		Height: r.Height,
		Values: values,
	}
	return graph.Render(chart.PNG, w)
}
