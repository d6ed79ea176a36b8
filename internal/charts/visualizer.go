// Package charts builds serializable chart payloads and the standalone HTML
// report from an analyzed dataset. The payloads carry data and labels only;
// rendering happens client side.
package charts

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/analysis"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/dataset"
	apperrors "github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/errors"
)

// Kind identifies a supported chart.
type Kind string

const (
	KindLine          Kind = "line"
	KindBar           Kind = "bar"
	KindPie           Kind = "pie"
	KindCorrelation   Kind = "correlation"
	KindScatter       Kind = "scatter"
	KindBoxplot       Kind = "boxplot"
	KindRegionBoxplot Kind = "region_boxplot"
)

// Kinds lists every supported chart kind.
func Kinds() []Kind {
	return []Kind{KindLine, KindBar, KindPie, KindCorrelation, KindScatter, KindBoxplot, KindRegionBoxplot}
}

// Valid reports whether k names a supported chart.
func (k Kind) Valid() bool {
	switch k {
	case KindLine, KindBar, KindPie, KindCorrelation, KindScatter, KindBoxplot, KindRegionBoxplot:
		return true
	}
	return false
}

// Series is one named sequence of points.
type Series struct {
	Name string    `json:"name"`
	X    []float64 `json:"x,omitempty"`
	Y    []float64 `json:"y"`
}

// Box is the five-number summary for one boxplot group.
type Box struct {
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Heatmap carries a labeled matrix for the correlation chart. Missing cells
// are null.
type Heatmap struct {
	Labels []string           `json:"labels"`
	Values [][]dataset.Metric `json:"values"`
}

// Regression is a fitted line y = Intercept + Slope*x.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// ChartSpec is the serializable chart payload. Only the fields relevant to
// the kind are populated.
type ChartSpec struct {
	Kind       Kind        `json:"kind"`
	Title      string      `json:"title"`
	XLabel     string      `json:"x_label,omitempty"`
	YLabel     string      `json:"y_label,omitempty"`
	Labels     []string    `json:"labels,omitempty"`
	Values     []float64   `json:"values,omitempty"`
	Series     []Series    `json:"series,omitempty"`
	Boxes      []Box       `json:"boxes,omitempty"`
	Heatmap    *Heatmap    `json:"heatmap,omitempty"`
	Regression *Regression `json:"regression,omitempty"`
}

// Visualizer builds chart payloads from a table snapshot and its analyzer.
type Visualizer struct {
	analyzer *analysis.Analyzer
	logger   *slog.Logger
}

// NewVisualizer creates a visualizer.
func NewVisualizer(analyzer *analysis.Analyzer, logger *slog.Logger) *Visualizer {
	return &Visualizer{
		analyzer: analyzer,
		logger:   logger.With(slog.String("component", "visualizer")),
	}
}

// Options tunes chart generation.
type Options struct {
	// TopN bounds the bar chart ranking. Zero means the default.
	TopN int
}

// Build dispatches by kind. A chart whose underlying metric has no valid
// observations returns (nil, nil): the chart is absent, not broken.
func (v *Visualizer) Build(kind Kind, t *dataset.Table, opts Options) (*ChartSpec, error) {
	switch kind {
	case KindLine:
		return v.TrendLine(t), nil
	case KindBar:
		n := opts.TopN
		if n == 0 {
			n = analysis.DefaultTopN
		}
		return v.TopCountriesBar(t, n)
	case KindPie:
		return v.RegionalPie(t), nil
	case KindCorrelation:
		return v.CorrelationHeatmap(t), nil
	case KindScatter:
		return v.MDRScatter(t), nil
	case KindBoxplot:
		return v.CasesBoxplot(t), nil
	case KindRegionBoxplot:
		return v.RegionalBoxplot(t), nil
	}
	return nil, apperrors.InvalidInput(fmt.Sprintf("unknown chart type %q", kind))
}

// TrendLine charts the yearly totals of lab-confirmed and MDR cases.
func (v *Visualizer) TrendLine(t *dataset.Table) *ChartSpec {
	trends := v.analyzer.YearlyTrends(t)
	if len(trends) == 0 {
		return nil
	}

	years := make([]float64, len(trends))
	conf := make([]float64, len(trends))
	mdr := make([]float64, len(trends))
	for i, pt := range trends {
		years[i] = float64(pt.Year)
		conf[i] = pt.TotalLabConf
		mdr[i] = pt.MDR
	}

	return &ChartSpec{
		Kind:   KindLine,
		Title:  "TB Cases Over Time",
		XLabel: "Year",
		YLabel: "Cases",
		Series: []Series{
			{Name: "Lab-confirmed", X: years, Y: conf},
			{Name: "MDR", X: years, Y: mdr},
		},
	}
}

// TopCountriesBar ranks countries by lab-confirmed cases.
func (v *Visualizer) TopCountriesBar(t *dataset.Table, n int) (*ChartSpec, error) {
	ranking, err := v.analyzer.TopCountries(t, n)
	if err != nil {
		return nil, err
	}
	if len(ranking) == 0 {
		return nil, nil
	}

	labels := make([]string, len(ranking))
	values := make([]float64, len(ranking))
	for i, c := range ranking {
		labels[i] = c.Country
		values[i] = c.Total
	}

	return &ChartSpec{
		Kind:   KindBar,
		Title:  fmt.Sprintf("Top %d Countries by Lab-Confirmed TB Cases", len(ranking)),
		XLabel: "Country",
		YLabel: "Cases",
		Labels: labels,
		Values: values,
	}, nil
}

// RegionalPie shows the share of lab-confirmed cases per WHO region.
func (v *Visualizer) RegionalPie(t *dataset.Table) *ChartSpec {
	regions := v.analyzer.RegionalSummary(t)

	var labels []string
	var values []float64
	for _, r := range regions {
		if r.TotalLabConf > 0 {
			labels = append(labels, r.Region)
			values = append(values, r.TotalLabConf)
		}
	}
	if len(values) == 0 {
		return nil
	}

	return &ChartSpec{
		Kind:   KindPie,
		Title:  "Lab-Confirmed TB Cases by WHO Region",
		Labels: labels,
		Values: values,
	}
}

// CorrelationHeatmap charts the metric correlation matrix.
func (v *Visualizer) CorrelationHeatmap(t *dataset.Table) *ChartSpec {
	res := v.analyzer.Correlation(t)

	hasCell := false
	for i := range res.Matrix {
		for j := range res.Matrix[i] {
			if i != j && res.Matrix[i][j].Valid {
				hasCell = true
			}
		}
	}
	if !hasCell {
		return nil
	}

	return &ChartSpec{
		Kind:    KindCorrelation,
		Title:   "Metric Correlation Matrix",
		Heatmap: &Heatmap{Labels: res.Columns, Values: res.Matrix},
	}
}

// MDRScatter plots MDR against lab-confirmed cases per row, with a fitted
// regression line.
func (v *Visualizer) MDRScatter(t *dataset.Table) *ChartSpec {
	var xs, ys []float64
	for i := range t.Rows {
		r := &t.Rows[i]
		mdr := r.MDRNew.Add(r.MDRRet)
		if !r.TotalLabConf.Valid || !mdr.Valid {
			continue
		}
		xs = append(xs, r.TotalLabConf.Value)
		ys = append(ys, mdr.Value)
	}
	if len(xs) == 0 {
		return nil
	}

	spec := &ChartSpec{
		Kind:   KindScatter,
		Title:  "MDR vs Lab-Confirmed Cases",
		XLabel: "Lab-confirmed cases",
		YLabel: "MDR cases",
		Series: []Series{{Name: "Country-years", X: xs, Y: ys}},
	}
	if len(xs) >= 2 {
		intercept, slope := stat.LinearRegression(xs, ys, nil, false)
		if !math.IsNaN(slope) && !math.IsNaN(intercept) {
			spec.Regression = &Regression{Slope: slope, Intercept: intercept}
		}
	}
	return spec
}

// CasesBoxplot summarizes the yearly distribution of lab-confirmed cases
// across countries, one box per year.
func (v *Visualizer) CasesBoxplot(t *dataset.Table) *ChartSpec {
	byYear := make(map[int][]float64)
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.TotalLabConf.Valid {
			byYear[r.Year] = append(byYear[r.Year], r.TotalLabConf.Value)
		}
	}
	if len(byYear) == 0 {
		return nil
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	boxes := make([]Box, 0, len(years))
	for _, y := range years {
		boxes = append(boxes, fiveNumber(fmt.Sprintf("%d", y), byYear[y]))
	}

	return &ChartSpec{
		Kind:   KindBoxplot,
		Title:  "Distribution of Lab-Confirmed Cases per Year",
		XLabel: "Year",
		YLabel: "Cases",
		Boxes:  boxes,
	}
}

// RegionalBoxplot summarizes lab-confirmed cases per WHO region.
func (v *Visualizer) RegionalBoxplot(t *dataset.Table) *ChartSpec {
	byRegion := make(map[string][]float64)
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.Region != "" && r.TotalLabConf.Valid {
			byRegion[r.Region] = append(byRegion[r.Region], r.TotalLabConf.Value)
		}
	}
	if len(byRegion) == 0 {
		return nil
	}

	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	boxes := make([]Box, 0, len(regions))
	for _, r := range regions {
		boxes = append(boxes, fiveNumber(r, byRegion[r]))
	}

	return &ChartSpec{
		Kind:   KindRegionBoxplot,
		Title:  "Distribution of Lab-Confirmed Cases per WHO Region",
		XLabel: "Region",
		YLabel: "Cases",
		Boxes:  boxes,
	}
}

func fiveNumber(label string, values []float64) Box {
	sort.Float64s(values)
	return Box{
		Label:  label,
		Min:    values[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, values, nil),
		Max:    values[len(values)-1],
	}
}
