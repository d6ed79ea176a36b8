// Package analysis computes the statistical views served by the dashboard:
// dataset summaries, yearly trends, country rankings, regional rollups, and
// metric correlations.
package analysis

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/dataset"
	apperrors "github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/errors"
)

// Kind identifies a supported analysis.
type Kind string

const (
	KindSummary      Kind = "summary"
	KindTrends       Kind = "trends"
	KindTopCountries Kind = "top_countries"
	KindRegional     Kind = "regional"
	KindMDRTrend     Kind = "mdr_trend"
	KindCorrelation  Kind = "correlation"
)

// Kinds lists every supported analysis kind.
func Kinds() []Kind {
	return []Kind{KindSummary, KindTrends, KindTopCountries, KindRegional, KindMDRTrend, KindCorrelation}
}

// Valid reports whether k names a supported analysis.
func (k Kind) Valid() bool {
	switch k {
	case KindSummary, KindTrends, KindTopCountries, KindRegional, KindMDRTrend, KindCorrelation:
		return true
	}
	return false
}

// DefaultTopN is the ranking size used when the caller does not ask for one.
const DefaultTopN = 10

// MetricSummary describes one numeric column.
type MetricSummary struct {
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Median  float64 `json:"median"`
}

// SummaryStatistics is the whole-dataset overview.
type SummaryStatistics struct {
	TotalRows int                      `json:"total_rows"`
	Countries int                      `json:"countries"`
	YearMin   int                      `json:"year_min"`
	YearMax   int                      `json:"year_max"`
	Regions   []string                 `json:"regions"`
	Metrics   map[string]MetricSummary `json:"metrics"`
}

// YearlyTrend is one point of the global time series, metrics summed over
// all countries reporting in that year.
type YearlyTrend struct {
	Year         int     `json:"year"`
	TotalLabConf float64 `json:"total_labconf"`
	MDR          float64 `json:"mdr"`
	XDR          float64 `json:"xdr"`
}

// CountryTotal is one entry of the country ranking.
type CountryTotal struct {
	Country string  `json:"country"`
	Total   float64 `json:"total"`
}

// RegionSummary aggregates one WHO region.
type RegionSummary struct {
	Region       string  `json:"region"`
	Countries    int     `json:"countries"`
	TotalLabConf float64 `json:"total_labconf"`
	MDR          float64 `json:"mdr"`
	XDR          float64 `json:"xdr"`
}

// MDRTrendPoint is one year of the drug-resistance series. Share is the
// MDR share of lab-confirmed cases, missing when no cases were confirmed.
type MDRTrendPoint struct {
	Year     int            `json:"year"`
	MDRNew   float64        `json:"mdr_new"`
	MDRRet   float64        `json:"mdr_ret"`
	MDRTotal float64        `json:"mdr_total"`
	Share    dataset.Metric `json:"share"`
}

// CorrelationResult is the pairwise-complete Pearson correlation matrix over
// the metric columns. Cells with fewer than two complete pairs are missing.
type CorrelationResult struct {
	Columns []string           `json:"columns"`
	Matrix  [][]dataset.Metric `json:"matrix"`
}

// Analyzer computes analyses over an immutable table snapshot.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{logger: logger.With(slog.String("component", "analyzer"))}
}

// Run dispatches by kind with default parameters.
func (a *Analyzer) Run(kind Kind, t *dataset.Table) (any, error) {
	switch kind {
	case KindSummary:
		return a.SummaryStatistics(t), nil
	case KindTrends:
		return a.YearlyTrends(t), nil
	case KindTopCountries:
		return a.TopCountries(t, DefaultTopN)
	case KindRegional:
		return a.RegionalSummary(t), nil
	case KindMDRTrend:
		return a.MDRTrend(t), nil
	case KindCorrelation:
		return a.Correlation(t), nil
	}
	return nil, apperrors.InvalidInput(fmt.Sprintf("unknown analysis type %q", kind))
}

// SummaryStatistics computes per-column descriptive statistics.
func (a *Analyzer) SummaryStatistics(t *dataset.Table) *SummaryStatistics {
	yearMin, yearMax := t.YearRange()
	s := &SummaryStatistics{
		TotalRows: t.Len(),
		Countries: t.UniqueCountries(),
		YearMin:   yearMin,
		YearMax:   yearMax,
		Regions:   t.Regions(),
		Metrics:   make(map[string]MetricSummary, len(dataset.MetricColumns)),
	}

	for _, col := range dataset.MetricColumns {
		values := columnValues(t, col)
		ms := MetricSummary{
			Count:   len(values),
			Missing: t.Len() - len(values),
		}
		if len(values) > 0 {
			sort.Float64s(values)
			ms.Mean = stat.Mean(values, nil)
			ms.Std = stat.StdDev(values, nil)
			ms.Min = values[0]
			ms.Max = values[len(values)-1]
			ms.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
		}
		if math.IsNaN(ms.Std) {
			ms.Std = 0
		}
		s.Metrics[col] = ms
	}
	return s
}

// YearlyTrends sums the headline metrics per year. Years are strictly
// ascending.
func (a *Analyzer) YearlyTrends(t *dataset.Table) []YearlyTrend {
	byYear := make(map[int]*YearlyTrend)
	for i := range t.Rows {
		r := &t.Rows[i]
		pt, ok := byYear[r.Year]
		if !ok {
			pt = &YearlyTrend{Year: r.Year}
			byYear[r.Year] = pt
		}
		pt.TotalLabConf += valueOr0(r.TotalLabConf)
		pt.MDR += valueOr0(r.MDRNew) + valueOr0(r.MDRRet)
		pt.XDR += valueOr0(r.XDR)
	}

	trends := make([]YearlyTrend, 0, len(byYear))
	for _, pt := range byYear {
		trends = append(trends, *pt)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Year < trends[j].Year })
	return trends
}

// TopCountries ranks countries by their summed lab-confirmed cases across
// all years. Ties break by first appearance in the table so the ranking is
// deterministic.
func (a *Analyzer) TopCountries(t *dataset.Table, n int) ([]CountryTotal, error) {
	if n <= 0 {
		return nil, apperrors.InvalidInput("top-n count must be positive")
	}

	totals := make(map[string]float64)
	firstSeen := make(map[string]int)
	order := make([]string, 0)
	for i := range t.Rows {
		r := &t.Rows[i]
		if _, ok := totals[r.Country]; !ok {
			firstSeen[r.Country] = i
			order = append(order, r.Country)
		}
		totals[r.Country] += valueOr0(r.TotalLabConf)
	}

	ranking := make([]CountryTotal, 0, len(order))
	for _, country := range order {
		ranking = append(ranking, CountryTotal{Country: country, Total: totals[country]})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Total != ranking[j].Total {
			return ranking[i].Total > ranking[j].Total
		}
		return firstSeen[ranking[i].Country] < firstSeen[ranking[j].Country]
	})

	if n < len(ranking) {
		ranking = ranking[:n]
	}
	return ranking, nil
}

// RegionalSummary aggregates the metrics per WHO region, sorted by region
// code. Rows without a region are excluded.
func (a *Analyzer) RegionalSummary(t *dataset.Table) []RegionSummary {
	type agg struct {
		countries map[string]bool
		sum       RegionSummary
	}
	byRegion := make(map[string]*agg)
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.Region == "" {
			continue
		}
		g, ok := byRegion[r.Region]
		if !ok {
			g = &agg{countries: make(map[string]bool), sum: RegionSummary{Region: r.Region}}
			byRegion[r.Region] = g
		}
		g.countries[r.Country] = true
		g.sum.TotalLabConf += valueOr0(r.TotalLabConf)
		g.sum.MDR += valueOr0(r.MDRNew) + valueOr0(r.MDRRet)
		g.sum.XDR += valueOr0(r.XDR)
	}

	summaries := make([]RegionSummary, 0, len(byRegion))
	for _, g := range byRegion {
		g.sum.Countries = len(g.countries)
		summaries = append(summaries, g.sum)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Region < summaries[j].Region })
	return summaries
}

// MDRTrend tracks drug resistance over time, including the MDR share of
// lab-confirmed cases.
func (a *Analyzer) MDRTrend(t *dataset.Table) []MDRTrendPoint {
	type agg struct {
		point MDRTrendPoint
		conf  float64
	}
	byYear := make(map[int]*agg)
	for i := range t.Rows {
		r := &t.Rows[i]
		g, ok := byYear[r.Year]
		if !ok {
			g = &agg{point: MDRTrendPoint{Year: r.Year}}
			byYear[r.Year] = g
		}
		g.point.MDRNew += valueOr0(r.MDRNew)
		g.point.MDRRet += valueOr0(r.MDRRet)
		g.conf += valueOr0(r.TotalLabConf)
	}

	points := make([]MDRTrendPoint, 0, len(byYear))
	for _, g := range byYear {
		g.point.MDRTotal = g.point.MDRNew + g.point.MDRRet
		if g.conf > 0 {
			g.point.Share = dataset.F(g.point.MDRTotal / g.conf)
		}
		points = append(points, g.point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Year < points[j].Year })
	return points
}

// Correlation computes the Pearson correlation between every pair of metric
// columns over their pairwise-complete observations.
func (a *Analyzer) Correlation(t *dataset.Table) *CorrelationResult {
	cols := dataset.MetricColumns
	res := &CorrelationResult{
		Columns: cols,
		Matrix:  make([][]dataset.Metric, len(cols)),
	}
	for i := range cols {
		res.Matrix[i] = make([]dataset.Metric, len(cols))
		for j := range cols {
			if i == j {
				res.Matrix[i][j] = dataset.F(1)
				continue
			}
			if j < i {
				res.Matrix[i][j] = res.Matrix[j][i]
				continue
			}
			res.Matrix[i][j] = pairwiseCorrelation(t, cols[i], cols[j])
		}
	}
	return res
}

func pairwiseCorrelation(t *dataset.Table, colX, colY string) dataset.Metric {
	var xs, ys []float64
	for i := range t.Rows {
		x, _ := t.Rows[i].MetricByColumn(colX)
		y, _ := t.Rows[i].MetricByColumn(colY)
		if x.Valid && y.Valid {
			xs = append(xs, x.Value)
			ys = append(ys, y.Value)
		}
	}
	if len(xs) < 2 {
		return dataset.Metric{}
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		// Zero variance in one column.
		return dataset.Metric{}
	}
	return dataset.F(r)
}

func columnValues(t *dataset.Table, col string) []float64 {
	values := make([]float64, 0, t.Len())
	for i := range t.Rows {
		if m, ok := t.Rows[i].MetricByColumn(col); ok && m.Valid {
			values = append(values, m.Value)
		}
	}
	return values
}

func valueOr0(m dataset.Metric) float64 {
	if !m.Valid {
		return 0
	}
	return m.Value
}
