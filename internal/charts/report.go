package charts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/analysis"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/dataset"
)

//go:embed templates/report.html.tmpl
var reportFS embed.FS

var reportTmpl = template.Must(template.New("report.html.tmpl").
	Funcs(template.FuncMap{
		"pct": func(ratio float64) string { return fmt.Sprintf("%.2f%%", ratio*100) },
	}).
	ParseFS(reportFS, "templates/report.html.tmpl"))

// ReportData is the model rendered into the standalone HTML report.
type ReportData struct {
	GeneratedAt  string
	Summary      *analysis.SummaryStatistics
	Trends       []analysis.YearlyTrend
	TopCountries []analysis.CountryTotal
	Regional     []analysis.RegionSummary
	MDRTrend     []analysis.MDRTrendPoint
	ChartsJSON   template.JS
}

// GenerateReport renders a self-contained HTML report over the snapshot:
// summary statistics, trend and ranking tables, and the chart payloads
// embedded as JSON for offline viewing.
func (v *Visualizer) GenerateReport(t *dataset.Table, now time.Time) ([]byte, error) {
	top, err := v.analyzer.TopCountries(t, analysis.DefaultTopN)
	if err != nil {
		return nil, err
	}

	specs := make(map[Kind]*ChartSpec, len(Kinds()))
	for _, kind := range Kinds() {
		spec, err := v.Build(kind, t, Options{})
		if err != nil {
			return nil, fmt.Errorf("build %s chart: %w", kind, err)
		}
		if spec != nil {
			specs[kind] = spec
		}
	}
	chartsJSON, err := json.Marshal(specs)
	if err != nil {
		return nil, fmt.Errorf("encode chart payloads: %w", err)
	}

	data := ReportData{
		GeneratedAt:  now.UTC().Format("2006-01-02 15:04:05 UTC"),
		Summary:      v.analyzer.SummaryStatistics(t),
		Trends:       v.analyzer.YearlyTrends(t),
		TopCountries: top,
		Regional:     v.analyzer.RegionalSummary(t),
		MDRTrend:     v.analyzer.MDRTrend(t),
		ChartsJSON:   template.JS(chartsJSON),
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
