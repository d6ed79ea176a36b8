package charts

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/analysis"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/dataset"
)

func newVisualizer() *Visualizer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewVisualizer(analysis.NewAnalyzer(logger), logger)
}

func fixtureTable() *dataset.Table {
	row := func(country, region string, year int, conf, mdrNew, mdrRet, xdr float64) dataset.Row {
		return dataset.Row{
			Country:      country,
			Region:       region,
			Year:         year,
			MDRNew:       dataset.F(mdrNew),
			MDRRet:       dataset.F(mdrRet),
			XDR:          dataset.F(xdr),
			TotalLabConf: dataset.F(conf),
		}
	}
	return &dataset.Table{Rows: []dataset.Row{
		row("Afghanistan", "EMR", 2018, 120, 5, 2, 1),
		row("Afghanistan", "EMR", 2019, 135, 6, 3, 0),
		row("Brazil", "AMR", 2018, 590, 12, 4, 2),
		row("Brazil", "AMR", 2019, 610, 14, 5, 3),
		row("Kenya", "AFR", 2019, 300, 8, 1, 0),
	}}
}

func TestBuildAllKinds(t *testing.T) {
	v := newVisualizer()
	table := fixtureTable()

	for _, kind := range Kinds() {
		spec, err := v.Build(kind, table, Options{})
		require.NoError(t, err, "kind %s", kind)
		require.NotNil(t, spec, "kind %s", kind)
		assert.Equal(t, kind, spec.Kind)
		assert.NotEmpty(t, spec.Title)
	}
}

func TestBuildUnknownKind(t *testing.T) {
	_, err := newVisualizer().Build(Kind("sparkline"), fixtureTable(), Options{})
	assert.Error(t, err)
	assert.False(t, Kind("sparkline").Valid())
}

func TestTrendLine(t *testing.T) {
	spec := newVisualizer().TrendLine(fixtureTable())
	require.NotNil(t, spec)
	require.Len(t, spec.Series, 2)
	assert.Equal(t, []float64{2018, 2019}, spec.Series[0].X)
	assert.Equal(t, []float64{710, 1045}, spec.Series[0].Y)
	assert.Equal(t, []float64{23, 37}, spec.Series[1].Y)
}

func TestTopCountriesBarHonorsTopN(t *testing.T) {
	v := newVisualizer()

	spec, err := v.Build(KindBar, fixtureTable(), Options{TopN: 2})
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, []string{"Brazil", "Kenya"}, spec.Labels)
	assert.Equal(t, []float64{1200, 300}, spec.Values)

	_, err = v.Build(KindBar, fixtureTable(), Options{TopN: -1})
	assert.Error(t, err)
}

func TestRegionalPie(t *testing.T) {
	spec := newVisualizer().RegionalPie(fixtureTable())
	require.NotNil(t, spec)
	assert.Equal(t, []string{"AFR", "AMR", "EMR"}, spec.Labels)
	assert.Equal(t, []float64{300, 1200, 255}, spec.Values)
}

func TestMDRScatterRegression(t *testing.T) {
	// Perfectly linear data: mdr = 0.1 * conf.
	table := &dataset.Table{Rows: []dataset.Row{
		{Country: "A", Year: 2018, TotalLabConf: dataset.F(100), MDRNew: dataset.F(10)},
		{Country: "A", Year: 2019, TotalLabConf: dataset.F(200), MDRNew: dataset.F(20)},
		{Country: "A", Year: 2020, TotalLabConf: dataset.F(300), MDRNew: dataset.F(30)},
	}}
	spec := newVisualizer().MDRScatter(table)
	require.NotNil(t, spec)
	require.NotNil(t, spec.Regression)
	assert.InDelta(t, 0.1, spec.Regression.Slope, 1e-9)
	assert.InDelta(t, 0, spec.Regression.Intercept, 1e-9)
}

func TestBoxplots(t *testing.T) {
	v := newVisualizer()

	spec := v.CasesBoxplot(fixtureTable())
	require.NotNil(t, spec)
	require.Len(t, spec.Boxes, 2)
	b2018 := spec.Boxes[0]
	assert.Equal(t, "2018", b2018.Label)
	assert.Equal(t, 120.0, b2018.Min)
	assert.Equal(t, 590.0, b2018.Max)

	regional := v.RegionalBoxplot(fixtureTable())
	require.NotNil(t, regional)
	require.Len(t, regional.Boxes, 3)
	assert.Equal(t, "AFR", regional.Boxes[0].Label)
	assert.Equal(t, regional.Boxes[0].Min, regional.Boxes[0].Max)
}

func TestChartsAbsentWithoutObservations(t *testing.T) {
	v := newVisualizer()
	empty := &dataset.Table{Rows: []dataset.Row{
		{Country: "Nowhere", Year: 2020},
	}}

	assert.Nil(t, v.RegionalPie(empty))
	assert.Nil(t, v.MDRScatter(empty))
	assert.Nil(t, v.CasesBoxplot(empty))
	assert.Nil(t, v.RegionalBoxplot(empty))
	assert.Nil(t, v.CorrelationHeatmap(empty))
}

func TestGenerateReport(t *testing.T) {
	html, err := newVisualizer().GenerateReport(fixtureTable(), time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "TB Drug Resistance Surveillance Report")
	assert.Contains(t, out, "2025-03-01 12:00:00 UTC")
	assert.Contains(t, out, "Brazil")
	assert.Contains(t, out, "chart-data")
}
