package dataset

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func processString(t *testing.T, src string) (*Table, error) {
	t.Helper()
	raw, err := ParseCSV(strings.NewReader(src))
	require.NoError(t, err)
	return NewPreprocessor(testLogger()).Process(raw)
}

func TestProcessNormalizesAndDerives(t *testing.T) {
	table, err := processString(t, sampleCSV)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	first := table.Rows[0]
	assert.Equal(t, "Afghanistan", first.Country)
	assert.Equal(t, "EMR", first.Region)
	assert.Equal(t, 2018, first.Year)
	assert.Equal(t, F(120), first.TotalLabConf)
}

func TestProcessDropsUnusableRows(t *testing.T) {
	src := "Country, Year ,pulm_labconf_new\n" +
		"Kenya,2019,40\n" +
		",2019,10\n" + // no country
		"Kenya,abc,10\n" + // bad year
		"Kenya,-3,10\n" // non-positive year
	table, err := processString(t, src)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "Kenya", table.Rows[0].Country)
	assert.Equal(t, 2019, table.Rows[0].Year)
}

func TestProcessMissingMetricsBecomeNull(t *testing.T) {
	src := "country,year,pulm_labconf_new,pulm_labconf_ret,mdr_new\n" +
		"Peru,2020,,n/a,7\n"
	table, err := processString(t, src)
	require.NoError(t, err)

	row := table.Rows[0]
	assert.False(t, row.PulmLabConfNew.Valid)
	assert.False(t, row.PulmLabConfRet.Valid)
	assert.Equal(t, F(7), row.MDRNew)
	// Both lab-confirmed counts missing leaves the total missing too.
	assert.False(t, row.TotalLabConf.Valid)
}

func TestProcessPartialTotal(t *testing.T) {
	src := "country,year,pulm_labconf_new,pulm_labconf_ret\n" +
		"Peru,2020,30,\n"
	table, err := processString(t, src)
	require.NoError(t, err)
	assert.Equal(t, F(30), table.Rows[0].TotalLabConf)
}

func TestProcessMissingRequiredColumn(t *testing.T) {
	_, err := processString(t, "iso3,year\nAFG,2018\n")
	assert.ErrorContains(t, err, "country")

	_, err = processString(t, "country,iso3\nAfghanistan,AFG\n")
	assert.ErrorContains(t, err, "year")
}

func TestProcessAllRowsDropped(t *testing.T) {
	_, err := processString(t, "country,year\n,2018\n")
	assert.ErrorContains(t, err, "no usable rows")
}

// Processing the exported form of a processed table must yield the same
// table back.
func TestProcessIdempotent(t *testing.T) {
	table, err := processString(t, sampleCSV)
	require.NoError(t, err)

	header, records := table.ToCSV()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(records))

	again, err := processString(t, buf.String())
	require.NoError(t, err)
	assert.Equal(t, table.Rows, again.Rows)
}

func TestTableAggregates(t *testing.T) {
	table, err := processString(t, sampleCSV)
	require.NoError(t, err)

	assert.Equal(t, []int{2018, 2019}, table.Years())
	min, max := table.YearRange()
	assert.Equal(t, 2018, min)
	assert.Equal(t, 2019, max)
	assert.Equal(t, 2, table.UniqueCountries())
	assert.Equal(t, []string{"AMR", "EMR"}, table.Regions())
	assert.Len(t, table.Head(2), 2)
	assert.Len(t, table.Head(50), 3)
}

func TestMetricJSON(t *testing.T) {
	b, err := F(3.5).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "3.5", string(b))

	b, err = Metric{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var m Metric
	require.NoError(t, m.UnmarshalJSON([]byte("null")))
	assert.False(t, m.Valid)
	require.NoError(t, m.UnmarshalJSON([]byte("12")))
	assert.Equal(t, F(12), m)
}

func TestMetricAdd(t *testing.T) {
	assert.Equal(t, F(7), F(3).Add(F(4)))
	assert.Equal(t, F(3), F(3).Add(Metric{}))
	assert.Equal(t, F(4), Metric{}.Add(F(4)))
	assert.False(t, Metric{}.Add(Metric{}).Valid)
}
