package dataset

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Column names of the processed table. Raw headers are normalized to these
// during preprocessing; everything else in the source file is dropped.
const (
	ColCountry        = "country"
	ColISO3           = "iso3"
	ColRegion         = "region"
	ColYear           = "year"
	ColPulmLabConfNew = "pulm_labconf_new"
	ColPulmLabConfRet = "pulm_labconf_ret"
	ColMDRNew         = "mdr_new"
	ColMDRRet         = "mdr_ret"
	ColXDR            = "xdr"
	ColTotalLabConf   = "total_labconf"
)

// MetricColumns lists the numeric columns in table order. total_labconf is
// derived from the two lab-confirmed counts during preprocessing.
var MetricColumns = []string{
	ColPulmLabConfNew,
	ColPulmLabConfRet,
	ColMDRNew,
	ColMDRRet,
	ColXDR,
	ColTotalLabConf,
}

// Metric is an optional numeric observation. A missing or unparseable cell
// yields Valid=false; it serializes as JSON null and an empty CSV cell.
type Metric struct {
	Value float64
	Valid bool
}

// F returns a valid metric holding v.
func F(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// Add sums two metrics, treating a missing operand as zero. When both
// operands are missing the result is missing.
func (m Metric) Add(o Metric) Metric {
	if !m.Valid && !o.Valid {
		return Metric{}
	}
	var total float64
	if m.Valid {
		total += m.Value
	}
	if o.Valid {
		total += o.Value
	}
	return F(total)
}

// MarshalJSON implements json.Marshaler.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Metric{Value: v, Valid: true}
	return nil
}

// CSVCell formats the metric for CSV output.
func (m Metric) CSVCell() string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// Row is one country-year observation of the processed table.
// Invariant: Country is non-empty and Year is positive.
type Row struct {
	Country        string `json:"country"`
	ISO3           string `json:"iso3"`
	Region         string `json:"region"`
	Year           int    `json:"year"`
	PulmLabConfNew Metric `json:"pulm_labconf_new"`
	PulmLabConfRet Metric `json:"pulm_labconf_ret"`
	MDRNew         Metric `json:"mdr_new"`
	MDRRet         Metric `json:"mdr_ret"`
	XDR            Metric `json:"xdr"`
	TotalLabConf   Metric `json:"total_labconf"`
}

// MetricByColumn returns the named metric of the row. The second return is
// false for non-metric or unknown column names.
func (r *Row) MetricByColumn(col string) (Metric, bool) {
	switch col {
	case ColPulmLabConfNew:
		return r.PulmLabConfNew, true
	case ColPulmLabConfRet:
		return r.PulmLabConfRet, true
	case ColMDRNew:
		return r.MDRNew, true
	case ColMDRRet:
		return r.MDRRet, true
	case ColXDR:
		return r.XDR, true
	case ColTotalLabConf:
		return r.TotalLabConf, true
	}
	return Metric{}, false
}

// RawTable holds the source CSV as read, header plus recordsRaw.
type RawTable struct {
	Header  []string
	Records [][]string
}

// Table is the cleaned, analysis-ready dataset held in memory.
type Table struct {
	Rows []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Columns returns the processed table column set in order.
func (t *Table) Columns() []string {
	cols := []string{ColCountry, ColISO3, ColRegion, ColYear}
	return append(cols, MetricColumns...)
}

// Years returns the distinct years present, ascending.
func (t *Table) Years() []int {
	seen := make(map[int]bool)
	for i := range t.Rows {
		seen[t.Rows[i].Year] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// YearRange returns the minimum and maximum year. Zero values for an empty
// table.
func (t *Table) YearRange() (min, max int) {
	years := t.Years()
	if len(years) == 0 {
		return 0, 0
	}
	return years[0], years[len(years)-1]
}

// UniqueCountries returns the number of distinct countries.
func (t *Table) UniqueCountries() int {
	seen := make(map[string]bool)
	for i := range t.Rows {
		seen[t.Rows[i].Country] = true
	}
	return len(seen)
}

// Regions returns the distinct WHO regions present, sorted. Rows without a
// region are skipped.
func (t *Table) Regions() []string {
	seen := make(map[string]bool)
	for i := range t.Rows {
		if r := t.Rows[i].Region; r != "" {
			seen[r] = true
		}
	}
	regions := make([]string, 0, len(seen))
	for r := range seen {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}

// ToCSV flattens the table into a header row and string records, suitable
// for the exporter.
func (t *Table) ToCSV() (header []string, records [][]string) {
	header = t.Columns()
	records = make([][]string, 0, len(t.Rows))
	for i := range t.Rows {
		r := &t.Rows[i]
		records = append(records, []string{
			r.Country,
			r.ISO3,
			r.Region,
			strconv.Itoa(r.Year),
			r.PulmLabConfNew.CSVCell(),
			r.PulmLabConfRet.CSVCell(),
			r.MDRNew.CSVCell(),
			r.MDRRet.CSVCell(),
			r.XDR.CSVCell(),
			r.TotalLabConf.CSVCell(),
		})
	}
	return header, records
}

// Head returns the first n rows (fewer if the table is shorter).
func (t *Table) Head(n int) []Row {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}
