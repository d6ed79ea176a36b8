package dataset

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// headerAliases maps normalized source headers to processed column names.
// WHO exports name the region column g_whoregion; already-processed cache
// files use the short names directly.
var headerAliases = map[string]string{
	"g_whoregion":      ColRegion,
	"region":           ColRegion,
	"country":          ColCountry,
	"iso3":             ColISO3,
	"year":             ColYear,
	"pulm_labconf_new": ColPulmLabConfNew,
	"pulm_labconf_ret": ColPulmLabConfRet,
	"mdr_new":          ColMDRNew,
	"mdr_ret":          ColMDRRet,
	"xdr":              ColXDR,
	"total_labconf":    ColTotalLabConf,
}

// Preprocessor turns a raw CSV table into the cleaned analysis table.
type Preprocessor struct {
	logger *slog.Logger
}

// NewPreprocessor creates a preprocessor.
func NewPreprocessor(logger *slog.Logger) *Preprocessor {
	return &Preprocessor{logger: logger.With(slog.String("component", "preprocessor"))}
}

// Process normalizes headers, coerces types, drops rows without a usable
// country or year, and derives total_labconf. Processing an already
// processed table is a no-op in effect: the output round-trips through CSV
// unchanged.
func (p *Preprocessor) Process(raw *RawTable) (*Table, error) {
	idx := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		if name, ok := headerAliases[NormalizeHeader(h)]; ok {
			if _, dup := idx[name]; !dup {
				idx[name] = i
			}
		}
	}

	if _, ok := idx[ColCountry]; !ok {
		return nil, fmt.Errorf("source is missing required column %q", ColCountry)
	}
	if _, ok := idx[ColYear]; !ok {
		return nil, fmt.Errorf("source is missing required column %q", ColYear)
	}

	cell := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	table := &Table{Rows: make([]Row, 0, len(raw.Records))}
	dropped := 0
	for _, rec := range raw.Records {
		country := cell(rec, ColCountry)
		year, err := strconv.Atoi(cell(rec, ColYear))
		if country == "" || err != nil || year <= 0 {
			dropped++
			continue
		}

		row := Row{
			Country:        country,
			ISO3:           cell(rec, ColISO3),
			Region:         cell(rec, ColRegion),
			Year:           year,
			PulmLabConfNew: parseMetric(cell(rec, ColPulmLabConfNew)),
			PulmLabConfRet: parseMetric(cell(rec, ColPulmLabConfRet)),
			MDRNew:         parseMetric(cell(rec, ColMDRNew)),
			MDRRet:         parseMetric(cell(rec, ColMDRRet)),
			XDR:            parseMetric(cell(rec, ColXDR)),
		}
		row.TotalLabConf = row.PulmLabConfNew.Add(row.PulmLabConfRet)
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("no usable rows after preprocessing (%d dropped)", dropped)
	}

	p.logger.Info("preprocessing complete",
		slog.Int("rows", len(table.Rows)),
		slog.Int("dropped", dropped))
	return table, nil
}

// NormalizeHeader lowercases a raw header and collapses whitespace and
// hyphens to underscores.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

func parseMetric(s string) Metric {
	if s == "" {
		return Metric{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Metric{}
	}
	return F(v)
}
