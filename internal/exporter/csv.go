// Package exporter writes the processed dataset to downloadable formats.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/dataset"
)

// WriteCSV streams the processed table to w, header row first. The output
// parses back into an identical table.
func WriteCSV(w io.Writer, t *dataset.Table) error {
	header, records := t.ToCSV()

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv records: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
