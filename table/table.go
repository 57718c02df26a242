// Package table turns a selection into the tabular view shown under the chart and
// offered as a CSV download.
package table

import (
	"cmp"
	"encoding/csv"
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/mbtiatlas/insights/dataset"
	"github.com/mbtiatlas/insights/selection"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Header is the first line of the CSV export.
var Header = []string{"MBTI", "Country", "Percentage (%)"}

// Row is one line of the table. Percentage is Ratio*100 rounded to 2 decimals.
type Row struct {
	Type       string
	Country    string
	Percentage float64
}

// Rows builds the table for the selected records. Single mode lists the highest share
// first; multiple mode groups by type code, highest share first inside each group.
func Rows(selected []dataset.LongRecord, mode selection.Mode) []Row {
	sorted := slices.Clone(selected)
	slices.SortStableFunc(sorted, func(a, b dataset.LongRecord) int {
		if mode == selection.ModeMultiple {
			if c := cmp.Compare(a.TypeCode, b.TypeCode); c != 0 {
				return c
			}
		}
		return cmp.Compare(b.Ratio, a.Ratio)
	})

	rows := make([]Row, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, Row{
			Type:       r.TypeCode,
			Country:    r.Country,
			Percentage: math.Round(r.Ratio*100*100) / 100,
		})
	}
	return rows
}

// WriteCSV writes rows as UTF-8 CSV with a byte order mark, so spreadsheet tools
// pick the right encoding for country names.
func WriteCSV(w io.Writer, rows []Row) error {
	bom := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bom)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.Type, r.Country, strconv.FormatFloat(r.Percentage, 'f', 2, 64)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bom.Close()
}
