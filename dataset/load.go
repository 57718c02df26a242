package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mbtiatlas/insights/consts"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// countryAliases are accepted (case-insensitively) when there is no exact "Country" column.
var countryAliases = []string{"country", "countries", "nation", "name"}

// Load resolves the data source and parses it. The default file wins when it exists;
// otherwise the upload is used. The returned string describes the source.
func Load(defaultPath string, upload *Upload) (*RawTable, string, error) {
	var (
		table  *RawTable
		source string
		err    error
	)
	switch {
	case fileExists(defaultPath):
		table, err = parseFile(defaultPath)
		source = "local:" + defaultPath
	case upload != nil:
		table, err = Parse(bytes.NewReader(upload.Content))
		source = "uploaded"
	default:
		return nil, "", &NoDataSourceError{Path: defaultPath}
	}
	if err != nil {
		return nil, "", err
	}

	if err := normalizeCountryColumn(table); err != nil {
		return nil, "", err
	}
	return table, source, nil
}

// Open runs the whole load pipeline: Load, DetectTypeColumns and BuildLongForm.
func Open(defaultPath string, upload *Upload) (*Dataset, error) {
	table, source, err := Load(defaultPath, upload)
	if err != nil {
		return nil, err
	}
	types := DetectTypeColumns(table.Columns)
	if len(types) == 0 {
		return nil, &NoTypeColumnsError{Columns: table.Columns}
	}

	records, scaled := buildLongForm(table, types)
	ds := &Dataset{
		Source:  source,
		Types:   types,
		Records: records,
		Scaled:  scaled,
	}
	if scaled && fractionalShare(records) > 0.5 {
		zap.S().Warnf("Dataset %s was read as percentages, but most values are below %.1f%%; check for outliers",
			source, consts.PercentThreshold)
	}
	zap.S().Infof("Loaded %d records for %d types from %s", len(records), len(types), source)
	return ds, nil
}

// Parse reads a CSV with a header row. A leading UTF-8 BOM is stripped and
// column names are trimmed of surrounding whitespace.
func Parse(r io.Reader) (*RawTable, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	table := &RawTable{Columns: make([]string, len(header))}
	for i, c := range header {
		table.Columns[i] = strings.TrimSpace(c)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", len(table.Rows)+2, err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func parseFile(path string) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	table, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return table, nil
}

// normalizeCountryColumn makes sure the table has a column named "Country".
// An exact match is preferred, then the first alias match in column order.
func normalizeCountryColumn(table *RawTable) error {
	if table.Index(consts.CountryColumn) >= 0 {
		return nil
	}
	for i, c := range table.Columns {
		lower := strings.ToLower(c)
		for _, alias := range countryAliases {
			if lower == alias {
				table.Columns[i] = consts.CountryColumn
				return nil
			}
		}
	}
	return &MissingCountryColumnError{Columns: table.Columns}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func fractionalShare(records []LongRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var n int
	for _, r := range records {
		if r.RawValue <= consts.PercentThreshold {
			n++
		}
	}
	return float64(n) / float64(len(records))
}
