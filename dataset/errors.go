package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// NoDataSourceError is returned when neither the default file nor an upload is available.
type NoDataSourceError struct {
	Path string
}

func (e *NoDataSourceError) Error() string {
	return fmt.Sprintf("'%s' not found and no file was uploaded; upload a CSV file", e.Path)
}

// MissingCountryColumnError is returned when no column can be used as the country identifier.
type MissingCountryColumnError struct {
	Columns []string
}

func (e *MissingCountryColumnError) Error() string {
	return fmt.Sprintf("required column 'Country' not found (columns: %s)", strings.Join(e.Columns, ", "))
}

// NoTypeColumnsError is returned when no column name is an MBTI type code.
type NoTypeColumnsError struct {
	Columns []string
}

func (e *NoTypeColumnsError) Error() string {
	return fmt.Sprintf("no MBTI type columns (e.g. INFJ, ENTP) found (columns: %s)", strings.Join(e.Columns, ", "))
}

// IsDataError reports whether err means the input itself is unusable, as opposed to an I/O failure.
func IsDataError(err error) bool {
	var mc *MissingCountryColumnError
	var nt *NoTypeColumnsError
	var pe *csv.ParseError
	return errors.As(err, &mc) || errors.As(err, &nt) || errors.As(err, &pe) || errors.Is(err, ErrEmptyFile)
}

// IsNoDataSource reports whether err is a NoDataSourceError.
func IsNoDataSource(err error) bool {
	var ns *NoDataSourceError
	return errors.As(err, &ns)
}

var ErrEmptyFile = errors.New("CSV file has no header row")
