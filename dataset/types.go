package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
)

// RawTable is a parsed CSV: trimmed header names and the string cells of every row.
// After Load, the country column is always named consts.CountryColumn.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of the named column, or -1.
func (t *RawTable) Index(name string) int {
	return slices.Index(t.Columns, name)
}

// Cell returns the value at row i for column index col, or "" for short rows.
func (t *RawTable) Cell(i, col int) string {
	row := t.Rows[i]
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// LongRecord is one (country, type) pair of the tidy dataset.
type LongRecord struct {
	Country  string
	TypeCode string
	RawValue float64
	Ratio    float64
	Rank     int
}

// Upload is a user-supplied CSV file.
type Upload struct {
	Name    string
	Content []byte
}

// ID identifies the upload by content, so the same bytes always map to the same id.
func (u *Upload) ID() string {
	return ContentKey(u.Content)
}

func ContentKey(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Dataset is the immutable result of loading and reshaping one source.
type Dataset struct {
	Source  string
	Types   []string
	Records []LongRecord
	// Scaled is true when raw values were read as percentages and divided by 100.
	Scaled bool
}

// HasType reports whether code is one of the detected type columns.
func (d *Dataset) HasType(code string) bool {
	_, found := slices.BinarySearch(d.Types, code)
	return found
}
