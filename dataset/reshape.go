package dataset

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mbtiatlas/insights/consts"
)

// BuildLongForm converts the wide table into one record per (country, type) pair.
// Cells that do not parse as numbers are dropped. Ratios are scaled by 1/100 for every
// record when the largest value in the whole dataset exceeds consts.PercentThreshold,
// and ranks are assigned per type by descending ratio, ties keeping row order.
func BuildLongForm(table *RawTable, typeColumns []string) []LongRecord {
	records, _ := buildLongForm(table, typeColumns)
	return records
}

func buildLongForm(table *RawTable, typeColumns []string) ([]LongRecord, bool) {
	countryCol := table.Index(consts.CountryColumn)

	var records []LongRecord
	maxValue := math.Inf(-1)
	for _, code := range typeColumns {
		col := table.Index(code)
		if col < 0 {
			continue
		}
		for i := range table.Rows {
			value, ok := parseValue(table.Cell(i, col))
			if !ok {
				continue
			}
			records = append(records, LongRecord{
				Country:  strings.TrimSpace(table.Cell(i, countryCol)),
				TypeCode: code,
				RawValue: value,
			})
			maxValue = max(maxValue, value)
		}
	}

	scaled := maxValue > consts.PercentThreshold
	for i := range records {
		if scaled {
			records[i].Ratio = records[i].RawValue / 100
		} else {
			records[i].Ratio = records[i].RawValue
		}
	}

	assignRanks(records)
	return records, scaled
}

// assignRanks sets Rank = 1..k inside each type partition, ordered by descending ratio.
// The stable sort keeps encounter order for ties.
func assignRanks(records []LongRecord) {
	partitions := make(map[string][]int)
	for i, r := range records {
		partitions[r.TypeCode] = append(partitions[r.TypeCode], i)
	}
	for _, idx := range partitions {
		slices.SortStableFunc(idx, func(a, b int) int {
			return cmp.Compare(records[b].Ratio, records[a].Ratio)
		})
		for rank, i := range idx {
			records[i].Rank = rank + 1
		}
	}
}

func parseValue(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
