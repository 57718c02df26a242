package charts

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/mbtiatlas/insights/consts"
	"github.com/mbtiatlas/insights/dataset"
)

// Bar is one country's bar in a ranked chart.
type Bar struct {
	Country  string
	TypeCode string
	Ratio    float64
	Rank     int
	Label    string // percentage, 1 decimal
	Tooltip  string // type, country and percentage with 2 decimals
	Opacity  float64
}

// BarChart describes a ranked horizontal bar chart for one type, bars best first.
type BarChart struct {
	Title    string
	TypeCode string
	Color    string
	Height   int
	Dim      float64
	Bars     []Bar
}

// Facet is one panel of the multi-type view, placed on a fixed-width grid.
type Facet struct {
	BarChart
	Row    int
	Column int
}

// FacetChart describes the small-multiples comparison of several types.
type FacetChart struct {
	Title   string
	Columns int
	Facets  []Facet
}

// FormatPercent renders a ratio as a percentage, e.g. 0.3 -> "30.0%" with 1 decimal.
func FormatPercent(ratio float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, ratio*100)
}

// Opacity returns the opacity of the bar for country while hovered is under the pointer.
// With nothing hovered every bar is fully opaque.
func Opacity(country, hovered string, dim float64) float64 {
	if hovered == "" || hovered == country {
		return 1
	}
	return dim
}

// ColorFor picks the palette color of a type code by its position in the sorted type list.
func ColorFor(code string, types []string) string {
	i, _ := slices.BinarySearch(types, code)
	return consts.TypePalette[i%len(consts.TypePalette)]
}

// BarHeight grows with the number of rows so no bar is clipped.
func BarHeight(rows int) int {
	return consts.BarRowHeight*rows + consts.BarChartPadding
}

// BuildSingle describes the single-type view for the selected records of code.
func BuildSingle(selected []dataset.LongRecord, code string, n int, hovered string) BarChart {
	chart := BarChart{
		Title:    fmt.Sprintf("%s - Top %d countries", code, n),
		TypeCode: code,
		Color:    consts.SingleBarColor,
		Dim:      consts.SingleDimOpacity,
	}
	chart.Bars = buildBars(selected, code, hovered, chart.Dim)
	chart.Height = BarHeight(len(chart.Bars))
	return chart
}

// BuildFacets describes the multi-type view: one facet per type present in selected,
// in type-code order, wrapping every consts.FacetColumns facets. Colors follow the
// position of each type in types.
func BuildFacets(selected []dataset.LongRecord, types []string, n int, hovered string) FacetChart {
	var codes []string
	for _, r := range selected {
		if !slices.Contains(codes, r.TypeCode) {
			codes = append(codes, r.TypeCode)
		}
	}
	slices.Sort(codes)

	chart := FacetChart{
		Title:   fmt.Sprintf("Top %d countries by MBTI type", n),
		Columns: consts.FacetColumns,
	}
	for i, code := range codes {
		bars := buildBars(selected, code, hovered, consts.FacetDimOpacity)
		chart.Facets = append(chart.Facets, Facet{
			BarChart: BarChart{
				Title:    code,
				TypeCode: code,
				Color:    ColorFor(code, types),
				Height:   BarHeight(len(bars)),
				Dim:      consts.FacetDimOpacity,
				Bars:     bars,
			},
			Row:    i / consts.FacetColumns,
			Column: i % consts.FacetColumns,
		})
	}
	return chart
}

func buildBars(selected []dataset.LongRecord, code, hovered string, dim float64) []Bar {
	var bars []Bar
	for _, r := range selected {
		if r.TypeCode != code {
			continue
		}
		bars = append(bars, Bar{
			Country:  r.Country,
			TypeCode: r.TypeCode,
			Ratio:    r.Ratio,
			Rank:     r.Rank,
			Label:    FormatPercent(r.Ratio, consts.LabelDecimals),
			Tooltip: fmt.Sprintf("Type: %s<br/>Country: %s<br/>Ratio: %s",
				r.TypeCode, r.Country, FormatPercent(r.Ratio, consts.TooltipDecimals)),
			Opacity: Opacity(r.Country, hovered, dim),
		})
	}
	slices.SortStableFunc(bars, func(a, b Bar) int {
		return cmp.Compare(b.Ratio, a.Ratio)
	})
	return bars
}
