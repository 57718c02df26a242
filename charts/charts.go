package charts

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/mbtiatlas/insights/consts"
	"github.com/mbtiatlas/insights/dataset"
	"github.com/mbtiatlas/insights/selection"
	"go.uber.org/zap"
)

// chartFrame is the space taken by the title and axes around the bars.
const chartFrame = 70

// NewBarChart renders a description as a horizontal go-echarts bar chart.
// echarts draws the first category at the bottom, so bars are added worst first
// to show the best one on top.
func NewBarChart(desc BarChart, width string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           width,
			Height:          fmt.Sprintf("%dpx", desc.PixelHeight()),
			BackgroundColor: consts.ChartBackgroundColor,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      desc.Title,
			TitleStyle: &opts.TextStyle{Color: consts.ChartTextColor},
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "item",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:         "value",
			Name:         "Ratio (%)",
			NameLocation: "center",
			NameGap:      25,
			AxisLabel: &opts.AxisLabel{
				Color:     consts.ChartTextColor,
				Formatter: "{value}%",
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "category",
			AxisLabel: &opts.AxisLabel{
				Color: consts.ChartTextColor,
			},
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   "120",
			Right:  "70",
			Top:    "40",
			Bottom: "40",
		}),
	)

	countries := make([]string, 0, len(desc.Bars))
	data := make([]opts.BarData, 0, len(desc.Bars))
	for i := len(desc.Bars) - 1; i >= 0; i-- {
		b := desc.Bars[i]
		country := plainText(b.Country)
		countries = append(countries, country)
		data = append(data, opts.BarData{
			Name:  country,
			Value: percentValue(b.Ratio),
			Label: &opts.Label{
				Show:      opts.Bool(true),
				Position:  "right",
				Color:     consts.ChartTextColor,
				Formatter: string(opts.FuncOpts(constFunc(b.Label))),
			},
			ItemStyle: &opts.ItemStyle{
				Color:   desc.Color,
				Opacity: opts.Float(float32(b.Opacity)),
			},
			Tooltip: &opts.Tooltip{Formatter: opts.FuncOpts(constFunc(b.Tooltip))},
		})
	}

	bar.SetXAxis(countries).
		AddSeries(desc.TypeCode, data).
		XYReversal()

	return bar
}

// PixelHeight is the full chart height including title and axes.
func (b BarChart) PixelHeight() int {
	return b.Height + chartFrame
}

// NewFacetCharts renders every facet as its own chart so each keeps an independent y-scale.
func NewFacetCharts(desc FacetChart) []*charts.Bar {
	out := make([]*charts.Bar, 0, len(desc.Facets))
	for _, f := range desc.Facets {
		out = append(out, NewBarChart(f.BarChart, consts.FacetWidth))
	}
	return out
}

// Options validates the chart and returns its echarts option object.
func Options(bar *charts.Bar) map[string]any {
	bar.Validate()
	return bar.JSON()
}

// funcMarker delimits JS functions inside go-echarts options.
const funcMarker = "__f__"

// constFunc wraps fixed text in a JS formatter so echarts shows it verbatim,
// without interpreting {a}/{b}/{c} placeholders.
func constFunc(text string) string {
	quoted, _ := json.Marshal(plainText(text))
	return "function () { return " + string(quoted) + "; }"
}

// plainText breaks up function markers in data-derived text so it can never be
// turned into script when the options are rendered.
func plainText(text string) string {
	return strings.ReplaceAll(text, funcMarker, "__f\u200b__")
}

func percentValue(ratio float64) float64 {
	return math.Round(ratio*100*10000) / 10000
}

// singleTypeCharts builds one top-n chart per type of the dataset.
func singleTypeCharts(ds *dataset.Dataset, n int) ([]string, []*charts.Bar) {
	codes := make([]string, 0, len(ds.Types))
	bars := make([]*charts.Bar, 0, len(ds.Types))
	for _, code := range ds.Types {
		desc := BuildSingle(selection.SelectTop(ds.Records, code, n), code, n, "")
		codes = append(codes, code)
		bars = append(bars, NewBarChart(desc, consts.ChartWidth))
	}
	return codes, bars
}

// OverviewHandler renders every type's top-n chart of the default dataset on one page.
func OverviewHandler(cache *dataset.Cache, defaultPath string, n int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := cache.Get(defaultPath, nil)
		if dataset.IsNoDataSource(err) {
			http.Error(w, "No data available", http.StatusNotFound)
			return
		}
		if err != nil {
			zap.S().Errorf("Error loading dataset: %v", err)
			http.Error(w, "Failed to load data", http.StatusInternalServerError)
			return
		}

		page := components.NewPage()
		page.PageTitle = "MBTI Insights"
		_, bars := singleTypeCharts(ds, selection.ClampTopN(n))
		for _, b := range bars {
			page.AddCharts(b)
		}

		w.Header().Set("Content-Type", "text/html")
		_ = page.Render(w)
	}
}

// ExportChartsJSON writes one single-type chart configuration per type of ds to
// outputDir/charts.json.
func ExportChartsJSON(ds *dataset.Dataset, outputDir string, n int) error {
	if ds == nil || len(ds.Records) == 0 {
		zap.S().Info("No data to export")
		return nil
	}
	n = selection.ClampTopN(n)

	codes, bars := singleTypeCharts(ds, n)
	chartsData := make([]map[string]any, 0, len(bars))
	for i, b := range bars {
		chartsData = append(chartsData, map[string]any{"id": codes[i], "options": Options(b)})
	}

	output := map[string]any{
		"source":      ds.Source,
		"types":       ds.Types,
		"topN":        n,
		"lastUpdated": time.Now().UTC().Format(time.RFC3339),
		"charts":      chartsData,
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, consts.DirPermissions); err != nil {
		return err
	}

	outputPath := filepath.Join(outputDir, consts.ChartsJSONFile)
	if err := os.WriteFile(outputPath, jsonData, consts.FilePermissions); err != nil {
		return err
	}

	zap.S().Infof("Exported charts to %s", outputPath)
	return nil
}
