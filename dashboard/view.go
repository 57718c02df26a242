package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	gocharts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/mbtiatlas/insights/charts"
	"github.com/mbtiatlas/insights/consts"
	"github.com/mbtiatlas/insights/selection"
	"github.com/mbtiatlas/insights/table"
	"go.uber.org/zap"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html").
	Funcs(template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}).
	ParseFS(templateFS, "templates/dashboard.html"))

// chartView places one rendered chart on the page.
type chartView struct {
	ID     string
	Width  string
	Height int
	Row    int
	Column int
}

// chartOptions is what the page script needs to draw and re-dim a chart.
type chartOptions struct {
	ID      string         `json:"id"`
	Dim     float64        `json:"dim"`
	Options map[string]any `json:"options"`
}

type page struct {
	Source   string
	Notice   string
	Error    string
	Warning  string
	Types    []string
	Params   selection.Params
	Checked  map[string]bool
	TopMin   int
	TopMax   int
	UploadID string

	Facets    bool
	Title     string
	Columns   int
	Charts    []chartView
	ChartData template.JS

	ShowTable bool
	Rows      []table.Row
	ExportURL string
}

func errorPage(req request, msg string) page {
	pg := page{
		Error:    msg,
		TopMin:   consts.TopNMin,
		TopMax:   consts.TopNMax,
		UploadID: req.UploadID,
		Params:   req.Params,
	}
	if ds := req.Dataset; ds != nil {
		pg.Source, pg.Types = ds.Source, ds.Types
		pg.Checked = checkedTypes(ds.Types, req.Params)
	}
	return pg
}

// checkedTypes marks the types ticked in the comparison form: the selection in
// multiple mode, the usual comparison types otherwise.
func checkedTypes(types []string, p selection.Params) map[string]bool {
	checked := p.Types
	if p.Mode != selection.ModeMultiple {
		checked = selection.DefaultCompareTypes(types)
	}
	out := make(map[string]bool, len(checked))
	for _, t := range checked {
		out[t] = true
	}
	return out
}

func buildPage(req request) page {
	ds, p := req.Dataset, req.Params
	pg := page{
		Source:    ds.Source,
		Types:     ds.Types,
		Params:    p,
		Checked:   checkedTypes(ds.Types, p),
		TopMin:    consts.TopNMin,
		TopMax:    consts.TopNMax,
		UploadID:  req.UploadID,
		ShowTable: p.ShowTable,
		ExportURL: "/export.csv?" + Query(p, req.UploadID).Encode(),
	}
	if req.UploadID != "" && strings.HasPrefix(ds.Source, "local:") {
		pg.Notice = "The local data file takes precedence over uploaded files."
	}

	selected, err := selection.Apply(ds.Records, p)
	if errors.Is(err, selection.ErrEmptySelection) {
		pg.Warning = "Select at least one MBTI type to compare."
		return pg
	}

	var bars []*gocharts.Bar
	var descs []charts.BarChart
	if p.Mode == selection.ModeMultiple {
		facets := charts.BuildFacets(selected, ds.Types, p.TopN, p.Hover)
		pg.Facets, pg.Title, pg.Columns = true, facets.Title, facets.Columns
		bars = charts.NewFacetCharts(facets)
		for _, f := range facets.Facets {
			descs = append(descs, f.BarChart)
			pg.Charts = append(pg.Charts, chartView{
				ID:     "chart-" + f.TypeCode,
				Width:  consts.FacetWidth,
				Height: f.PixelHeight(),
				Row:    f.Row + 1,
				Column: f.Column + 1,
			})
		}
	} else {
		single := charts.BuildSingle(selected, p.Type, p.TopN, p.Hover)
		bars = []*gocharts.Bar{charts.NewBarChart(single, consts.ChartWidth)}
		descs = []charts.BarChart{single}
		pg.Charts = []chartView{{
			ID:     "chart-" + single.TypeCode,
			Width:  consts.ChartWidth,
			Height: single.PixelHeight(),
		}}
	}

	data := make([]chartOptions, 0, len(bars))
	for i, b := range bars {
		data = append(data, chartOptions{ID: pg.Charts[i].ID, Dim: descs[i].Dim, Options: charts.Options(b)})
	}
	js, err := json.Marshal(data)
	if err != nil {
		zap.S().Errorf("Error encoding chart options: %v", err)
		js = []byte("[]")
	}
	pg.ChartData = template.JS(js) //nolint:gosec

	if p.ShowTable {
		pg.Rows = table.Rows(selected, p.Mode)
	}
	return pg
}

func renderPage(w http.ResponseWriter, status int, pg page) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pg); err != nil {
		zap.S().Errorf("Error rendering dashboard: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
