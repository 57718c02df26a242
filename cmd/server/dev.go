//go:build dev

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mbtiatlas/insights/charts"
	"github.com/mbtiatlas/insights/config"
	"github.com/mbtiatlas/insights/dataset"
)

func registerDevRoutes(r chi.Router, cfg *config.Config, cache *dataset.Cache) {
	// Static files for charts
	r.Handle("/chartdata/*", http.StripPrefix("/chartdata/", http.FileServer(http.Dir(cfg.ChartDataDir))))

	// Every type's chart on one page, rendered server-side
	r.Get("/charts", charts.OverviewHandler(cache, cfg.DefaultFile, cfg.TopN))
}
