package main

import (
	"context"
	"database/sql"

	"github.com/mbtiatlas/insights/charts"
	"github.com/mbtiatlas/insights/config"
	"github.com/mbtiatlas/insights/dataset"
	"github.com/mbtiatlas/insights/db"
	"go.uber.org/zap"
)

func cleanup(_ context.Context, cfg *config.Config, dbConn *sql.DB) func() {
	return func() {
		zap.S().Info("Cleaning old uploads")
		if _, err := db.PurgeOldEntries(dbConn, cfg.UploadRetentionDays); err != nil {
			zap.S().Errorf("Error cleaning old uploads: %v", err)
		}
	}
}

// generateCharts exports charts.json for the default dataset. The file is reloaded so
// a replaced data file shows up in the next export.
func generateCharts(_ context.Context, cfg *config.Config, cache *dataset.Cache) func() {
	return func() {
		zap.S().Info("Exporting charts JSON")
		cache.Invalidate(cfg.DefaultFile, nil)
		ds, err := cache.Get(cfg.DefaultFile, nil)
		if dataset.IsNoDataSource(err) {
			zap.S().Warnf("Skipping charts export: %v", err)
			return
		}
		if err != nil {
			zap.S().Errorf("Error loading %s: %v", cfg.DefaultFile, err)
			return
		}
		if err := charts.ExportChartsJSON(ds, cfg.ChartDataDir, cfg.TopN); err != nil {
			zap.S().Errorf("Error exporting charts JSON: %v", err)
		}
	}
}
