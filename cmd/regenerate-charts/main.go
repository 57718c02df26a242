package main

import (
	"os"

	"github.com/mbtiatlas/insights/charts"
	"github.com/mbtiatlas/insights/config"
	"github.com/mbtiatlas/insights/dataset"
	"github.com/mbtiatlas/insights/logging"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv("MBTI_CONFIG"))
	if err != nil {
		panic(err)
	}
	sync, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer sync()

	ds, err := dataset.Open(cfg.DefaultFile, nil)
	if err != nil {
		zap.S().Fatalf("Error loading %s: %v", cfg.DefaultFile, err)
	}

	zap.S().Infof("Generating charts.json in %s", cfg.ChartDataDir)
	if err := charts.ExportChartsJSON(ds, cfg.ChartDataDir, cfg.TopN); err != nil {
		zap.S().Fatalf("Error exporting charts JSON: %v", err)
	}
	zap.S().Info("Charts JSON generated successfully")
}
