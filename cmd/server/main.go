package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/mbtiatlas/insights/config"
	"github.com/mbtiatlas/insights/consts"
	"github.com/mbtiatlas/insights/dashboard"
	"github.com/mbtiatlas/insights/dataset"
	"github.com/mbtiatlas/insights/db"
	"github.com/mbtiatlas/insights/logging"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the MBTI dashboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		sync, err := logging.Setup(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer sync()
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: ./mbti.yaml if present)")
}

func startTasks(ctx context.Context, cfg *config.Config, dbConn *sql.DB, cache *dataset.Cache) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	// Generate charts JSON once a day at 00:05 UTC
	_, err := c.AddFunc(consts.CronGenerateChart, generateCharts(ctx, cfg, cache))
	if err != nil {
		return nil, err
	}
	_, err = c.AddFunc(consts.CronCleanup, cleanup(ctx, cfg, dbConn))
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	dbConn, err := db.OpenDB(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", cfg.DBFile, err)
	}
	defer func() { _ = dbConn.Close() }()
	zap.S().Infof("Connected to database at %s", cfg.DBFile)

	cache := dataset.NewCache(cfg.CacheTTL)
	c, err := startTasks(ctx, cfg, dbConn, cache)
	if err != nil {
		return err
	}
	defer c.Stop()

	go generateCharts(ctx, cfg, cache)()

	app := &dashboard.App{
		DB:          dbConn,
		Cache:       cache,
		DefaultFile: cfg.DefaultFile,
		TopN:        cfg.TopN,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Dev-only routes (static files and server-rendered overview)
	registerDevRoutes(r, cfg, cache)

	r.Get("/", dashboard.DashboardHandler(app))
	r.Get("/export.csv", dashboard.ExportCSVHandler(app))

	// API endpoint to serve charts.json (protected by api_key if set)
	r.With(dashboard.APIKeyMiddleware(cfg.APIKey)).Get("/api/charts", dashboard.ChartsJSONHandler(cfg.ChartDataDir))

	// Rate-limited upload endpoint
	limiter := httprate.NewRateLimiter(consts.RateLimitRequests, consts.RateLimitWindow, httprate.WithKeyByIP())
	r.With(limiter.Handler).Post("/upload", dashboard.UploadHandler(app))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		ReadHeaderTimeout: consts.ReadHeaderTimeout,
		Handler:           r,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.S().Infof("Starting MBTI Insights server on :%s", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ListenAndServe: %w", err)
		}
		return nil
	case <-ctx.Done():
		zap.S().Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
