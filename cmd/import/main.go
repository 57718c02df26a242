package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mbtiatlas/insights/config"
	"github.com/mbtiatlas/insights/consts"
	"github.com/mbtiatlas/insights/dataset"
	"github.com/mbtiatlas/insights/db"
	"github.com/mbtiatlas/insights/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type result struct {
	ID      string
	Name    string
	Types   int
	Records int
}

func newRootCmd(out io.Writer) *cobra.Command {
	var cfgFile string
	var list bool
	cmd := &cobra.Command{
		Use:   "import <folder>",
		Short: "Validate and store every CSV file of a folder as an upload",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			sync, err := logging.Setup(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer sync()

			dbConn, err := db.OpenDB(cfg.DBFile)
			if err != nil {
				return fmt.Errorf("opening database %s: %w", cfg.DBFile, err)
			}
			defer func() { _ = dbConn.Close() }()

			if list {
				return listUploads(out, dbConn)
			}

			results, err := importFolder(dbConn, args[0])
			if err != nil {
				return err
			}
			printResults(out, results)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: ./mbti.yaml if present)")
	cmd.Flags().BoolVar(&list, "list", false, "list stored uploads instead of importing")
	return cmd
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func findCSVFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			files = append(files, filepath.Join(folder, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

// importFolder stores every loadable CSV of folder. Files that fail to load are
// logged and skipped.
func importFolder(dbConn *sql.DB, folder string) ([]result, error) {
	files, err := findCSVFiles(folder)
	if err != nil {
		return nil, fmt.Errorf("finding CSV files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CSV files found in %s", folder)
	}
	zap.S().Infof("Found %d CSV files", len(files))

	var results []result
	for i, file := range files {
		zap.S().Infof("Processing file %d of %d: %s", i+1, len(files), filepath.Base(file))
		content, err := os.ReadFile(file)
		if err != nil {
			zap.S().Warnf("Error reading %s: %v", file, err)
			continue
		}
		upload := dataset.Upload{Name: filepath.Base(file), Content: content}
		ds, err := dataset.Open("", &upload)
		if err != nil {
			zap.S().Warnf("Skipping %s: %v", file, err)
			continue
		}
		id, err := db.SaveUpload(dbConn, upload, time.Now())
		if err != nil {
			return results, err
		}
		results = append(results, result{ID: id, Name: upload.Name, Types: len(ds.Types), Records: len(ds.Records)})
	}
	zap.S().Infof("Imported %d of %d files", len(results), len(files))
	return results, nil
}

func printResults(out io.Writer, results []result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("File"),
		headerStyle.Render("Types"),
		headerStyle.Render("Records"))
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", r.ID, r.Name, r.Types, r.Records)
	}
}

func listUploads(out io.Writer, dbConn *sql.DB) error {
	uploads, err := db.ListUploads(dbConn)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("File"),
		headerStyle.Render("Stored"),
		headerStyle.Render("Bytes"))
	for u := range uploads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", u.ID, u.Name, u.Time.Format(consts.DateTimeFormat), u.Size)
	}
	return nil
}
