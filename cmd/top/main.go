package main

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mbtiatlas/insights/config"
	"github.com/mbtiatlas/insights/dataset"
	"github.com/mbtiatlas/insights/db"
	"github.com/mbtiatlas/insights/selection"
	"github.com/mbtiatlas/insights/table"
	"github.com/spf13/cobra"
)

type options struct {
	config string
	file   string
	upload string
	top    int
}

func newRootCmd(out io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "top [TYPE...]",
		Short: "Print the top countries for one or more MBTI types",
		Long: `Print the countries with the highest share of the given MBTI types.

With one type the table is ordered by share; with several it is grouped by type.
Without arguments the usual comparison types are shown.`,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(out, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.config, "config", "", "config file (default: ./mbti.yaml if present)")
	cmd.Flags().StringVar(&opts.file, "file", "", "CSV file to read (default: the configured default file)")
	cmd.Flags().StringVar(&opts.upload, "upload", "", "id of a stored upload to read instead of a file")
	cmd.Flags().IntVarP(&opts.top, "top", "n", 0, "number of countries per type (5-20, default: configured top_n)")
	return cmd
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func run(out io.Writer, opts options, args []string) error {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}

	ds, err := openDataset(cfg, opts)
	if err != nil {
		return err
	}

	p := selection.Params{Mode: selection.ModeMultiple, TopN: selection.ClampTopN(cfg.TopN)}
	if opts.top != 0 {
		p.TopN = selection.ClampTopN(opts.top)
	}
	switch len(args) {
	case 0:
		p.Types = selection.DefaultCompareTypes(ds.Types)
	case 1:
		p.Mode, p.Type = selection.ModeSingle, strings.ToUpper(args[0])
	default:
		for _, a := range args {
			p.Types = append(p.Types, strings.ToUpper(a))
		}
	}
	if err := p.Validate(); err != nil {
		return err
	}
	for _, code := range p.Codes() {
		if !ds.HasType(code) {
			return fmt.Errorf("type %s is not in %s (available: %s)", code, ds.Source, strings.Join(ds.Types, ", "))
		}
	}

	selected, err := selection.Apply(ds.Records, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Source: %s\n\n", ds.Source)
	printTable(out, table.Rows(selected, p.Mode))
	return nil
}

func openDataset(cfg *config.Config, opts options) (*dataset.Dataset, error) {
	if opts.upload == "" {
		return dataset.Open(cmp.Or(opts.file, cfg.DefaultFile), nil)
	}
	dbConn, err := db.OpenDB(cfg.DBFile)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.DBFile, err)
	}
	defer func() { _ = dbConn.Close() }()

	upload, err := db.GetUpload(dbConn, opts.upload)
	if err != nil {
		return nil, err
	}
	return dataset.Open("", upload)
}

func printTable(out io.Writer, rows []table.Row) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	fmt.Fprintf(w, "%s\t%s\t%s\n",
		headerStyle.Render(table.Header[0]),
		headerStyle.Render(table.Header[1]),
		headerStyle.Render(table.Header[2]))

	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%6.2f\n", r.Type, r.Country, r.Percentage)
	}
}

