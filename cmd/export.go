package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cadence/internal/report"
	"github.com/theirongolddev/cadence/internal/source"
)

var (
	flagExportOut    string
	flagExportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the budget as a CSV report or a budget file",
	Long: "Export the budget. CSV is the report with monthly and annual totals; " +
		"yaml, toml and json write a budget file that `cadence import` reads back.",
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "output", "o", "", "Output file, or - for stdout (default budget-DD-MM-YYYY.csv in the export dir)")
	exportCmd.Flags().StringVar(&flagExportFormat, "format", "", "csv, yaml, toml or json (default from the output extension, else csv)")
	rootCmd.AddCommand(exportCmd)
}

func exportFormat() (string, error) {
	if flagExportFormat != "" {
		f := strings.ToLower(flagExportFormat)
		switch f {
		case "csv", string(source.FormatYAML), string(source.FormatTOML), string(source.FormatJSON):
			return f, nil
		}
		return "", fmt.Errorf("unknown export format %q", flagExportFormat)
	}
	if f, ok := source.FormatOf(flagExportOut); ok {
		return string(f), nil
	}
	return "csv", nil
}

func runExport(_ *cobra.Command, _ []string) error {
	format, err := exportFormat()
	if err != nil {
		return err
	}

	b, err := openBudget()
	if err != nil {
		return err
	}
	defer b.Close()

	items := b.state.Items()

	if format != "csv" {
		data, err := source.Encode(items, b.state.Frequency(), source.Format(format))
		if err != nil {
			return fmt.Errorf("encoding budget: %w", err)
		}
		if flagExportOut == "" || flagExportOut == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(flagExportOut, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", flagExportOut, err)
		}
		progress("  Wrote %d items to %s\n", len(items), flagExportOut)
		return nil
	}

	r, err := report.Build(items)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var sink report.Sink
	name := report.FileName(time.Now())
	switch flagExportOut {
	case "-":
		sink = report.WriterSink{W: os.Stdout}
	case "":
		sink = report.FileSink{Dir: cfg.Export.Dir}
	default:
		sink = report.FileSink{Dir: filepath.Dir(flagExportOut)}
		name = filepath.Base(flagExportOut)
	}

	path, err := sink.Put(ctx, name, r)
	if err != nil {
		return err
	}
	if path == "-" {
		return nil
	}

	if b.store != nil {
		if err := b.store.RecordExport(path, len(items)); err != nil {
			return fmt.Errorf("recording export: %w", err)
		}
	}
	progress("  Exported %d items to %s\n", len(items), path)
	return nil
}
