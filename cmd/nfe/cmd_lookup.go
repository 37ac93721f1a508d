package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nexconsult/nfe-regime/internal/export"
	"github.com/nexconsult/nfe-regime/internal/lookup"
	"github.com/nexconsult/nfe-regime/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type lookupOptions struct {
	file   string
	xlsx   bool
	csv    bool
	outDir string
}

func newLookupCmd() *cobra.Command {
	opts := &lookupOptions{}

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Resolve the tax regime of a list of access keys",
		Long: `Reads one access key per line from a file or stdin, resolves the regime of each
issuer in order and prints the result table. Lookups are paced to respect the
registry rate limit, so large batches take a while.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLookup(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Input file with one key per line (default: stdin)")
	cmd.Flags().BoolVar(&opts.xlsx, "xlsx", false, "Write the results as XLSX")
	cmd.Flags().BoolVar(&opts.csv, "csv", false, "Write the results as CSV")
	cmd.Flags().StringVar(&opts.outDir, "out", ".", "Directory for exported files")

	return cmd
}

func readInput(cmd *cobra.Command, file string) (string, error) {
	var in io.Reader = cmd.InOrStdin()
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return "", fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func runLookup(cmd *cobra.Command, opts *lookupOptions) error {
	text, err := readInput(cmd, opts.file)
	if err != nil {
		return err
	}

	keys := lookup.SplitKeys(text)
	if len(keys) == 0 {
		return errors.New("no access keys in input")
	}

	container, log, err := newContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	result, err := container.BatchService.Run(cmd.Context(), keys, func(p lookup.Progress) {
		log.WithFields(logrus.Fields{
			"done":      p.Processed(),
			"total":     p.Total,
			"elapsed":   p.Elapsed.Round(time.Second),
			"remaining": p.Remaining().Round(time.Second),
		}).Info("Processing keys")
	})
	var tooLarge *lookup.BatchTooLargeError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%d keys in input, the maximum is %d", tooLarge.Count, tooLarge.Max)
	}
	if err != nil {
		return err
	}

	if err := printResult(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	now := time.Now()
	if opts.xlsx {
		if err := writeExport(opts.outDir, "xlsx", now, result.Rows, export.WriteXLSX, log); err != nil {
			return err
		}
	}
	if opts.csv {
		if err := writeExport(opts.outDir, "csv", now, result.Rows, export.WriteCSV, log); err != nil {
			return err
		}
	}

	return nil
}

func printResult(out io.Writer, result *models.BatchResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(models.Columns, "\t"))
	for _, row := range result.Rows {
		fmt.Fprintln(w, strings.Join(row.Values(), "\t"))
	}
	fmt.Fprintf(w, "\n%d keys (%d valid, %d invalid) in %s\n",
		result.Total, result.Valid, result.Invalid, time.Duration(result.DurationMs)*time.Millisecond)
	return w.Flush()
}

func writeExport(dir, ext string, now time.Time, rows []models.ResultRow, write func(io.Writer, []models.ResultRow) error, log *logrus.Logger) error {
	path := filepath.Join(dir, export.FileName(export.FilePrefix, ext, now))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	log.WithField("file", path).Info("Results exported")
	return nil
}
