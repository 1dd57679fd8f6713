// Package main normalizes saved Airtable rows into canonical booking records.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bpollino/angelina-jail-activity-automation/internal/cli"
	"github.com/bpollino/angelina-jail-activity-automation/internal/fetcher"
	"github.com/bpollino/angelina-jail-activity-automation/internal/normalizer"
)

func main() {
	cli.Execute(newCommand())
}

func newCommand() *cobra.Command {
	var f cli.Flags

	cmd := &cobra.Command{
		Use:   "normalizer FILE",
		Short: "Normalize saved Airtable rows",
		Long: `Read rows saved from the Airtable list API (a response page or a bare array)
and print the booking records the article would be built from, in booking
order. Rows that fail validation are reported and skipped.`,
		Args:   cobra.ExactArgs(1),
		PreRun: cli.PreRun,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(&f, args[0])
		},
	}

	f.InstallCommon(cmd)
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "write JSON here instead of stdout")

	return cmd
}

func run(f *cli.Flags, inputPath string) error {
	cfg, log, err := f.Load()
	if err != nil {
		return err
	}

	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "📂 Reading: %s (%d bytes)\n", inputPath, len(content))

	rows, err := normalizer.DecodeRecords(content)
	if err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}

	processor := normalizer.NewProcessor(normalizer.Options{
		Location:          cfg.Location(),
		BookingDateColumn: cfg.Airtable.BookingDateField,
		StrictDelimiters:  !cfg.Article.AllowMixedDelimiters,
		Logger:            log,
	})

	records, skipped := processor.ProcessAll(rows)
	fetcher.SortByBooking(records)

	fmt.Fprintf(os.Stderr, "📊 Normalized %d of %d rows (%d skipped)\n", len(records), len(rows), skipped)

	jsonData, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	if f.Output == "" {
		_, err = fmt.Println(string(jsonData))
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.Output), 0o755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	if err := os.WriteFile(f.Output, jsonData, 0o644); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✅ Saved to: %s\n", f.Output)

	return nil
}
