// Package main inspects the records base and optionally exports one day of bookings.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/cli"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/diagnose"
	"github.com/bpollino/angelina-jail-activity-automation/internal/fetcher"
	"github.com/bpollino/angelina-jail-activity-automation/internal/formatter"
)

func main() {
	cli.Execute(newCommand())
}

func newCommand() *cobra.Command {
	var (
		f      cli.Flags
		sample int
		csvOut string
	)

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Inspect the Airtable base and booking columns",
		Long: `List the tables of the base with their fields, sample the bookings table and
report which booking attributes its columns carry.

With --csv the normalized bookings of the article date are exported as well.`,
		Args:   cobra.NoArgs,
		PreRun: cli.PreRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), &f, sample, csvOut)
		},
	}

	f.InstallCommon(cmd)
	cmd.Flags().StringVar(&f.Date, "date", "", "date to export with --csv (default yesterday)")
	cmd.Flags().IntVar(&sample, "sample", diagnose.DefaultSampleSize, "bookings to sample")
	cmd.Flags().StringVar(&csvOut, "csv", "", "export the day's bookings to this CSV file (- for stdout)")

	return cmd
}

func run(ctx context.Context, f *cli.Flags, sample int, csvOut string) error {
	cfg, log, err := f.Load()
	if err != nil {
		return err
	}

	if err := cfg.RequireRecords(); err != nil {
		return err
	}

	client, err := airtable.NewFromConfig(cfg, log)
	if err != nil {
		return err
	}

	log.Info("🔍 Inspecting base", "base", cfg.Airtable.BaseID, "table", cfg.Airtable.TableID)

	report, err := diagnose.Inspect(ctx, client, diagnose.Options{
		BookingsTable:     cfg.Airtable.TableID,
		BookingDateColumn: cfg.Airtable.BookingDateField,
		SampleSize:        sample,
	}, log)
	if err != nil {
		return err
	}

	fmt.Print(report.Markdown())

	if missing := report.MissingRequired(); len(missing) > 0 {
		log.Warn(fmt.Sprintf("⚠️  Required attributes not found in sample: %v", missing))
	}

	if csvOut == "" {
		return nil
	}

	date, err := cfg.TargetDate(time.Now())
	if err != nil {
		return err
	}

	records, err := fetcher.NewFromConfig(client, cfg, log).FetchByDate(ctx, date)
	if err != nil {
		return err
	}

	if csvOut == "-" {
		return formatter.WriteCSV(os.Stdout, records)
	}

	file, err := os.Create(csvOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", csvOut, err)
	}
	defer file.Close()

	if err := formatter.WriteCSV(file, records); err != nil {
		return err
	}

	log.Info(fmt.Sprintf("💾 Exported %d bookings for %s to %s", len(records), date.Format(config.DateLayout), csvOut))

	return file.Close()
}
