// Package main provides the daily worker: it fetches yesterday's bookings, renders the
// article and publishes it to Ghost.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bpollino/angelina-jail-activity-automation/internal/ads"
	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/cli"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/fetcher"
	"github.com/bpollino/angelina-jail-activity-automation/internal/ghost"
	"github.com/bpollino/angelina-jail-activity-automation/internal/pipeline"
)

func main() {
	cli.Execute(newCommand())
}

func newCommand() *cobra.Command {
	var f cli.Flags

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Publish the daily jail activity article",
		Long: `Fetch one day of bookings from Airtable, render the article with the active
advertisement, validate it and create the Ghost post.

The day defaults to yesterday in the publication's calendar; override it with
--date or ARTICLE_DATE.`,
		Args:    cobra.NoArgs,
		PreRun:  cli.PreRun,
		Example: "  worker --date 2025-09-19 --status draft\n  worker --dry-run -o out/",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), &f)
		},
	}

	f.InstallCommon(cmd)
	f.InstallArticle(cmd)
	f.InstallOutput(cmd, "also write the signed article into this directory")

	return cmd
}

func run(ctx context.Context, f *cli.Flags) error {
	startTime := time.Now()

	cfg, log, err := f.Load()
	if err != nil {
		return err
	}

	// A dry run never touches Ghost.
	if f.DryRun {
		err = cfg.RequireRecords()
	} else {
		err = cfg.RequireWorker()
	}

	if err != nil {
		return err
	}

	date, err := cfg.TargetDate(startTime)
	if err != nil {
		return err
	}

	log.Info("🚀 Starting jail activity worker")
	log.Info(fmt.Sprintf("📅 Article date: %s (%s)", date.Format(config.DateLayout), cfg.Article.Timezone))
	log.Info(fmt.Sprintf("🎯 Target: %s as %s, %s", cfg.Ghost.URL, cfg.Article.Status, cfg.Article.Format))

	records, err := airtable.NewFromConfig(cfg, log)
	if err != nil {
		return err
	}

	var adSource pipeline.AdSource

	if cfg.HasAdsStore() {
		store, err := airtable.NewAdsFromConfig(cfg, log)
		if err != nil {
			return err
		}

		adOpts := ads.OptionsFromConfig(cfg)
		adOpts.ReadOnly = f.DryRun
		adSource = ads.NewService(store, adOpts, log)
	} else {
		log.Warn("⚠️  No advertisement store configured, running without an ad")
	}

	var publisher pipeline.Publisher

	if !f.DryRun {
		client, err := ghost.NewFromConfig(cfg, log)
		if err != nil {
			return err
		}

		publisher = ghost.NewPublisherFromConfig(client, cfg, log)
	}

	opts := pipeline.OptionsFromConfig(cfg)
	opts.DryRun = f.DryRun
	opts.OutputDir = f.Output

	runner := pipeline.New(fetcher.NewFromConfig(records, cfg, log), adSource, publisher, opts, log)

	res, err := runner.Run(ctx, date)
	if res != nil && res.Validation != nil && !res.Validation.IsValid {
		res.Validation.PrintErrors()
	}

	if err != nil {
		return err
	}

	printReport(res, time.Since(startTime))

	return nil
}

func printReport(res *pipeline.Result, elapsed time.Duration) {
	out := os.Stdout

	fmt.Fprintln(out, "\n------------------------------------------------")
	fmt.Fprintf(out, "📊 Summary Report\n")
	fmt.Fprintln(out, "------------------------------------------------")
	fmt.Fprintf(out, "Article: %s\n", res.Document.Title)
	fmt.Fprintf(out, "Bookings: %d\n", len(res.Records))

	if res.Ad != nil {
		fmt.Fprintf(out, "Advertisement: %s (%s)\n", res.Ad.Title, res.Ad.ID)
	} else {
		fmt.Fprintln(out, "Advertisement: none")
	}

	fmt.Fprintf(out, "Validation: %s\n", res.Validation)

	if res.OutputPath != "" {
		fmt.Fprintf(out, "Written: %s\n", res.OutputPath)
	}

	if res.Post != nil {
		fmt.Fprintf(out, "Post: %s [%s]\n", res.Post.URL, res.Post.Status)
	}

	fmt.Fprintf(out, "Total Duration: %v\n", elapsed)

	res.Validation.PrintWarnings()

	fmt.Fprintln(out, "------------------------------------------------")
	fmt.Fprintln(out)
	fmt.Fprint(out, res.Digest)
}
