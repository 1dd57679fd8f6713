// Package main renders one article to a signed file without publishing it.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bpollino/angelina-jail-activity-automation/internal/ads"
	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/cli"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/fetcher"
	"github.com/bpollino/angelina-jail-activity-automation/internal/fixtures"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
	"github.com/bpollino/angelina-jail-activity-automation/internal/pipeline"
)

func main() {
	cli.Execute(newCommand())
}

func newCommand() *cobra.Command {
	var (
		f        cli.Flags
		scenario string
	)

	cmd := &cobra.Command{
		Use:   "renderer",
		Short: "Render an article to a signed file",
		Long: `Render one day's article, validate it and write it with a metadata block that
records the validation outcome, next to a markdown digest of the bookings.
Signed files can be published later with the publisher command.

With --scenario the bookings come from the built-in fixtures and no credentials
are needed. Valid scenarios: ` + strings.Join(fixtures.Names(), ", ") + `.`,
		Args:   cobra.NoArgs,
		PreRun: cli.PreRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), &f, scenario)
		},
	}

	f.InstallCommon(cmd)
	f.InstallArticle(cmd)
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "output directory (default server.output_dir)")
	cmd.Flags().StringVar(&scenario, "scenario", "", "render a fixture scenario instead of live bookings")

	return cmd
}

func run(ctx context.Context, f *cli.Flags, scenario string) error {
	cfg, log, err := f.Load()
	if err != nil {
		return err
	}

	if scenario != "" && !fixtures.Valid(scenario) {
		return fmt.Errorf("%w %q, valid scenarios: %s", fixtures.ErrUnknownScenario, scenario, strings.Join(fixtures.Names(), ", "))
	}

	date, err := cfg.TargetDate(time.Now())
	if err != nil {
		return err
	}

	source, adSource, err := sources(cfg, log, scenario)
	if err != nil {
		return err
	}

	opts := pipeline.OptionsFromConfig(cfg)
	opts.DryRun = true

	opts.OutputDir = f.Output
	if opts.OutputDir == "" {
		opts.OutputDir = cfg.Server.OutputDir
	}

	res, err := pipeline.New(source, adSource, nil, opts, log).Run(ctx, date)
	if res != nil && res.Validation != nil && !res.Validation.IsValid {
		res.Validation.PrintErrors()

		if res.OutputPath != "" {
			fmt.Fprintf(os.Stdout, "📄 %s (unvalidated, fix it and run signer)\n", res.OutputPath)
		}
	}

	if err != nil {
		return err
	}

	digestPath := strings.TrimSuffix(res.OutputPath, filepath.Ext(res.OutputPath)) + ".md"
	if err := os.WriteFile(digestPath, []byte(res.Digest), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", digestPath, err)
	}

	fmt.Fprintf(os.Stdout, "📄 %s\n", res.OutputPath)
	fmt.Fprintf(os.Stdout, "📝 %s\n", digestPath)
	fmt.Fprintf(os.Stdout, "%s\n\n", res.Validation)
	fmt.Fprint(os.Stdout, res.Digest)

	return nil
}

// sources picks fixture or live inputs.
func sources(cfg *config.Config, log *logger.Logger, scenario string) (pipeline.Fetcher, pipeline.AdSource, error) {
	if scenario != "" {
		set, err := fixtures.Default()
		if err != nil {
			return nil, nil, err
		}

		src := fixtures.Source{Set: set, Scenario: scenario, Location: cfg.Location()}
		log.Info("🧪 rendering fixture scenario", "scenario", scenario)

		return src, src, nil
	}

	if err := cfg.RequireRecords(); err != nil {
		return nil, nil, err
	}

	records, err := airtable.NewFromConfig(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	var adSource pipeline.AdSource

	if cfg.HasAdsStore() {
		store, err := airtable.NewAdsFromConfig(cfg, log)
		if err != nil {
			return nil, nil, err
		}

		adOpts := ads.OptionsFromConfig(cfg)
		adOpts.ReadOnly = true
		adSource = ads.NewService(store, adOpts, log)
	}

	return fetcher.NewFromConfig(records, cfg, log), adSource, nil
}
