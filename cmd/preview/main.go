// Package main runs the local preview server.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bpollino/angelina-jail-activity-automation/internal/ads"
	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/cli"
	"github.com/bpollino/angelina-jail-activity-automation/internal/server"
)

func main() {
	cli.Execute(newCommand())
}

func newCommand() *cobra.Command {
	var (
		f    cli.Flags
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Serve article previews and the advertisement workflow",
		Long: `Render articles from the fixture bookings at /preview, serve generated files
under /output/ and expose the advertisement submission and review API.

The ad endpoints answer 503 unless an advertisement store is configured.`,
		Args:   cobra.NoArgs,
		PreRun: cli.PreRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), &f, host, port)
		},
	}

	f.InstallCommon(cmd)
	cmd.Flags().StringVar(&host, "host", "", "listen host (default LOCAL_HOST or localhost)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default LOCAL_PORT or 3000)")

	return cmd
}

func run(ctx context.Context, f *cli.Flags, host string, port int) error {
	cfg, log, err := f.Load()
	if err != nil {
		return err
	}

	if host != "" {
		cfg.Server.Host = host
	}

	if port != 0 {
		cfg.Server.Port = port
	}

	var adService server.AdService

	if cfg.HasAdsStore() {
		store, err := airtable.NewAdsFromConfig(cfg, log)
		if err != nil {
			return err
		}

		adService = ads.NewServiceFromConfig(store, cfg, log)
	} else {
		log.Warn("⚠️  No advertisement store configured, ad endpoints disabled")
	}

	srv, err := server.NewFromConfig(cfg, adService, log)
	if err != nil {
		return err
	}

	log.Info(fmt.Sprintf("🔗 Open http://%s/", srv.Addr()))

	return srv.Run(ctx)
}
