// Package main publishes a signed article file to Ghost.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bpollino/angelina-jail-activity-automation/internal/cli"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/ghost"
	"github.com/bpollino/angelina-jail-activity-automation/pkg/metadata"
)

func main() {
	cli.Execute(newCommand())
}

func newCommand() *cobra.Command {
	var f cli.Flags

	cmd := &cobra.Command{
		Use:   "publisher FILE",
		Short: "Publish a signed article file",
		Long: `Publish an article written by the renderer or by a worker dry run.

The file's metadata block must verify and record a passing validation; its
article date and body format are taken from the block.`,
		Args:   cobra.ExactArgs(1),
		PreRun: cli.PreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), &f, args[0])
		},
	}

	f.InstallCommon(cmd)
	cmd.Flags().StringVar(&f.Status, "status", "", "post status: published or draft")
	cmd.Flags().BoolVar(&f.DryRun, "dry-run", false, "print the post payload instead of sending it")

	return cmd
}

func run(ctx context.Context, f *cli.Flags, path string) error {
	cfg, log, err := f.Load()
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	fmt.Printf("📂 Reading: %s (%d bytes)\n", path, len(content))

	meta, body, err := metadata.Open(string(content))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("🔐 Signature verified (%d records, %s)\n", meta.Records, meta.Format)

	date, err := time.ParseInLocation(config.DateLayout, meta.ArticleDate, cfg.Location())
	if err != nil {
		return fmt.Errorf("%s: %w: %q", path, config.ErrInvalidArticleDate, meta.ArticleDate)
	}

	req := ghost.Request{
		Date:   date,
		Body:   body,
		Format: meta.Format,
		Status: cfg.Article.Status,
	}

	if f.DryRun {
		pub := ghost.NewPublisherFromConfig(nil, cfg, log)

		post, source, err := pub.Post(req)
		if err != nil {
			return err
		}

		fmt.Printf("🧪 Dry run, %s source\n", source)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(post)
	}

	if err := cfg.RequirePublisher(); err != nil {
		return err
	}

	client, err := ghost.NewFromConfig(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Ghost.PublishTimeout())
	defer cancel()

	post, err := ghost.NewPublisherFromConfig(client, cfg, log).Publish(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("✨ Published %q\n", post.Title)
	fmt.Printf("   %s [%s]\n", post.URL, post.Status)

	return nil
}
