// Package main validates rendered article files again and signs them with metadata.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bpollino/angelina-jail-activity-automation/internal/cli"
	"github.com/bpollino/angelina-jail-activity-automation/internal/pipeline"
	"github.com/bpollino/angelina-jail-activity-automation/pkg/metadata"
)

var errFailedFiles = errors.New("some files failed")

func main() {
	cli.Execute(newCommand())
}

func newCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "signer FILE...",
		Short: "Validate and sign article files",
		Long: `Validate each article file again and rewrite its metadata block with the
outcome and a fresh hash. Use this after editing a rendered article by hand.

With --check the files are only verified against their existing signature.`,
		Args:   cobra.MinimumNArgs(1),
		PreRun: cli.PreRun,
		RunE: func(_ *cobra.Command, args []string) error {
			if check {
				return verifyAll(args)
			}

			return signAll(args)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "verify signatures without rewriting")

	return cmd
}

func signAll(paths []string) error {
	failed := 0

	for _, path := range paths {
		fmt.Printf("📂 Reading: %s\n", path)

		res, err := pipeline.Resign(path, time.Now())
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			failed++

			continue
		}

		if !res.IsValid {
			res.PrintErrors()
			fmt.Printf("⚠️  Signed as unvalidated: %s\n", path)
			failed++

			continue
		}

		res.PrintWarnings()
		fmt.Printf("✅ Signed: %s (%s)\n", path, res)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errFailedFiles, failed, len(paths))
	}

	return nil
}

func verifyAll(paths []string) error {
	failed := 0

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			failed++

			continue
		}

		meta, _, err := metadata.Open(string(raw))
		if err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)
			failed++

			continue
		}

		fmt.Printf("✅ %s: %s, %s, %d records, signed %s\n",
			path, meta.ArticleDate, meta.Format, meta.Records, meta.LastModify.Format(time.RFC3339))
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errFailedFiles, failed, len(paths))
	}

	return nil
}
