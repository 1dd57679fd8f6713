// Package main aligns the markdown tables of booking digests in place.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bpollino/angelina-jail-activity-automation/internal/cli"
	"github.com/bpollino/angelina-jail-activity-automation/internal/formatter"
)

var errUnformatted = errors.New("files need formatting")

func main() {
	cli.Execute(newCommand())
}

func newCommand() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "formatter [PATH]",
		Short: "Align markdown tables in digest files",
		Long: `Scan PATH (default ".") for markdown files and align their pipe tables.
Signed files are signed again so their hash stays valid.

Without --write nothing is changed and the command fails when a file would be.`,
		Example: "  formatter output/\n  formatter output/digest.md --write",
		Args:    cobra.MaximumNArgs(1),
		PreRun:  cli.PreRun,
		RunE: func(_ *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}

			return run(target, write)
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "write changes to files")

	return cmd
}

func run(target string, write bool) error {
	fmt.Printf("📂 Scanning path: %s\n", target)

	if write {
		fmt.Println("✍️  Write mode ENABLED (files will be modified)")
	} else {
		fmt.Println("👀 Dry-run mode (no changes will be written)")
	}

	fmt.Println()

	var count, changed, failed int

	err := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			fmt.Printf("❌ Error accessing path %s: %v\n", path, err)
			failed++

			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != target {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		count++

		wasChanged, procErr := processFile(path, write)

		switch {
		case procErr != nil:
			fmt.Printf("❌ Failed to process %s: %v\n", path, procErr)
			failed++
		case wasChanged && write:
			changed++
			fmt.Printf("✅ Formatted: %s\n", path)
		case wasChanged:
			changed++
			fmt.Printf("📝 Would format: %s\n", path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("error walking path: %w", err)
	}

	fmt.Println("\n----------------------------------------------------------------")
	fmt.Printf("📈 Summary:\n")
	fmt.Printf("  Scanned: %d files\n", count)
	fmt.Printf("  Changed: %d files\n", changed)
	fmt.Printf("  Errors:  %d\n", failed)

	if failed > 0 {
		return fmt.Errorf("%d files could not be processed", failed)
	}

	if changed > 0 && !write {
		fmt.Println("\n💡 Run with --write to apply changes.")
		return fmt.Errorf("%w: %d", errUnformatted, changed)
	}

	return nil
}

func processFile(path string, write bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	original := string(content)

	formatted := formatter.FormatMarkdown(original)
	if formatted == original {
		return false, nil
	}

	if write {
		info, err := os.Stat(path)
		if err != nil {
			return false, err
		}

		if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
			return false, err
		}
	}

	return true, nil
}
