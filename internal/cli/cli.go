// Package cli holds the flag set and start-up sequence shared by every command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
)

// DotEnvFiles are loaded, when present, before the configuration is read.
var DotEnvFiles = []string{".env"}

// Flags are the options every command may expose.
type Flags struct {
	ConfigPath string
	Date       string
	Status     string
	Format     string
	Output     string
	DryRun     bool
	Verbose    int
}

// InstallCommon adds --config and --verbose.
func (f *Flags) InstallCommon(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.ConfigPath, "config", "", "path to a YAML settings file")
	cmd.PersistentFlags().CountVarP(&f.Verbose, "verbose", "v", "log at DEBUG level")

	if err := cmd.MarkPersistentFlagFilename("config", "yaml", "yml"); err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark config flag as filename: %v", err))
	}
}

// InstallArticle adds --date, --status and --format.
func (f *Flags) InstallArticle(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Date, "date", "", "article date YYYY-MM-DD (default yesterday in the publication calendar)")
	cmd.Flags().StringVar(&f.Status, "status", "", "post status: published or draft")
	cmd.Flags().StringVar(&f.Format, "format", "", "body format: html or lexical")
}

// InstallOutput adds --output and --dry-run.
func (f *Flags) InstallOutput(cmd *cobra.Command, outputUsage string) {
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", outputUsage)
	cmd.Flags().BoolVar(&f.DryRun, "dry-run", false, "do everything except publish")
}

// Load reads .env files and the configuration, applies flag overrides and builds the
// logger.
func (f *Flags) Load() (*config.Config, *logger.Logger, error) {
	if err := config.LoadDotEnv(DotEnvFiles...); err != nil {
		return nil, nil, err
	}

	cfg, err := config.LoadConfig(f.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	if f.Date != "" {
		cfg.Article.Date = f.Date
	}

	if f.Status != "" {
		cfg.Article.Status = f.Status
	}

	if f.Format != "" {
		cfg.Article.Format = f.Format
	}

	if f.Verbose > 0 {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log := logger.NewLoggerWithOptions(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	log.Debug("configuration loaded", "config", cfg.String())

	return cfg, log, nil
}

// Execute runs cmd with a context cancelled on SIGINT or SIGTERM and exits the process
// with its status: 0 on success, 2 on usage errors, 1 otherwise.
func Execute(cmd *cobra.Command) {
	cmd.SilenceErrors = true
	cmd.CompletionOptions.HiddenDefaultCmd = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := cmd.ExecuteContext(ctx)

	stop()
	os.Exit(ExitCode(cmd, err))
}

// ExitCode maps a command error to a process status.
func ExitCode(cmd *cobra.Command, err error) int {
	if err == nil {
		return 0
	}

	fmt.Fprintf(os.Stderr, "❌ %v\n", err)

	var missing *config.MissingVarsError
	if errors.As(err, &missing) {
		fmt.Fprintln(os.Stderr, "   Set them in the environment or in a .env file.")
		return 1
	}

	if !cmd.SilenceUsage {
		return 2
	}

	return 1
}

// PreRun silences usage once flags have parsed, so later failures are not usage errors.
func PreRun(cmd *cobra.Command, _ []string) {
	cmd.Root().SilenceUsage = true
}
