// Package main checks a running preview server after deploy: it waits for the health
// endpoint, then renders every fixture scenario through the API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bpollino/angelina-jail-activity-automation/internal/cli"
	"github.com/bpollino/angelina-jail-activity-automation/internal/server"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
)

var errSmokeFailed = errors.New("smoke check failed")

func logInfo(msg string) {
	fmt.Printf("%s[SMOKE]%s %s\n", colorGreen, colorReset, msg)
}

func logWarn(msg string) {
	fmt.Printf("%s[SMOKE]%s %s\n", colorYellow, colorReset, msg)
}

func logError(msg string) {
	fmt.Printf("%s[SMOKE]%s %s\n", colorRed, colorReset, msg)
}

func main() {
	cli.Execute(newCommand())
}

func newCommand() *cobra.Command {
	var (
		baseURL       string
		healthTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Check a running preview server",
		Long: `Wait until the preview server answers /healthz, then render every fixture
scenario in both formats through /api/generate-preview and require each
article to validate.`,
		Args:   cobra.NoArgs,
		PreRun: cli.PreRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), baseURL, healthTimeout)
		},
	}

	defaultURL := os.Getenv("PREVIEW_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:3000"
	}

	cmd.Flags().StringVar(&baseURL, "url", defaultURL, "preview server base URL (default PREVIEW_URL)")
	cmd.Flags().DurationVar(&healthTimeout, "health-timeout", 120*time.Second, "how long to wait for the server")

	return cmd
}

func run(ctx context.Context, baseURL string, healthTimeout time.Duration) error {
	client := &http.Client{Timeout: 5 * time.Second}

	logInfo(fmt.Sprintf("Waiting for preview server at %s...", baseURL))

	waitCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := server.WaitHealthy(waitCtx, client, baseURL, 2*time.Second); err != nil {
		logError(fmt.Sprintf("Preview server failed to start within %v", healthTimeout))
		return err
	}

	logInfo("Preview server is ready")

	failed := 0

	for _, r := range server.Smoke(ctx, client, baseURL) {
		label := fmt.Sprintf("%s/%s", r.Scenario, r.Format)

		switch {
		case r.Err != nil:
			logError(fmt.Sprintf("%s: %v", label, r.Err))
			failed++
		case !r.Valid:
			logWarn(fmt.Sprintf("%s: %s", label, r.Validation))
			failed++
		default:
			logInfo(fmt.Sprintf("%s: %d records, valid", label, r.Records))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d previews", errSmokeFailed, failed)
	}

	logInfo("===========================================")
	logInfo("Smoke check complete!")
	logInfo("===========================================")

	return nil
}
