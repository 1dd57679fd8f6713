package cli

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
)

var exampleSettings = filepath.Join("..", "..", "configs", "settings.example.yaml")

func isolate(t *testing.T) {
	t.Helper()

	saved := DotEnvFiles
	DotEnvFiles = nil

	t.Cleanup(func() { DotEnvFiles = saved })

	for _, k := range []string{config.EnvArticleDate, config.EnvLogLevel, config.EnvArticleTimezone, config.EnvLocalPort} {
		t.Setenv(k, "")
	}
}

func TestLoad_FlagOverrides(t *testing.T) {
	isolate(t)

	f := Flags{
		ConfigPath: exampleSettings,
		Date:       "2025-09-19",
		Status:     config.StatusDraft,
		Format:     config.FormatLexical,
		Verbose:    1,
	}

	cfg, log, err := f.Load()
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.Equal(t, "2025-09-19", cfg.Article.Date)
	assert.Equal(t, config.StatusDraft, cfg.Article.Status)
	assert.Equal(t, config.FormatLexical, cfg.Article.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "America/Chicago", cfg.Article.Timezone)
}

func TestLoad_EnvDateLosesToFlag(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvArticleDate, "2025-01-01")

	cfg, _, err := (&Flags{Date: "2025-09-19"}).Load()
	require.NoError(t, err)
	assert.Equal(t, "2025-09-19", cfg.Article.Date)

	cfg, _, err = (&Flags{}).Load()
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", cfg.Article.Date)
}

func TestLoad_InvalidOverride(t *testing.T) {
	isolate(t)

	_, _, err := (&Flags{Format: "markdown"}).Load()
	require.ErrorIs(t, err, config.ErrInvalidFormat)

	_, _, err = (&Flags{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")}).Load()
	require.Error(t, err)
}

func newTestCommand(runErr error) *cobra.Command {
	var f Flags

	cmd := &cobra.Command{
		Use:    "test",
		Args:   cobra.NoArgs,
		PreRun: PreRun,
		RunE:   func(*cobra.Command, []string) error { return runErr },
	}

	f.InstallCommon(cmd)
	f.InstallArticle(cmd)
	f.InstallOutput(cmd, "output directory")

	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	return cmd
}

func TestExitCode(t *testing.T) {
	errRun := errors.New("run failed")

	tests := []struct {
		name   string
		args   []string
		runErr error
		want   int
	}{
		{name: "success", args: []string{"--dry-run", "-vv"}, want: 0},
		{name: "unknown flag is a usage error", args: []string{"--bogus"}, want: 2},
		{name: "extra argument is a usage error", args: []string{"extra"}, want: 2},
		{name: "run failure", args: []string{"--date", "2025-09-19"}, runErr: errRun, want: 1},
		{name: "missing credentials", runErr: &config.MissingVarsError{Vars: []string{config.EnvGhostAdminKey}}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newTestCommand(tt.runErr)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			assert.Equal(t, tt.want, ExitCode(cmd, err))
		})
	}
}
