// Package cmd wires the leadpulse CLI.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadpulse/leadpulse/internal/config"
	"github.com/leadpulse/leadpulse/internal/observability"
	"github.com/leadpulse/leadpulse/internal/server/handlers"
)

var rootCmd = &cobra.Command{
	Use:   "leadpulse",
	Short: "Campaign lead enrichment service",
	Long: `leadpulse enriches campaign leads from the instantly.ai API against a
local contact directory and personalized message catalog.

The serve command runs the HTTP API used by the browser extension; export
and filter are offline utilities over the same data.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
}

var flagLogLevel string

// versionInfo carries build metadata injected by the linker via main.
var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{Version: "dev", Commit: "HEAD", BuildDate: "unknown"}

// SetVersionInfo records build metadata for the version command and the
// /version endpoint.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
	handlers.SetVersionInfo(version, commit, buildDate)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log level (debug|info|warn|error)")
}

func initApp(cmd *cobra.Command, args []string) error {
	var overrides map[string]any
	if flagLogLevel != "" {
		overrides = map[string]any{
			"logging": map[string]any{"level": flagLogLevel},
		}
	}

	var err error
	if overrides != nil {
		_, err = config.Load(cmd.Context(), overrides)
	} else {
		_, err = config.Load(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg := config.GetConfig()
	if err := observability.InitCLILogger(cfg.Logging.Level, cfg.Logging.Profile); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	defer observability.Sync()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCode(err)
	}
	return 0
}
