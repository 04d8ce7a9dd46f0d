package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadpulse/leadpulse/internal/config"
	"github.com/leadpulse/leadpulse/internal/observability"
	"github.com/leadpulse/leadpulse/pkg/exporter"
	"github.com/leadpulse/leadpulse/pkg/instantly"
	"github.com/leadpulse/leadpulse/pkg/upload"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export raw campaign leads to CSV files",
	Long: `Export every lead of the campaigns listed in a YAML manifest to one
CSV file per campaign, optionally uploading each file to S3.

The export carries the upstream lead fields verbatim; it does not enrich.

Example:
  leadpulse export --job export.yaml
  leadpulse export --job export.yaml --output-dir ./exports
  leadpulse export --job export.yaml --dry-run`,
	RunE: runExport,
}

var (
	exportJobPath   string
	exportOutputDir string
	exportS3        string
	exportS3Region  string
	exportS3Profile string
	exportEndpoint  string
	exportDryRun    bool
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportJobPath, "job", "j", "", "Path to export manifest (required)")
	exportCmd.Flags().StringVarP(&exportOutputDir, "output-dir", "o", "", "Override local output directory")
	exportCmd.Flags().StringVar(&exportS3, "s3", "", "Override s3://bucket/prefix upload destination")
	exportCmd.Flags().StringVar(&exportS3Region, "s3-region", "", "S3 region override")
	exportCmd.Flags().StringVar(&exportS3Profile, "s3-profile", "", "AWS shared-config profile")
	exportCmd.Flags().StringVar(&exportEndpoint, "s3-endpoint", "", "S3-compatible endpoint override")
	exportCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "Validate manifest and show plan without executing")

	_ = exportCmd.MarkFlagRequired("job")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	m, err := exporter.LoadManifest(exportJobPath)
	if err != nil {
		observability.CLILogger.Error("Failed to load manifest",
			zap.String("path", exportJobPath),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid manifest", err)
	}

	if exportOutputDir != "" {
		m.Output.Dir = exportOutputDir
	}
	if exportS3 != "" {
		m.Output.S3 = exportS3
	}

	if exportDryRun {
		return showExportPlan(m)
	}

	cfg := config.GetConfig()
	client, err := instantly.New(instantly.Config{
		BaseURL: cfg.Instantly.BaseURL,
		APIKey:  cfg.Instantly.APIKey,
		Filter:  cfg.Instantly.Filter,
		Timeout: cfg.Instantly.Timeout,
	})
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid API configuration", err)
	}

	var uploader exporter.Uploader
	if m.Output.S3 != "" {
		bucket, prefix, err := upload.ParseDestination(m.Output.S3)
		if err != nil {
			return exitError(foundry.ExitInvalidArgument, "Invalid S3 destination", err)
		}
		uploader, err = upload.New(ctx, upload.Config{
			Bucket:   bucket,
			Prefix:   prefix,
			Region:   exportS3Region,
			Profile:  exportS3Profile,
			Endpoint: exportEndpoint,
		})
		if err != nil {
			observability.CLILogger.Error("Failed to create uploader", zap.Error(err))
			return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to S3", err)
		}
	}

	exp := exporter.New(client, uploader, observability.CLILogger)

	observability.CLILogger.Info("Starting export",
		zap.Int("campaigns", len(m.Campaigns)),
		zap.String("output_dir", m.Output.Dir))

	results, err := exp.Run(ctx, m)
	if err != nil {
		observability.CLILogger.Error("Export failed", zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Export failed", err)
	}

	failed := 0
	for _, res := range results {
		switch res.Status {
		case exporter.StatusError:
			failed++
			fmt.Printf("✗ %s  %s\n", res.CampaignID, res.Message)
		case exporter.StatusWarning:
			fmt.Printf("! %s  %s\n", res.CampaignID, res.Message)
		default:
			dest := res.Path
			if res.UploadURI != "" {
				dest = res.UploadURI
			}
			fmt.Printf("✓ %s  %d leads  %s  (%.1fs)\n",
				res.CampaignID, res.Leads, dest, res.Duration.Seconds())
		}
	}

	if failed > 0 {
		return exitError(foundry.ExitExternalServiceUnavailable, "Export completed with errors",
			fmt.Errorf("%d of %d campaigns failed", failed, len(results)))
	}
	return nil
}

// showExportPlan displays what would be exported without executing.
func showExportPlan(m *exporter.Manifest) error {
	fmt.Println("=== Export Plan (dry-run) ===")
	fmt.Println()
	fmt.Println("Campaigns:")
	for _, id := range m.Campaigns {
		fmt.Printf("  - %s\n", id)
	}
	fmt.Println()
	fmt.Printf("Output Dir:  %s\n", m.Output.Dir)
	if m.Output.S3 != "" {
		fmt.Printf("S3 Upload:   %s\n", m.Output.S3)
	}
	fmt.Printf("Page Delay:  %s\n", m.PageDelay)
	fmt.Println()
	fmt.Println("Manifest validated successfully. Remove --dry-run to execute.")
	return nil
}
