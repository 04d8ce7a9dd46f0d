package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadpulse/leadpulse/internal/observability"
	"github.com/leadpulse/leadpulse/pkg/refdata"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter a message catalog down to exported campaign leads",
	Long: `Write the subset of a personalized message catalog whose emails appear
in at least one exported campaign lead CSV.

Example:
  leadpulse filter --catalog personalized_messages.csv --leads 'exports/campaign_*.csv' --output filtered.csv`,
	RunE: runFilter,
}

var (
	filterCatalogPath string
	filterLeadsGlob   string
	filterOutputPath  string
)

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().StringVar(&filterCatalogPath, "catalog", "", "Path to the message catalog CSV (required)")
	filterCmd.Flags().StringVar(&filterLeadsGlob, "leads", "", "Glob selecting exported campaign lead CSVs (required)")
	filterCmd.Flags().StringVarP(&filterOutputPath, "output", "o", "filtered_messages.csv", "Output CSV path")

	_ = filterCmd.MarkFlagRequired("catalog")
	_ = filterCmd.MarkFlagRequired("leads")
}

func runFilter(cmd *cobra.Command, args []string) error {
	summary, err := refdata.FilterCatalog(filterCatalogPath, filterLeadsGlob, filterOutputPath)
	if err != nil {
		observability.CLILogger.Error("Catalog filter failed",
			zap.String("catalog", filterCatalogPath),
			zap.String("leads", filterLeadsGlob),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Catalog filter failed", err)
	}

	fmt.Printf("Catalog rows:   %d\n", summary.CatalogRows)
	fmt.Printf("Lead files:     %d\n", summary.LeadFiles)
	fmt.Printf("Unique emails:  %d\n", summary.UniqueEmails)
	fmt.Printf("Matched rows:   %d\n", summary.Matched)
	fmt.Printf("Output:         %s\n", filterOutputPath)
	return nil
}
