// Package cli wires the cobra command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/creyno/genomemeta/internal/version"
)

// NewRootCmd builds the genomemeta command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "genomemeta",
		Short:   "Fetch and enrich NCBI genome assembly metadata for a genus",
		Version: version.String(),
		Long: `genomemeta downloads every assembly record NCBI knows for a bacterial
genus, enriches each accession in parallel through the NCBI datasets tool,
and merges both into one reproducible metadata table (CSV and XLSX).`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(FetchCmd())
	rootCmd.AddCommand(DoctorCmd())
	rootCmd.AddCommand(RunsCmd())

	return rootCmd
}
