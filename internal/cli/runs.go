package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creyno/genomemeta/internal/config"
	"github.com/creyno/genomemeta/internal/journal"
)

// RunsCmd lists the run journal.
func RunsCmd() *cobra.Command {
	var journalPath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.Open(journalPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = j.Close()
			}()

			runs, err := j.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			fmt.Printf("%-22s %-16s %-12s %9s %9s %9s %7s\n", "STARTED", "GENUS", "STATUS", "PARSED", "ENRICHED", "FAILED", "OUTPUT")
			for _, r := range runs {
				fmt.Printf("%-22s %-16s %-12s %9d %9d %9d %7s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"),
					r.Genus,
					r.Status,
					r.Parsed,
					r.Enriched,
					r.Failed,
					r.OutputPath,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", config.Default().Journal, "Run journal sqlite path")
	return cmd
}
