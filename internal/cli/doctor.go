package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/creyno/genomemeta/internal/doctor"
)

// DoctorCmd returns the doctor command for environment validation.
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verify that the required NCBI tools are installed",
		Long: `Checks that esearch, efetch (EDirect) and datasets are reachable on PATH.
A run refuses to start while any of them is missing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := doctor.Check()
			missing := 0
			for _, r := range results {
				if r.Err != nil {
					missing++
				}
			}

			if !quiet {
				for _, r := range results {
					if r.Err != nil {
						fmt.Printf("%-10s %s\n", r.Tool, color.New(color.FgRed).Sprint("MISSING"))
						continue
					}
					fmt.Printf("%-10s %s  %s\n", r.Tool, color.New(color.FgGreen).Sprint("OK"), r.Path)
				}
			}

			if missing > 0 {
				return fmt.Errorf("%d required tool(s) missing", missing)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&quiet, "quiet", false, "Exit code only (0=healthy, 1=missing tools)")
	return cmd
}
