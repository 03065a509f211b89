package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/creyno/genomemeta/internal/app"
	"github.com/creyno/genomemeta/internal/config"
	"github.com/creyno/genomemeta/internal/datasets"
	"github.com/creyno/genomemeta/internal/doctor"
	"github.com/creyno/genomemeta/internal/entrez"
	"github.com/creyno/genomemeta/internal/execx"
	"github.com/creyno/genomemeta/internal/logging"
)

// FetchCmd returns the fetch command, the main entry point of the pipeline.
func FetchCmd() *cobra.Command {
	var (
		cfgPath        string
		workers        int
		maxRetries     int
		requestTimeout time.Duration
		rateLimitRPS   float64
		output         string
		xlsx           bool
		journalPath    string
		verbose        bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <genus>",
		Short: "Fetch and enrich assembly metadata for a genus",
		Long: `Fetch queries NCBI Assembly for every genome of the genus, enriches each
accession through the datasets tool under a bounded worker pool, and writes
one merged metadata table. Individual enrichment failures are logged and
never abort the run.

Examples:
  genomemeta fetch Pantoea
  genomemeta fetch Pantoea --workers 8 --output pantoea_metadata`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			genus := args[0]

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("workers") {
				workers = cfg.Workers
			}
			if !flags.Changed("max-retries") {
				maxRetries = cfg.MaxRetries
			}
			if !flags.Changed("request-timeout") {
				requestTimeout = cfg.RequestTimeout
			}
			if !flags.Changed("rate-limit-rps") {
				rateLimitRPS = cfg.RateLimitRPS
			}
			if !flags.Changed("output") {
				output = cfg.Output
			}
			if !flags.Changed("xlsx") {
				xlsx = cfg.XLSX
			}
			if !flags.Changed("journal") {
				journalPath = cfg.Journal
			}
			if workers < 1 {
				return fmt.Errorf("workers must be >= 1, got %d", workers)
			}

			logger, errLog, err := logging.New(verbose, "error_log.txt")
			if err != nil {
				return fmt.Errorf("set up logging: %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()
			logger.Debug("error log file", zap.String("path", errLog))

			if err := doctor.Verify(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := execx.Runner{}
			disc := entrez.NewClient(runner, logger)
			enricher := datasets.NewClient(runner)

			res, err := app.Run(ctx, app.Options{
				Genus:          genus,
				Workers:        workers,
				MaxRetries:     maxRetries,
				RequestTimeout: requestTimeout,
				RateLimitRPS:   rateLimitRPS,
				OutputBase:     output,
				WriteXLSX:      xlsx,
				JournalPath:    journalPath,
			}, disc, enricher, logger)
			if err != nil {
				return err
			}

			fmt.Printf("%s %d rows written to %s\n", color.New(color.FgGreen).Sprint("✓"), res.Rows, res.CSVPath)
			if res.XLSXPath != "" {
				fmt.Printf("%s spreadsheet written to %s\n", color.New(color.FgGreen).Sprint("✓"), res.XLSXPath)
			}
			if res.Failures > 0 {
				fmt.Printf("%s %d item(s) without full metadata, see %s\n", color.New(color.FgYellow).Sprint("!"), res.Failures, res.FailureLogPath)
			}
			return nil
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&cfgPath, "config", config.DefaultPath(), "Config file path")
	cmd.Flags().IntVarP(&workers, "workers", "w", defaults.Workers, "Number of concurrent enrichment workers")
	cmd.Flags().IntVar(&maxRetries, "max-retries", defaults.MaxRetries, "Extra attempts per accession for transient failures")
	cmd.Flags().DurationVar(&requestTimeout, "request-timeout", defaults.RequestTimeout, "Per-accession enrichment timeout")
	cmd.Flags().Float64Var(&rateLimitRPS, "rate-limit-rps", defaults.RateLimitRPS, "Global request rate limit (RPS), 0 disables")
	cmd.Flags().StringVarP(&output, "output", "o", defaults.Output, "Output base name (\".csv\"/\".xlsx\" appended)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", defaults.XLSX, "Also write a spreadsheet next to the CSV")
	cmd.Flags().StringVar(&journalPath, "journal", defaults.Journal, "Run journal sqlite path, empty disables")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}
