// Package app orchestrates one full fetch run: discovery, parsing, parallel
// enrichment, merge and export.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/creyno/genomemeta/internal/entrez"
	"github.com/creyno/genomemeta/internal/fsutil"
	"github.com/creyno/genomemeta/internal/journal"
	"github.com/creyno/genomemeta/internal/pipeline"
)

// Discoverer is the bulk discovery interface: accession UIDs for a genus and
// one raw docsum document per assembly.
type Discoverer interface {
	Search(ctx context.Context, genus string) ([]string, error)
	FetchDocSums(ctx context.Context, uids []string) ([][]byte, error)
}

// Options configures one run.
type Options struct {
	Genus          string
	Workers        int
	MaxRetries     int
	RequestTimeout time.Duration
	RateLimitRPS   float64

	// OutputBase is the extension-less output path; ".csv"/".xlsx" are added.
	OutputBase string
	WriteXLSX  bool

	// JournalPath is the sqlite run journal; empty disables journaling.
	JournalPath string
}

// Result summarizes a completed run.
type Result struct {
	CSVPath        string
	XLSXPath       string
	FailureLogPath string
	Rows           int
	Enriched       int
	Failures       int
	Interrupted    bool
}

// Run executes the full pipeline. Fatal errors abort before any output file
// is written; per-item failures are logged and never interrupt sibling work.
// On cancellation the table is still completed, with every unprocessed
// accession recorded as interrupted, and a non-nil error is returned.
func Run(ctx context.Context, opts Options, disc Discoverer, enricher pipeline.Enricher, logger *zap.Logger) (*Result, error) {
	started := time.Now()
	runID := fmt.Sprintf("run-%d", started.UnixNano())

	logger.Info("processing genus", zap.String("genus", opts.Genus), zap.Int("workers", opts.Workers))

	uids, err := disc.Search(ctx, opts.Genus)
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		logger.Info("no assemblies indexed for genus", zap.String("genus", opts.Genus))
	}

	docs, err := disc.FetchDocSums(ctx, uids)
	if err != nil {
		return nil, err
	}

	var primaries []entrez.PrimaryRecord
	var parseFailures []pipeline.FailureEntry
	for _, doc := range docs {
		rec, err := entrez.ParseSummary(doc, started)
		if err != nil {
			acc := entrez.AccessionHint(doc)
			logger.Error("docsum parse failed", zap.String("accession", acc), zap.Error(err))
			parseFailures = append(parseFailures, pipeline.FailureEntry{
				Accession: acc,
				Stage:     "parse",
				Reason:    err.Error(),
			})
			continue
		}
		if rec != nil {
			primaries = append(primaries, *rec)
		}
	}
	logger.Info("genomes parsed", zap.Int("parsed", len(primaries)), zap.Int("parse_failures", len(parseFailures)))

	accessions := make([]string, 0, len(primaries))
	for _, p := range primaries {
		accessions = append(accessions, p.Accession)
	}

	outcomes, runErr := pipeline.EnrichAll(ctx, accessions, enricher, pipeline.EngineOptions{
		Workers:        opts.Workers,
		MaxRetries:     opts.MaxRetries,
		RequestTimeout: opts.RequestTimeout,
		RateLimitRPS:   opts.RateLimitRPS,
	})

	out := pipeline.Merge(primaries, outcomes, parseFailures, logger)

	res := &Result{
		Rows:        len(out.Rows),
		Failures:    len(out.Failures),
		Interrupted: runErr != nil,
	}
	for _, row := range out.Rows {
		if row.Enrichment != nil {
			res.Enriched++
		}
	}
	if len(out.Rows) > 0 {
		logger.Info("enrichment complete",
			zap.Int("enriched", res.Enriched),
			zap.Int("rows", res.Rows),
			zap.Float64("coverage_percent", 100*float64(res.Enriched)/float64(res.Rows)),
		)
	}

	if err := writeOutputs(opts, out, res, logger); err != nil {
		return nil, err
	}

	// The journal row must land even when the run context was cancelled.
	recordJournal(context.WithoutCancel(ctx), opts, runID, started, len(uids), len(primaries), res, logger)

	if runErr != nil {
		logger.Warn("run interrupted; unprocessed accessions recorded as failures")
		return res, fmt.Errorf("run interrupted: %w", runErr)
	}
	return res, nil
}

// writeOutputs writes the CSV table, the optional spreadsheet and the failure
// log. Target names never overwrite existing files. A CSV write failure is
// fatal; the spreadsheet degrades to a warning.
func writeOutputs(opts Options, out pipeline.RunOutput, res *Result, logger *zap.Logger) error {
	csvPath := fsutil.UniqueName(opts.OutputBase + ".csv")
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := pipeline.WriteCSV(f, out.Rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	res.CSVPath = csvPath
	logger.Info("csv exported", zap.String("path", csvPath), zap.Int("rows", res.Rows))

	if opts.WriteXLSX {
		xlsxPath := fsutil.UniqueName(opts.OutputBase + ".xlsx")
		if err := pipeline.WriteXLSX(xlsxPath, out.Rows); err != nil {
			logger.Warn("xlsx export failed; csv only", zap.Error(err))
		} else {
			res.XLSXPath = xlsxPath
			logger.Info("xlsx exported", zap.String("path", xlsxPath))
		}
	}

	if len(out.Failures) > 0 {
		logPath := fsutil.UniqueName(filepath.Join(filepath.Dir(opts.OutputBase), "missing_metadata.log"))
		lf, err := os.Create(logPath)
		if err != nil {
			return fmt.Errorf("create failure log: %w", err)
		}
		if err := pipeline.WriteFailureLog(lf, out.Failures); err != nil {
			_ = lf.Close()
			return fmt.Errorf("write failure log: %w", err)
		}
		if err := lf.Close(); err != nil {
			return fmt.Errorf("write failure log: %w", err)
		}
		res.FailureLogPath = logPath
		logger.Warn("per-item failures recorded", zap.Int("count", len(out.Failures)), zap.String("path", logPath))
	}
	return nil
}

func recordJournal(ctx context.Context, opts Options, runID string, started time.Time, discovered, parsed int, res *Result, logger *zap.Logger) {
	if opts.JournalPath == "" {
		return
	}
	j, err := journal.Open(opts.JournalPath)
	if err != nil {
		logger.Warn("run journal unavailable", zap.Error(err))
		return
	}
	defer func() {
		_ = j.Close()
	}()

	status := "completed"
	if res.Interrupted {
		status = "interrupted"
	}
	err = j.Record(ctx, journal.Run{
		ID:         runID,
		Genus:      opts.Genus,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Discovered: discovered,
		Parsed:     parsed,
		Enriched:   res.Enriched,
		Failed:     res.Failures,
		Status:     status,
		OutputPath: res.CSVPath,
	})
	if err != nil {
		logger.Warn("run journal write failed", zap.Error(err))
	}
}
