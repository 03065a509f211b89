// Package entrez drives the bulk discovery stage against NCBI Assembly via
// the EDirect command-line tools and parses the DocumentSummary payloads it
// gets back.
package entrez

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/creyno/genomemeta/internal/execx"
)

// FatalError marks a discovery-stage failure that aborts the whole run.
// There is no meaningful partial result before the full accession set is
// known.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// efetch accepts at most a few hundred UIDs per call; the upstream script
// settled on 200.
const batchSize = 200

// Client queries NCBI Assembly through esearch/efetch.
type Client struct {
	runner execx.CommandRunner
	logger *zap.Logger
}

func NewClient(runner execx.CommandRunner, logger *zap.Logger) *Client {
	return &Client{runner: runner, logger: logger}
}

// Search returns every assembly UID indexed for the genus. Zero matches is a
// valid empty result, not an error.
func (c *Client) Search(ctx context.Context, genus string) ([]string, error) {
	query := fmt.Sprintf("%s[Organism]", strings.TrimSpace(genus))
	env, err := c.runner.Run(ctx, nil, "esearch", "-db", "assembly", "-query", query)
	if err != nil {
		return nil, &FatalError{Stage: "discover", Err: fmt.Errorf("esearch: %w", err)}
	}
	// efetch consumes the ENTREZ_DIRECT envelope esearch emits on stdout.
	out, err := c.runner.Run(ctx, env, "efetch", "-format", "uid")
	if err != nil {
		return nil, &FatalError{Stage: "discover", Err: fmt.Errorf("efetch uid: %w", err)}
	}

	var uids []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			uids = append(uids, line)
		}
	}
	c.logger.Info("assembly search complete", zap.String("genus", genus), zap.Int("uids", len(uids)))
	return uids, nil
}

// FetchDocSums downloads the docsum metadata for the given UIDs in batches
// and returns one raw DocumentSummary document per assembly. An empty result
// for a non-empty UID set is fatal: the downstream stages need the complete
// primary set to bound output completeness.
func (c *Client) FetchDocSums(ctx context.Context, uids []string) ([][]byte, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	var docs [][]byte
	for start := 0; start < len(uids); start += batchSize {
		end := start + batchSize
		if end > len(uids) {
			end = len(uids)
		}
		batch := strings.Join(uids[start:end], ",")
		out, err := c.runner.Run(ctx, nil, "efetch", "-db", "assembly", "-id", batch, "-format", "docsum")
		if err != nil {
			return nil, &FatalError{Stage: "discover", Err: fmt.Errorf("efetch docsum batch %d-%d: %w", start, end, err)}
		}
		docs = append(docs, splitDocSums(out)...)
		c.logger.Debug("docsum batch fetched", zap.Int("from", start), zap.Int("to", end))
	}

	if len(docs) == 0 {
		return nil, &FatalError{Stage: "discover", Err: fmt.Errorf("no DocumentSummary entries in efetch output for %d uids", len(uids))}
	}
	c.logger.Info("docsum download complete", zap.Int("documents", len(docs)))
	return docs, nil
}

// splitDocSums extracts each <DocumentSummary>...</DocumentSummary> block
// from a raw efetch response. efetch output interleaves envelope noise the
// XML decoder should never see, so blocks are carved out by line.
func splitDocSums(raw []byte) [][]byte {
	var docs [][]byte
	var current [][]byte
	inSummary := false

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		switch {
		case bytes.Contains(line, []byte("<DocumentSummary")):
			inSummary = true
			current = [][]byte{append([]byte(nil), line...)}
		case bytes.Contains(line, []byte("</DocumentSummary>")):
			if inSummary {
				current = append(current, append([]byte(nil), line...))
				docs = append(docs, bytes.Join(current, []byte("\n")))
				inSummary = false
			}
		case inSummary:
			current = append(current, append([]byte(nil), line...))
		}
	}
	return docs
}
