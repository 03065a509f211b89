// Package datasets is the per-accession enrichment client backed by the NCBI
// `datasets` command-line tool. One accession per call keeps failure
// attribution precise; batching is deliberately not used.
package datasets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/creyno/genomemeta/internal/execx"
)

// NotFoundError reports an accession the datasets service has no report for.
// Absence of enrichment is an expected state, not a run failure.
type NotFoundError struct {
	Accession string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no datasets report for %s", e.Accession)
}

// ToolInvocationError reports a datasets CLI call that failed to run or
// exited non-zero.
type ToolInvocationError struct {
	Accession string
	Err       error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("datasets invocation for %s: %v", e.Accession, e.Err)
}

func (e *ToolInvocationError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a datasets response that was not valid JSON.
type MalformedResponseError struct {
	Accession string
	Err       error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed datasets response for %s: %v", e.Accession, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// FailureReason maps a typed enrichment error to its stable log label.
func FailureReason(err error) string {
	var nf *NotFoundError
	var ti *ToolInvocationError
	var mr *MalformedResponseError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	case errors.As(err, &nf):
		return "NotFound"
	case errors.As(err, &mr):
		return "MalformedResponse"
	case errors.As(err, &ti):
		return "ToolInvocationError"
	default:
		return err.Error()
	}
}

// Client fetches genome summaries from the datasets CLI. The configuration is
// read-only, so a single Client is safe for concurrent use across workers.
type Client struct {
	runner execx.CommandRunner
}

func NewClient(runner execx.CommandRunner) *Client {
	return &Client{runner: runner}
}

// Summary runs `datasets summary genome accession <acc>` and maps the first
// report into a Record. Failures are typed: NotFound, Timeout (via context
// deadline), ToolInvocationError, MalformedResponse.
func (c *Client) Summary(ctx context.Context, accession string) (*Record, error) {
	out, err := c.runner.Run(ctx, nil, "datasets", "summary", "genome", "accession", accession)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ToolInvocationError{Accession: accession, Err: err}
	}

	var resp response
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, &MalformedResponseError{Accession: accession, Err: err}
	}
	if len(resp.Reports) == 0 {
		return nil, &NotFoundError{Accession: accession}
	}
	return mapReport(accession, resp.Reports[0]), nil
}
