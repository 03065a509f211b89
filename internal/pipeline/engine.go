package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/creyno/genomemeta/internal/datasets"
)

// ErrInterrupted is recorded for any accession without an outcome when the
// run is cancelled mid-flight.
var ErrInterrupted = errors.New("interrupted")

// Enricher fetches the enrichment record for one accession. Implementations
// must be safe for concurrent use across workers.
type Enricher interface {
	Summary(ctx context.Context, accession string) (*datasets.Record, error)
}

// Outcome is the single recorded result for one accession: either a record
// or an error, never both.
type Outcome struct {
	Accession string
	Record    *datasets.Record
	Err       error
}

// Outcomes maps every input accession to exactly one outcome.
type Outcomes map[string]Outcome

type EngineOptions struct {
	// Workers bounds the number of in-flight enrichment calls.
	Workers int
	// MaxRetries is the extra attempts allowed for transient failures.
	// Default 0: one attempt per accession.
	MaxRetries int
	// RequestTimeout bounds each individual call.
	RequestTimeout time.Duration

	// RateLimitRPS is a global limit across all workers. Set to <=0 to disable.
	RateLimitRPS float64

	// BackoffInitial is the initial sleep before retrying a transient failure.
	BackoffInitial time.Duration
	// BackoffMax caps exponential backoff.
	BackoffMax time.Duration
	// BackoffJitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	BackoffJitterFrac float64
}

func (o EngineOptions) withDefaults() EngineOptions {
	if o.Workers <= 0 {
		o.Workers = 10
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = 200 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 2 * time.Second
	}
	if o.BackoffJitterFrac <= 0 {
		o.BackoffJitterFrac = 0.2
	}
	return o
}

// EnrichAll drives the enricher over all accessions under the worker budget.
//
// Totality is the contract: the returned map holds exactly one outcome per
// input accession no matter how calls fail or when the context is cancelled.
// A failed call never aborts the run and never touches sibling outcomes. The
// returned error is non-nil only when the run context was cancelled; the
// outcome map is complete even then, with unprocessed accessions recorded as
// ErrInterrupted.
func EnrichAll(ctx context.Context, accessions []string, enricher Enricher, opts EngineOptions) (Outcomes, error) {
	opts = opts.withDefaults()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	jobs := make(chan string)
	done := make(chan Outcome, opts.Workers)

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for acc := range jobs {
				if runCtx.Err() != nil {
					return
				}
				out := enrichOne(runCtx, acc, enricher, limiter, opts)
				select {
				case done <- out:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, acc := range accessions {
			select {
			case jobs <- acc:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	// The collector is the only writer of the outcome map; workers hand over
	// completions and never share state. First write per key wins.
	outcomes := make(Outcomes, len(accessions))
	for out := range done {
		if _, dup := outcomes[out.Accession]; dup {
			continue
		}
		outcomes[out.Accession] = out
	}

	// Fill in anything abandoned by cancellation so every accession has
	// exactly one recorded outcome.
	for _, acc := range accessions {
		if _, ok := outcomes[acc]; !ok {
			outcomes[acc] = Outcome{Accession: acc, Err: ErrInterrupted}
		}
	}
	return outcomes, ctx.Err()
}

func enrichOne(ctx context.Context, acc string, enricher Enricher, limiter *rate.Limiter, opts EngineOptions) Outcome {
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return Outcome{Accession: acc, Err: ErrInterrupted}
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return Outcome{Accession: acc, Err: ErrInterrupted}
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, opts.RequestTimeout)
		rec, err := enricher.Summary(reqCtx, acc)
		cancel()
		if err == nil {
			return Outcome{Accession: acc, Record: rec}
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return Outcome{Accession: acc, Err: ErrInterrupted}
		}
		if attempt >= opts.MaxRetries || !isTransient(err) {
			return Outcome{Accession: acc, Err: err}
		}

		sleep := backoffSleep(opts.BackoffInitial, opts.BackoffMax, opts.BackoffJitterFrac, attempt)
		t := time.NewTimer(sleep)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return Outcome{Accession: acc, Err: ErrInterrupted}
		}
	}
}

// isTransient reports whether a retry could plausibly succeed: per-call
// timeouts and tool invocation failures qualify, NotFound and malformed
// responses do not.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ti *datasets.ToolInvocationError
	return errors.As(err, &ti)
}

func backoffSleep(initial, max time.Duration, jitterFrac float64, attempt int) time.Duration {
	sleep := initial
	for i := 0; i < attempt && sleep < max; i++ {
		sleep *= 2
		if sleep > max {
			sleep = max
			break
		}
	}
	if jitterFrac <= 0 {
		return sleep
	}
	j := 1 + (rand.Float64()*2-1)*jitterFrac
	return time.Duration(float64(sleep) * j)
}
