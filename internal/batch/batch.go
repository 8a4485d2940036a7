// Package batch dispatches fixed-size slices of records to an external call
// and substitutes local fallbacks for any batch the call could not serve.
package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Outcome classifies how one batch was produced.
type Outcome string

// Batch outcomes.
const (
	OutcomeGenerated   Outcome = "generated"
	OutcomeSoftFailure Outcome = "soft_failure"
	OutcomeHardFailure Outcome = "hard_failure"
	// OutcomeSkipped marks batches never sent because an earlier call failed hard.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeDiscarded marks batches whose output was thrown away because
	// another batch of the same request failed hard.
	OutcomeDiscarded Outcome = "discarded"
)

// SoftFailure is implemented by errors that spoil only the batch they came from,
// such as malformed output. Any other error from a call is treated as hard:
// the service is unusable and the whole request falls back, including
// batches that already came back.
type SoftFailure interface {
	error
	Soft() bool
}

// IsSoft reports whether err is a soft failure.
func IsSoft(err error) bool {
	var soft SoftFailure
	return errors.As(err, &soft) && soft.Soft()
}

// Report describes one finished batch.
type Report struct {
	Index   int
	Total   int
	Size    int
	Outcome Outcome
	Err     error
	Elapsed time.Duration
}

// Options control batching.
type Options struct {
	Size int
	// Concurrency above 1 sends that many batches at once.
	Concurrency int
	// OnBatch is called once per batch, possibly from several goroutines.
	OnBatch func(Report)
}

// Call sends one batch and returns exactly one output per input, in order.
type Call[In, Out any] func(ctx context.Context, batch []In) ([]Out, error)

// Fallback builds local outputs for a batch. hard reports whether the whole
// service failed rather than just this batch.
type Fallback[In, Out any] func(batch []In, hard bool) []Out

// Summary counts batch outcomes.
type Summary struct {
	Batches   int
	Generated int
	Soft      int
	Hard      int
	Skipped   int
	Discarded int
}

// Run splits items into batches, calls each one, and assembles outputs in input order.
// It never fails: every batch either comes back from call or from fallback.
// After a hard failure every batch uses the hard fallback.
func Run[In, Out any](ctx context.Context, items []In, opts Options, call Call[In, Out], fallback Fallback[In, Out]) ([]Out, Summary) {
	size := opts.Size
	if size <= 0 {
		size = len(items)
	}
	var chunks [][]In
	for start := 0; start < len(items); start += size {
		chunks = append(chunks, items[start:min(start+size, len(items))])
	}

	results := make([][]Out, len(chunks))
	outcomes := make([]Outcome, len(chunks))
	var hard atomic.Bool
	var reportMu sync.Mutex

	process := func(i int) {
		chunk := chunks[i]
		report := Report{Index: i, Total: len(chunks), Size: len(chunk)}
		started := time.Now()

		switch {
		case hard.Load():
			report.Outcome = OutcomeSkipped
		case ctx.Err() != nil:
			hard.Store(true)
			report.Outcome = OutcomeHardFailure
			report.Err = ctx.Err()
		default:
			out, err := call(ctx, chunk)
			switch {
			case err == nil && len(out) == len(chunk):
				results[i] = out
				report.Outcome = OutcomeGenerated
			case err == nil:
				report.Outcome = OutcomeSoftFailure
				report.Err = errors.New("call returned the wrong number of records")
			case IsSoft(err) && ctx.Err() == nil:
				report.Outcome = OutcomeSoftFailure
				report.Err = err
			default:
				hard.Store(true)
				report.Outcome = OutcomeHardFailure
				report.Err = err
			}
		}

		if report.Outcome != OutcomeGenerated {
			results[i] = fallback(chunk, report.Outcome != OutcomeSoftFailure)
		}
		outcomes[i] = report.Outcome
		report.Elapsed = time.Since(started)

		if opts.OnBatch != nil {
			reportMu.Lock()
			opts.OnBatch(report)
			reportMu.Unlock()
		}
	}

	if opts.Concurrency > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Concurrency)
		for i := range chunks {
			g.Go(func() error {
				process(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range chunks {
			process(i)
		}
	}

	if hard.Load() {
		for i, outcome := range outcomes {
			if outcome == OutcomeGenerated || outcome == OutcomeSoftFailure {
				results[i] = fallback(chunks[i], true)
				outcomes[i] = OutcomeDiscarded
			}
		}
	}

	out := make([]Out, 0, len(items))
	summary := Summary{Batches: len(chunks)}
	for i, r := range results {
		out = append(out, r...)
		switch outcomes[i] {
		case OutcomeGenerated:
			summary.Generated++
		case OutcomeSoftFailure:
			summary.Soft++
		case OutcomeHardFailure:
			summary.Hard++
		case OutcomeSkipped:
			summary.Skipped++
		case OutcomeDiscarded:
			summary.Discarded++
		}
	}
	return out, summary
}
