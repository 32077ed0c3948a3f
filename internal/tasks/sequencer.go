package tasks

import (
	"context"
	"fmt"
	"net/url"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Request describes one call against the external API, independent of any other request in its batch.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

func (r Request) String() string {
	if len(r.Query) == 0 {
		return fmt.Sprintf("%s %s", r.Method, r.Path)
	}
	return fmt.Sprintf("%s %s?%s", r.Method, r.Path, r.Query.Encode())
}

// Executor performs a single request and decodes the response into out.
type Executor interface {
	Execute(ctx context.Context, req Request, out any) error
}

// ExecutorFunc adapts a function to [Executor].
type ExecutorFunc func(ctx context.Context, req Request, out any) error

func (f ExecutorFunc) Execute(ctx context.Context, req Request, out any) error {
	return f(ctx, req, out)
}

// BatchError reports the request that aborted a batch. Index is zero-based.
type BatchError struct {
	Index   int
	Total   int
	Request Request
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch request %d of %d (%s) failed: %v", e.Index, e.Total, e.Request, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// SequencerOpts configures a [Sequencer].
type SequencerOpts struct {
	RateLimit float64 // Requests per second; 0 disables pacing
	Logger    *log.Logger
}

// Sequencer executes batches strictly one request at a time, in order.
//
// Request n+1 starts only after request n has fully resolved. The first failure aborts the batch and no partial
// results are returned. Nothing is retried; callers decide whether to re-issue the whole batch.
type Sequencer struct {
	limiter  *rate.Limiter
	logger   *log.Logger
	progress chan<- ProgressUpdate
	phase    Phase
}

// NewSequencer creates a [Sequencer].
func NewSequencer(opts SequencerOpts) *Sequencer {
	s := &Sequencer{logger: opts.Logger, phase: Batch}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return s
}

// WithProgress returns a copy of s that reports each completed request on ch under phase.
//
// The copy shares the rate limiter, so pacing holds across both.
func (s *Sequencer) WithProgress(ch chan<- ProgressUpdate, phase Phase) *Sequencer {
	cp := *s
	cp.progress = ch
	cp.phase = phase
	return &cp
}

// Collect runs reqs through exec via s and returns one decoded T per request, in input order.
//
// On failure the returned error is a [*BatchError] naming the failed index; later requests are never issued.
// A nil s behaves like an unpaced sequencer.
func Collect[T any](ctx context.Context, s *Sequencer, exec Executor, reqs []Request) ([]T, error) {
	if s == nil {
		s = &Sequencer{}
	}

	results := make([]T, 0, len(reqs))
	total := len(reqs)

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, &BatchError{Index: i, Total: total, Request: req, Err: err}
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, &BatchError{Index: i, Total: total, Request: req, Err: err}
			}
		}

		if s.logger != nil {
			s.logger.Debug("batch request", "index", i, "total", total, "request", req.String())
		}

		var out T
		if err := exec.Execute(ctx, req, &out); err != nil {
			if s.logger != nil {
				s.logger.Warn("batch aborted", "index", i, "total", total, "error", err)
			}
			return nil, &BatchError{Index: i, Total: total, Request: req, Err: err}
		}

		results = append(results, out)
		SendProgress(s.progress, batchRequestUpdate(s.phase, i+1, total, req))
	}

	return results, nil
}
