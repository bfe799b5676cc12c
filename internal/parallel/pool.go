// Package parallel runs independent parses across goroutines.
//
// Each parse in a batch owns its own parser state and shares nothing
// mutable with its siblings, so there is no queueing, scaling, or
// backpressure concern here: the only job is to bound concurrency and
// collect per-parse outcomes and timing.
package parallel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Job is one independent unit of work submitted to RunBatch. It receives no
// shared state beyond the context; any state a caller needs must be closed
// over per-job.
type Job func(ctx context.Context) error

// RunBatch runs jobs with at most maxConcurrency running at once and
// returns the first error (errgroup.WithContext semantics: the shared
// context is cancelled on first failure, so in-flight jobs and any job
// started afterwards observe ctx.Done(); every job is still invoked). A
// maxConcurrency of zero or less means unbounded.
func RunBatch(ctx context.Context, maxConcurrency int, jobs []Job) (*Stats, error) {
	stats := NewStats(len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}

	for i, job := range jobs {
		job := job
		idx := i
		g.Go(func() error {
			start := time.Now()
			err := job(gctx)
			stats.record(idx, time.Since(start), err)
			if err != nil {
				return fmt.Errorf("job %d: %w", idx, err)
			}
			return nil
		})
	}

	err := g.Wait()
	stats.Finalize()
	return stats, err
}

// Stats tracks per-batch execution counters. Field set and reporting shape
// follow the same accumulate-then-Finalize pattern as a worker pool's
// execution statistics, trimmed to the counters a batch of independent
// parses can actually produce (no worker-count or queue-depth history,
// since there is no shared queue).
type Stats struct {
	mu sync.Mutex

	StartTime time.Time
	EndTime   time.Time

	Total     int
	Completed int64
	Failed    int64

	durations []time.Duration
	lastErr   error
}

// NewStats creates a stats collector for a batch of the given size.
func NewStats(total int) *Stats {
	return &Stats{
		StartTime: time.Now(),
		Total:     total,
		durations: make([]time.Duration, 0, total),
	}
}

func (s *Stats) record(_ int, d time.Duration, err error) {
	atomic.AddInt64(&s.Completed, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = append(s.durations, d)
	if err != nil {
		atomic.AddInt64(&s.Failed, 1)
		s.lastErr = err
	}
}

// Finalize stamps EndTime. Call once after all jobs have returned.
func (s *Stats) Finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EndTime = time.Now()
}

// AverageDuration returns the mean job duration, or zero if none completed.
func (s *Stats) AverageDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.durations) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range s.durations {
		sum += d
	}
	return sum / time.Duration(len(s.durations))
}

// LastError returns the most recently recorded job error, if any.
func (s *Stats) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Stats) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf(
		"parallel.Stats{total=%d completed=%d failed=%d elapsed=%s avg=%s}",
		s.Total, s.Completed, s.Failed, s.EndTime.Sub(s.StartTime), s.AverageDuration(),
	)
}
