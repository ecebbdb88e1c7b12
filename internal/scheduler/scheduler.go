package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/domain"
	"github.com/sitewatch/sitewatch/internal/ledger"
	"github.com/sitewatch/sitewatch/internal/probe"
	"github.com/sitewatch/sitewatch/internal/registry"
)

// DefaultIdleDelay is the sleep used when no targets are registered.
const DefaultIdleDelay = 10 * time.Second

// Scheduler drives the polling loop: each cycle it selects the due,
// non-paused targets, probes them all concurrently, and records every
// outcome as soon as its probe completes.
//
// Due times live in the scheduler's own lastRun map, not in the ledger.
// A manual CheckNow records an outcome but never touches lastRun, so it
// cannot shift a target's scheduled due time.
type Scheduler struct {
	logger      *zap.Logger
	registry    *registry.Registry
	ledger      *ledger.Ledger
	checker     probe.Checker
	timeout     time.Duration
	idleDelay   time.Duration
	concurrency int

	mu      sync.Mutex
	lastRun map[domain.TargetID]time.Time
}

func New(
	logger *zap.Logger,
	reg *registry.Registry,
	led *ledger.Ledger,
	checker probe.Checker,
	timeout time.Duration,
	idleDelay time.Duration,
	concurrency int,
) *Scheduler {
	if timeout <= 0 {
		timeout = probe.DefaultTimeout
	}
	if idleDelay <= 0 {
		idleDelay = DefaultIdleDelay
	}
	if concurrency < 1 {
		concurrency = 16
	}
	return &Scheduler{
		logger:      logger,
		registry:    reg,
		ledger:      led,
		checker:     checker,
		timeout:     timeout,
		idleDelay:   idleDelay,
		concurrency: concurrency,
		lastRun:     make(map[domain.TargetID]time.Time),
	}
}

// Run executes scheduling cycles until ctx is cancelled. Cancellation
// aborts in-flight probes; each aborted probe still yields one complete
// down outcome, so the ledger never sees a half-applied record.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler_stopped")
			return
		case <-timer.C:
		case <-s.registry.Wake():
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		s.runCycle(ctx)
		timer.Reset(s.nextDelay())
	}
}

// runCycle probes every due target concurrently and waits for the batch.
// Each outcome is recorded immediately on probe completion; only the next
// sleep computation waits for the whole batch.
func (s *Scheduler) runCycle(ctx context.Context) {
	targets := s.registry.List()
	due := s.selectDue(targets, time.Now())
	if len(due) == 0 {
		return
	}

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for _, tgt := range due {
		if ctx.Err() != nil {
			break
		}
		t := tgt
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			s.probeAndRecord(ctx, t)
		}()
	}

	wg.Wait()
}

// selectDue picks non-paused targets that were never checked or whose
// interval has elapsed, stamps their lastRun, and prunes state for
// targets that no longer exist.
func (s *Scheduler) selectDue(targets []domain.Target, now time.Time) []domain.Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := make(map[domain.TargetID]struct{}, len(targets))
	due := make([]domain.Target, 0, len(targets))
	for _, t := range targets {
		live[t.ID] = struct{}{}
		if t.Paused {
			continue
		}
		last, checked := s.lastRun[t.ID]
		if !checked || now.Sub(last) >= t.Interval {
			due = append(due, t)
			s.lastRun[t.ID] = now
		}
	}

	for id := range s.lastRun {
		if _, ok := live[id]; !ok {
			delete(s.lastRun, id)
		}
	}
	return due
}

func (s *Scheduler) probeAndRecord(ctx context.Context, t domain.Target) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out := s.checker.Check(cctx, t.URL)
	s.ledger.Record(t.ID, out)

	s.logger.Debug("scheduler_checked",
		zap.String("target_id", string(t.ID)),
		zap.String("url", t.URL),
		zap.String("status", string(out.Status)),
		zap.Float64("latency_ms", out.LatencyMS),
	)
}

// nextDelay is the minimum interval among non-paused targets, falling
// back to the idle delay when none exist.
func (s *Scheduler) nextDelay() time.Duration {
	var min time.Duration
	for _, t := range s.registry.List() {
		if t.Paused || t.Interval <= 0 {
			continue
		}
		if min == 0 || t.Interval < min {
			min = t.Interval
		}
	}
	if min == 0 {
		return s.idleDelay
	}
	return min
}

// CheckNow probes the target immediately, bypassing the due-time gate,
// and records the outcome. The scheduled due time is unaffected: the next
// interval-driven check still fires relative to the last scheduled run.
func (s *Scheduler) CheckNow(ctx context.Context, t domain.Target) domain.Outcome {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out := s.checker.Check(cctx, t.URL)
	s.ledger.Record(t.ID, out)

	s.logger.Info("manual_check",
		zap.String("target_id", string(t.ID)),
		zap.String("url", t.URL),
		zap.String("status", string(out.Status)),
	)
	return out
}
