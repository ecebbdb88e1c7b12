package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/domain"
	"github.com/sitewatch/sitewatch/internal/feed"
	"github.com/sitewatch/sitewatch/internal/ledger"
	"github.com/sitewatch/sitewatch/internal/probe"
	"github.com/sitewatch/sitewatch/internal/registry"
	"github.com/sitewatch/sitewatch/internal/scheduler"
)

// TargetDetail joins a target with its ledger statistics. Stats is nil
// until the target has been checked at least once.
type TargetDetail struct {
	Target domain.Target         `json:"target"`
	Stats  *ledger.EntrySnapshot `json:"stats,omitempty"`
}

// Options tunes the monitor; zero values fall back to sane defaults.
type Options struct {
	ProbeTimeout time.Duration
	IdleDelay    time.Duration
	FeedInterval time.Duration
	Concurrency  int
}

// Monitor is the narrow interface the API layer talks to. It wires the
// registry, ledger, scheduler and feed together and owns their lifecycle.
type Monitor struct {
	logger   *zap.Logger
	registry *registry.Registry
	ledger   *ledger.Ledger
	sched    *scheduler.Scheduler
	feed     *feed.Feed

	wg sync.WaitGroup
}

func New(logger *zap.Logger, checker probe.Checker, opts Options) *Monitor {
	reg := registry.New()
	led := ledger.New()
	return &Monitor{
		logger:   logger,
		registry: reg,
		ledger:   led,
		sched:    scheduler.New(logger, reg, led, checker, opts.ProbeTimeout, opts.IdleDelay, opts.Concurrency),
		feed:     feed.New(logger, reg, led, opts.FeedInterval),
	}
}

// Run starts the scheduling loop and the update feed and blocks until
// ctx is cancelled and both have stopped.
func (m *Monitor) Run(ctx context.Context) {
	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.sched.Run(ctx)
	}()
	go func() {
		defer m.wg.Done()
		m.feed.Run(ctx)
	}()
	m.wg.Wait()
}

// AddTarget registers a URL for monitoring. Fails with ErrDuplicateURL
// when the URL is already registered.
func (m *Monitor) AddTarget(name, rawURL string, interval time.Duration) (domain.Target, error) {
	rawURL = strings.TrimSpace(rawURL)
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return domain.Target{}, fmt.Errorf("invalid target URL %q: %w", rawURL, err)
	}
	if interval <= 0 {
		return domain.Target{}, fmt.Errorf("interval must be positive, got %v", interval)
	}
	if name == "" {
		name = rawURL
	}

	id, err := m.registry.Add(name, rawURL, interval)
	if err != nil {
		return domain.Target{}, err
	}

	t, _ := m.registry.Get(id)
	m.logger.Info("target_added",
		zap.String("target_id", string(id)),
		zap.String("url", rawURL),
		zap.Duration("interval", interval),
	)
	return t, nil
}

// PauseTarget excludes the target from scheduling and returns the new
// paused state. Its history survives.
func (m *Monitor) PauseTarget(rawURL string) (bool, error) {
	return m.setPaused(rawURL, true)
}

// ResumeTarget puts the target back into scheduling.
func (m *Monitor) ResumeTarget(rawURL string) (bool, error) {
	return m.setPaused(rawURL, false)
}

func (m *Monitor) setPaused(rawURL string, paused bool) (bool, error) {
	t, ok := m.registry.GetByURL(rawURL)
	if !ok {
		return false, domain.ErrNotFound
	}
	if err := m.registry.SetPaused(t.ID, paused); err != nil {
		return false, err
	}
	m.logger.Info("target_paused_changed",
		zap.String("target_id", string(t.ID)),
		zap.Bool("paused", paused),
	)
	return paused, nil
}

// DeleteTarget removes the target, its ledger entry and its schedule
// state.
func (m *Monitor) DeleteTarget(rawURL string) error {
	t, ok := m.registry.GetByURL(rawURL)
	if !ok {
		return domain.ErrNotFound
	}
	m.registry.Remove(t.ID)
	m.ledger.Remove(t.ID)
	m.logger.Info("target_deleted", zap.String("target_id", string(t.ID)), zap.String("url", t.URL))
	return nil
}

// CheckNow probes the target immediately, independent of its schedule,
// and records the outcome.
func (m *Monitor) CheckNow(ctx context.Context, rawURL string) (domain.Outcome, error) {
	t, ok := m.registry.GetByURL(rawURL)
	if !ok {
		return domain.Outcome{}, domain.ErrNotFound
	}
	return m.sched.CheckNow(ctx, t), nil
}

// GetSnapshot returns the current full view for polling consumers.
func (m *Monitor) GetSnapshot() feed.Snapshot {
	return m.feed.Snapshot()
}

// Subscribe registers a push consumer; see feed.Feed.
func (m *Monitor) Subscribe() (string, <-chan feed.Snapshot) {
	return m.feed.Subscribe()
}

func (m *Monitor) Unsubscribe(id string) {
	m.feed.Unsubscribe(id)
}

// GetTargetDetail returns the target plus its ledger snapshot.
func (m *Monitor) GetTargetDetail(rawURL string) (TargetDetail, error) {
	t, ok := m.registry.GetByURL(rawURL)
	if !ok {
		return TargetDetail{}, domain.ErrNotFound
	}
	d := TargetDetail{Target: t}
	if s, ok := m.ledger.Get(t.ID); ok {
		d.Stats = &s
	}
	return d, nil
}

// Targets lists all registered targets in registration order.
func (m *Monitor) Targets() []domain.Target {
	return m.registry.List()
}
