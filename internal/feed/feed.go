package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/domain"
	"github.com/sitewatch/sitewatch/internal/ledger"
	"github.com/sitewatch/sitewatch/internal/registry"
)

// DefaultInterval is how often the feed publishes a snapshot to subscribers.
const DefaultInterval = 5 * time.Second

// subscriber channels are buffered; a full buffer means the subscriber
// is behind and the tick is dropped for it.
const subscriberBuffer = 8

// TargetStatus pairs a target with its ledger statistics. Stats is nil
// for a target that has never been checked.
type TargetStatus struct {
	Target domain.Target         `json:"target"`
	Stats  *ledger.EntrySnapshot `json:"stats,omitempty"`
}

// Snapshot is a consistent point-in-time view of all targets, in
// registration order.
type Snapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Targets     []TargetStatus `json:"targets"`
}

// Feed assembles snapshots from the registry and ledger and broadcasts
// them to any number of subscribers on a fixed tick.
//
// Delivery is best-effort per subscriber: sends never block, so a slow
// subscriber only loses its own ticks and cannot stall snapshot
// production, other subscribers, or the scheduler.
type Feed struct {
	logger   *zap.Logger
	registry *registry.Registry
	ledger   *ledger.Ledger
	interval time.Duration

	mu   sync.RWMutex
	subs map[string]chan Snapshot
}

func New(logger *zap.Logger, reg *registry.Registry, led *ledger.Ledger, interval time.Duration) *Feed {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Feed{
		logger:   logger,
		registry: reg,
		ledger:   led,
		interval: interval,
		subs:     make(map[string]chan Snapshot),
	}
}

// Snapshot assembles the current view on demand.
func (f *Feed) Snapshot() Snapshot {
	targets := f.registry.List()
	stats := f.ledger.SnapshotAll()

	out := Snapshot{
		GeneratedAt: time.Now().UTC(),
		Targets:     make([]TargetStatus, 0, len(targets)),
	}
	for _, t := range targets {
		ts := TargetStatus{Target: t}
		if s, ok := stats[t.ID]; ok {
			s := s
			ts.Stats = &s
		}
		out.Targets = append(out.Targets, ts)
	}
	return out
}

// Subscribe registers a new observer and returns its ID together with
// the channel it will receive snapshots on. The first snapshot is
// delivered immediately so a fresh subscriber does not wait a full tick.
func (f *Feed) Subscribe() (string, <-chan Snapshot) {
	id := uuid.NewString()
	ch := make(chan Snapshot, subscriberBuffer)
	// buffer the first snapshot before the channel is visible to publish
	// or Unsubscribe, which may close it
	ch <- f.Snapshot()

	f.mu.Lock()
	f.subs[id] = ch
	f.mu.Unlock()

	return id, ch
}

// Unsubscribe removes the observer and closes its channel. Safe to call
// twice or with an unknown ID.
func (f *Feed) Unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
	}
}

// Run publishes a snapshot to all subscribers every tick until ctx is
// cancelled, then closes every subscriber channel.
func (f *Feed) Run(ctx context.Context) {
	t := time.NewTicker(f.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			f.closeAll()
			f.logger.Info("feed_stopped")
			return
		case <-t.C:
			f.publish(f.Snapshot())
		}
	}
}

func (f *Feed) publish(s Snapshot) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- s:
		default:
			// subscriber is behind; drop this tick for it
		}
	}
}

func (f *Feed) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
