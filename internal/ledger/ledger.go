package ledger

import (
	"math"
	"sync"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
)

// HistoryCap bounds the per-target trailing window of outcomes.
const HistoryCap = 100

// EntrySnapshot is an immutable copy of one target's rolling statistics.
//
// Counters are cumulative over the target's lifetime; History is a bounded
// trailing window, so TotalChecks can exceed len(History) once the window
// saturates. AvgResponseMS is the mean latency of the up outcomes currently
// in the window, not a cumulative mean.
type EntrySnapshot struct {
	History       []domain.Outcome `json:"history"`
	TotalChecks   int              `json:"total_checks"`
	UpCount       int              `json:"up_count"`
	DownCount     int              `json:"down_count"`
	UptimePercent float64          `json:"uptime_percent"`
	AvgResponseMS float64          `json:"avg_response_time_ms"`
	LastStatus    domain.Status    `json:"last_status"`
	LastChecked   time.Time        `json:"last_checked"`
}

type entry struct {
	mu            sync.Mutex
	history       []domain.Outcome
	totalChecks   int
	upCount       int
	downCount     int
	uptimePercent float64
	avgResponseMS float64
	lastStatus    domain.Status
	lastChecked   time.Time
}

// Ledger owns all per-target statistics. Outcomes enter through Record
// only; callers never see live entry state, just snapshots.
//
// Locking is two-level: a RWMutex guards the entry map, a per-entry mutex
// serializes updates for one target. Records for different targets never
// contend with each other, and no lock is ever held across network I/O.
type Ledger struct {
	mu      sync.RWMutex
	entries map[domain.TargetID]*entry
}

func New() *Ledger {
	return &Ledger{entries: make(map[domain.TargetID]*entry)}
}

func (l *Ledger) entryFor(id domain.TargetID) *entry {
	l.mu.RLock()
	e := l.entries[id]
	l.mu.RUnlock()
	if e != nil {
		return e
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e = l.entries[id]; e == nil {
		e = &entry{history: make([]domain.Outcome, 0, HistoryCap)}
		l.entries[id] = e
	}
	return e
}

// Record appends one outcome for the target, evicting the oldest history
// entry once the window is full, and recomputes the derived statistics.
// The entry is created lazily on the first outcome.
func (l *Ledger) Record(id domain.TargetID, out domain.Outcome) {
	e := l.entryFor(id)

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == HistoryCap {
		e.history = append(e.history[:0], e.history[1:]...)
	}
	e.history = append(e.history, out)

	e.totalChecks++
	if out.Up() {
		e.upCount++
	} else {
		e.downCount++
	}
	e.lastStatus = out.Status
	e.lastChecked = out.CheckedAt

	e.uptimePercent = round2(100 * float64(e.upCount) / float64(e.totalChecks))
	e.avgResponseMS = windowAverage(e.history)
}

// Get returns a deep copy of the target's current statistics.
func (l *Ledger) Get(id domain.TargetID) (EntrySnapshot, bool) {
	l.mu.RLock()
	e := l.entries[id]
	l.mu.RUnlock()
	if e == nil {
		return EntrySnapshot{}, false
	}

	e.mu.Lock()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	return snap, true
}

// Remove drops the target's entry. No-op if absent.
func (l *Ledger) Remove(id domain.TargetID) {
	l.mu.Lock()
	delete(l.entries, id)
	l.mu.Unlock()
}

// SnapshotAll returns consistent copies of every entry. Per-entry locks
// are taken one at a time, so a snapshot never stalls concurrent Records
// for unrelated targets.
func (l *Ledger) SnapshotAll() map[domain.TargetID]EntrySnapshot {
	l.mu.RLock()
	refs := make(map[domain.TargetID]*entry, len(l.entries))
	for id, e := range l.entries {
		refs[id] = e
	}
	l.mu.RUnlock()

	out := make(map[domain.TargetID]EntrySnapshot, len(refs))
	for id, e := range refs {
		e.mu.Lock()
		out[id] = e.snapshotLocked()
		e.mu.Unlock()
	}
	return out
}

func (e *entry) snapshotLocked() EntrySnapshot {
	hist := make([]domain.Outcome, len(e.history))
	copy(hist, e.history)
	return EntrySnapshot{
		History:       hist,
		TotalChecks:   e.totalChecks,
		UpCount:       e.upCount,
		DownCount:     e.downCount,
		UptimePercent: e.uptimePercent,
		AvgResponseMS: e.avgResponseMS,
		LastStatus:    e.lastStatus,
		LastChecked:   e.lastChecked,
	}
}

// windowAverage is the mean latency over up outcomes in the window;
// 0 when the window holds no up outcome.
func windowAverage(history []domain.Outcome) float64 {
	var sum float64
	var n int
	for _, o := range history {
		if o.Up() {
			sum += o.LatencyMS
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
