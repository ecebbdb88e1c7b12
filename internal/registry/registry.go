package registry

import (
	"sync"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
)

// Registry holds the set of monitored targets. It is the only owner of
// Target state; the scheduler and API layer read through it.
//
// List order is insertion order and stays stable across snapshots.
type Registry struct {
	mu      sync.RWMutex
	targets map[domain.TargetID]*domain.Target
	order   []domain.TargetID
	wake    chan struct{}
}

func New() *Registry {
	return &Registry{
		targets: make(map[domain.TargetID]*domain.Target),
		wake:    make(chan struct{}, 1),
	}
}

// Wake signals once whenever a target is added or resumed, so the
// scheduler can re-plan before its current sleep elapses.
func (r *Registry) Wake() <-chan struct{} { return r.wake }

func (r *Registry) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Add registers a new, non-paused target. The URL is the natural key:
// adding a URL that is already registered fails with ErrDuplicateURL and
// leaves existing state untouched.
func (r *Registry) Add(name, url string, interval time.Duration) (domain.TargetID, error) {
	id := domain.DeriveID(url)

	r.mu.Lock()
	for _, t := range r.targets {
		if t.URL == url {
			r.mu.Unlock()
			return "", domain.ErrDuplicateURL
		}
	}
	r.targets[id] = &domain.Target{
		ID:        id,
		Name:      name,
		URL:       url,
		Interval:  interval,
		CreatedAt: time.Now().UTC(),
	}
	r.order = append(r.order, id)
	r.mu.Unlock()

	r.notify()
	return id, nil
}

// Remove drops the target. Idempotent.
func (r *Registry) Remove(id domain.TargetID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.targets[id]; !ok {
		return
	}
	delete(r.targets, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// SetPaused toggles the paused flag. Resuming wakes the scheduler.
func (r *Registry) SetPaused(id domain.TargetID, paused bool) error {
	r.mu.Lock()
	t, ok := r.targets[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrNotFound
	}
	t.Paused = paused
	r.mu.Unlock()

	if !paused {
		r.notify()
	}
	return nil
}

// List returns copies of all targets in insertion order.
func (r *Registry) List() []domain.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Target, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.targets[id])
	}
	return out
}

func (r *Registry) Get(id domain.TargetID) (domain.Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[id]
	if !ok {
		return domain.Target{}, false
	}
	return *t, true
}

func (r *Registry) GetByURL(url string) (domain.Target, bool) {
	return r.Get(domain.DeriveID(url))
}
