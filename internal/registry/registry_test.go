package registry

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
)

func TestRegistry_AddAndList_InsertionOrder(t *testing.T) {
	r := New()

	urls := []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"}
	for i, u := range urls {
		if _, err := r.Add(fmt.Sprintf("site-%d", i), u, 30*time.Second); err != nil {
			t.Fatalf("Add(%s): %v", u, err)
		}
	}

	got := r.List()
	if len(got) != len(urls) {
		t.Fatalf("expected %d targets, got %d", len(urls), len(got))
	}
	for i, tgt := range got {
		if tgt.URL != urls[i] {
			t.Fatalf("order broken at %d: want %s, got %s", i, urls[i], tgt.URL)
		}
		if tgt.Paused {
			t.Fatalf("new target %s should start non-paused", tgt.URL)
		}
	}
}

func TestRegistry_Add_DuplicateURL(t *testing.T) {
	r := New()

	id, err := r.Add("first", "https://example.com", 30*time.Second)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Add("second", "https://example.com", 60*time.Second); !errors.Is(err, domain.ErrDuplicateURL) {
		t.Fatalf("want ErrDuplicateURL, got %v", err)
	}

	// the existing target must be untouched
	got, ok := r.Get(id)
	if !ok {
		t.Fatalf("original target missing after duplicate add")
	}
	if got.Name != "first" || got.Interval != 30*time.Second {
		t.Fatalf("original target mutated: %+v", got)
	}
}

func TestRegistry_Remove_Idempotent(t *testing.T) {
	r := New()
	id, err := r.Add("site", "https://example.com", time.Second)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	r.Remove(id)
	r.Remove(id) // second remove is a no-op

	if _, ok := r.Get(id); ok {
		t.Fatalf("target still present after Remove")
	}
	if len(r.List()) != 0 {
		t.Fatalf("List should be empty after Remove")
	}
}

func TestRegistry_SetPaused(t *testing.T) {
	r := New()
	id, err := r.Add("site", "https://example.com", time.Second)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := r.SetPaused(id, true); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}
	got, _ := r.Get(id)
	if !got.Paused {
		t.Fatalf("target should be paused")
	}

	if err := r.SetPaused("nope", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRegistry_WakeOnAddAndResume(t *testing.T) {
	r := New()

	id, err := r.Add("site", "https://example.com", time.Second)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	select {
	case <-r.Wake():
	default:
		t.Fatalf("Add should signal the wake channel")
	}

	if err := r.SetPaused(id, true); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}
	select {
	case <-r.Wake():
		t.Fatalf("pausing must not wake the scheduler")
	default:
	}

	if err := r.SetPaused(id, false); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}
	select {
	case <-r.Wake():
	default:
		t.Fatalf("resume should signal the wake channel")
	}
}

func TestRegistry_GetByURL(t *testing.T) {
	r := New()
	if _, err := r.Add("site", "https://example.com", time.Second); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, ok := r.GetByURL("https://example.com"); !ok {
		t.Fatalf("GetByURL should find registered target")
	}
	if _, ok := r.GetByURL("https://other.example.com"); ok {
		t.Fatalf("GetByURL found a target that was never added")
	}
}
