package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
)

func TestHTTPChecker_Status200IsUp(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	out := chk.Check(context.Background(), s.URL)
	if out.Status != domain.StatusUp {
		t.Fatalf("want up, got %+v", out)
	}
	if out.LatencyMS < 0 {
		t.Fatalf("latency should be >= 0, got %f", out.LatencyMS)
	}
	if out.CheckedAt.IsZero() {
		t.Fatalf("CheckedAt should be set")
	}
}

func TestHTTPChecker_Non200IsDown(t *testing.T) {
	// only exact 200 counts as up, including other 2xx
	for _, code := range []int{201, 204, 301, 404, 500} {
		code := code
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		chk := NewHTTPChecker(2 * time.Second)
		chk.Client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
		out := chk.Check(context.Background(), s.URL)
		s.Close()

		if out.Status != domain.StatusDown {
			t.Fatalf("status %d: want down, got %+v", code, out)
		}
		if out.LatencyMS != 0 {
			t.Fatalf("status %d: down latency must be 0, got %f", code, out.LatencyMS)
		}
	}
}

func TestHTTPChecker_TimeoutIsDown(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewHTTPChecker(50 * time.Millisecond)
	out := chk.Check(context.Background(), s.URL)
	if out.Status != domain.StatusDown {
		t.Fatalf("want down on timeout, got %+v", out)
	}
	if out.LatencyMS != 0 {
		t.Fatalf("down latency must be 0, got %f", out.LatencyMS)
	}
}

func TestHTTPChecker_ConnectionRefusedIsDown(t *testing.T) {
	chk := NewHTTPChecker(time.Second)
	out := chk.Check(context.Background(), "http://127.0.0.1:1")
	if out.Status != domain.StatusDown {
		t.Fatalf("want down, got %+v", out)
	}
}

func TestHostOf(t *testing.T) {
	cases := map[string]string{
		"https://example.com":          "example.com",
		"https://example.com:8443/x/y": "example.com",
		"http://127.0.0.1:8080":        "127.0.0.1",
	}
	for in, want := range cases {
		if got := HostOf(in); got != want {
			t.Fatalf("HostOf(%q) = %q, want %q", in, got, want)
		}
	}
}
