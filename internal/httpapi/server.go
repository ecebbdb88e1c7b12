package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/core"
	"github.com/sitewatch/sitewatch/internal/domain"
	"github.com/sitewatch/sitewatch/internal/httpapi/middleware"
	"github.com/sitewatch/sitewatch/internal/probe"
)

// Server is the boundary layer: it serializes the monitor's snapshots
// and operations over HTTP and owns no scheduling or statistics logic.
type Server struct {
	Logger  *zap.Logger
	Monitor *core.Monitor
}

func NewServer(l *zap.Logger, m *core.Monitor) *Server {
	return &Server{Logger: l, Monitor: m}
}

// Router builds the chi router. rps/burst feed the per-client rate
// limiter; non-positive values fall back to the limiter's defaults.
func (s *Server) Router(rps float64, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RateLimit(rps, burst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/events", s.handleEvents)
	r.Post("/api/targets", s.handleAddTarget)
	r.Delete("/api/targets", s.handleDeleteTarget)
	r.Post("/api/targets/pause", s.handleSetPaused(true))
	r.Post("/api/targets/resume", s.handleSetPaused(false))
	r.Post("/api/targets/check", s.handleCheckNow)
	r.Get("/api/targets/detail", s.handleTargetDetail)

	return r
}

type targetPayload struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	IntervalSeconds int    `json:"interval_seconds"`
}

type urlPayload struct {
	URL string `json:"url"`
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	var p targetPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.URL == "" {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if p.IntervalSeconds <= 0 {
		p.IntervalSeconds = 30
	}

	tgt, err := s.Monitor.AddTarget(p.Name, p.URL, time.Duration(p.IntervalSeconds)*time.Second)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Run a single check synchronously for immediate feedback
	out, err := s.Monitor.CheckNow(r.Context(), tgt.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// If the first check fails, log a DNS diagnostic for the host
	if !out.Up() {
		dns := probe.CheckDNS(probe.HostOf(tgt.URL))
		s.Logger.Info("dns_check",
			zap.String("domain", dns.Domain),
			zap.String("class", dns.Class),
			zap.Bool("has_a_or_aaaa", dns.HasAOrAAAA),
			zap.Strings("nameservers", dns.Nameservers),
			zap.String("cname", dns.CNAME),
			zap.String("resolver_error", dns.ResolverError),
		)
	}

	s.Logger.Info("added_target",
		zap.String("url", tgt.URL),
		zap.String("status", string(out.Status)),
		zap.Float64("latency_ms", out.LatencyMS),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"target": tgt, "outcome": out,
	})
}

func (s *Server) handleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "url query parameter required", http.StatusBadRequest)
		return
	}
	if err := s.Monitor.DeleteTarget(url); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPaused(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p urlPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.URL == "" {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}

		var (
			state bool
			err   error
		)
		if paused {
			state, err = s.Monitor.PauseTarget(p.URL)
		} else {
			state, err = s.Monitor.ResumeTarget(p.URL)
		}
		if err != nil {
			s.writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"url": p.URL, "paused": state})
	}
}

func (s *Server) handleCheckNow(w http.ResponseWriter, r *http.Request) {
	var p urlPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.URL == "" {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	out, err := s.Monitor.CheckNow(r.Context(), p.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Monitor.GetSnapshot())
}

func (s *Server) handleTargetDetail(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "url query parameter required", http.StatusBadRequest)
		return
	}

	d, err := s.Monitor.GetTargetDetail(url)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d)
}

// handleEvents streams snapshots as server-sent events until the client
// disconnects. A slow client only loses ticks; it never slows the feed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	subID, ch := s.Monitor.Subscribe()
	defer s.Monitor.Unsubscribe(subID)

	connID := uuid.NewString()
	s.Logger.Info("sse_connected", zap.String("conn_id", connID))
	defer s.Logger.Info("sse_disconnected", zap.String("conn_id", connID))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				s.Logger.Warn("sse_marshal_error", zap.String("conn_id", connID), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateURL):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
