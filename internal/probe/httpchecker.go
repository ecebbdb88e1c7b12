package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
)

const DefaultTimeout = 10 * time.Second

type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

// Check issues one GET against url. The target is up iff the response
// status is exactly 200; anything else (including other 2xx) is down
// with latency 0.
func (h *HTTPChecker) Check(ctx context.Context, url string) domain.Outcome {
	down := domain.Outcome{Status: domain.StatusDown, CheckedAt: time.Now().UTC()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return down
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	if err != nil {
		down.CheckedAt = time.Now().UTC()
		return down
	}
	defer resp.Body.Close()

	latency := time.Since(start).Seconds() * 1000 // ms
	if resp.StatusCode != http.StatusOK {
		down.CheckedAt = time.Now().UTC()
		return down
	}

	return domain.Outcome{
		Status:    domain.StatusUp,
		LatencyMS: latency,
		CheckedAt: time.Now().UTC(),
	}
}
