package probe

import (
	"context"

	"github.com/sitewatch/sitewatch/internal/domain"
)

// Checker performs a single probe of one target URL.
//
// Implementations never return an error: every failure mode (transport
// error, timeout, DNS failure, unwanted status code) collapses into a
// down Outcome. Retry is implicit via the next scheduled check.
type Checker interface {
	Check(ctx context.Context, url string) domain.Outcome
}
