package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

type TargetID string

// DeriveID maps a URL to its stable target ID. The URL is the natural
// key; the ID is a short handle derived from it, safe for routes and logs.
func DeriveID(url string) TargetID {
	sum := sha256.Sum256([]byte(url))
	return TargetID(hex.EncodeToString(sum[:6]))
}

type Target struct {
	ID        TargetID      `json:"id"`
	Name      string        `json:"name"`
	URL       string        `json:"url"`
	Interval  time.Duration `json:"interval"`
	Paused    bool          `json:"paused"`
	CreatedAt time.Time     `json:"created_at"`
}

type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Outcome is the result of one probe. Immutable once produced.
// LatencyMS is only meaningful when Status is up; it is 0 for down.
type Outcome struct {
	Status    Status    `json:"status"`
	LatencyMS float64   `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}

func (o Outcome) Up() bool { return o.Status == StatusUp }

var (
	ErrDuplicateURL = errors.New("target URL already registered")
	ErrNotFound     = errors.New("target not found")
)
