// Package store keeps a local transcript of configuration exchanges so an
// operator can audit what was sent to which device. The default
// implementation uses SQLite (pure Go, no CGO).
package store

import (
	"context"
	"time"
)

// ExchangeRecord is one completed (or failed) request/response exchange.
type ExchangeRecord struct {
	ID            string    `json:"id"` // random UUID
	Device        string    `json:"device"`
	Operation     string    `json:"operation"`
	Path          string    `json:"path"`
	ResponseCode  string    `json:"response_code"` // "2.05" form, or "" on transport failure
	Error         string    `json:"error,omitempty"`
	RequestBytes  int       `json:"request_bytes"`
	ResponseBytes int       `json:"response_bytes"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is the exchange transcript. All methods are safe for concurrent use.
type Store interface {
	RecordExchange(ctx context.Context, rec ExchangeRecord) error
	ListExchanges(ctx context.Context, device string, limit int) ([]ExchangeRecord, error)
	Prune(ctx context.Context, keepDays int) error
	Close() error
}
