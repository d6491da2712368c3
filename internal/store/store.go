// Package store persists alerts, portfolio holdings and counter values.
// Two backends implement the same contract: a SQLite database and an
// in-memory map, selected at startup and interchangeable everywhere else.
package store

import (
	"context"
	"errors"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
)

// ErrNotFound is returned when an alert or holding id does not exist.
var ErrNotFound = errors.New("store: record not found")

// AlertStore is the alert collection contract. MarkAlertTriggered must be
// durable before it returns, idempotent, and a no-op for unknown ids, so the
// monitor can always retry on the next tick without double-processing.
type AlertStore interface {
	CreateAlert(ctx context.Context, alert types.Alert) (types.Alert, error)
	ListActiveAlerts(ctx context.Context) ([]types.Alert, error)
	ListAlertsByChat(ctx context.Context, chatID types.ChatID) ([]types.Alert, error)
	MarkAlertTriggered(ctx context.Context, id string) error
	RemoveAlert(ctx context.Context, id string) (bool, error)
}

// PortfolioStore tracks per-chat coin holdings.
type PortfolioStore interface {
	ListHoldings(ctx context.Context, chatID types.ChatID) ([]types.PortfolioHolding, error)
	AddHolding(ctx context.Context, holding types.PortfolioHolding) (types.PortfolioHolding, error)
	RemoveHolding(ctx context.Context, chatID types.ChatID, symbol string) (bool, error)
}

// MetricStore persists scalar counter values across restarts.
type MetricStore interface {
	SaveMetric(ctx context.Context, name string, value float64) error
	GetMetric(ctx context.Context, name string) (float64, error)
}

// Store is the full persistence surface the host process wires up.
type Store interface {
	AlertStore
	PortfolioStore
	MetricStore
	Close() error
}
