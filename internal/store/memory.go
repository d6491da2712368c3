package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
)

// Memory is a map-backed Store. It supports concurrent readers and
// record-level writes, which keeps the monitor and the command layer from
// ever needing a shared lock around a whole tick.
type Memory struct {
	mu       sync.RWMutex
	alerts   map[string]types.Alert
	holdings map[string]types.PortfolioHolding
	metrics  map[string]float64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		alerts:   make(map[string]types.Alert),
		holdings: make(map[string]types.PortfolioHolding),
		metrics:  make(map[string]float64),
	}
}

func (m *Memory) CreateAlert(_ context.Context, alert types.Alert) (types.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert.ID = uuid.NewString()
	alert.Symbol = strings.ToUpper(alert.Symbol)
	alert.Triggered = false
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	m.alerts[alert.ID] = alert
	return alert, nil
}

func (m *Memory) ListActiveAlerts(_ context.Context) ([]types.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var alerts []types.Alert
	for _, a := range m.alerts {
		if !a.Triggered {
			alerts = append(alerts, a)
		}
	}
	return alerts, nil
}

func (m *Memory) ListAlertsByChat(_ context.Context, chatID types.ChatID) ([]types.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var alerts []types.Alert
	for _, a := range m.alerts {
		if a.ChatID == chatID {
			alerts = append(alerts, a)
		}
	}
	return alerts, nil
}

// MarkAlertTriggered flips the alert to triggered. Already-triggered and
// unknown ids are a no-op, never an error.
func (m *Memory) MarkAlertTriggered(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok || a.Triggered {
		return nil
	}
	a.Triggered = true
	m.alerts[id] = a
	return nil
}

func (m *Memory) RemoveAlert(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.alerts[id]; !ok {
		return false, nil
	}
	delete(m.alerts, id)
	return true, nil
}

func (m *Memory) ListHoldings(_ context.Context, chatID types.ChatID) ([]types.PortfolioHolding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var holdings []types.PortfolioHolding
	for _, h := range m.holdings {
		if h.ChatID == chatID {
			holdings = append(holdings, h)
		}
	}
	return holdings, nil
}

func (m *Memory) AddHolding(_ context.Context, holding types.PortfolioHolding) (types.PortfolioHolding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	holding.ID = uuid.NewString()
	holding.Symbol = strings.ToUpper(holding.Symbol)
	m.holdings[holding.ID] = holding
	return holding, nil
}

func (m *Memory) RemoveHolding(_ context.Context, chatID types.ChatID, symbol string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	removed := false
	for id, h := range m.holdings {
		if h.ChatID == chatID && h.Symbol == symbol {
			delete(m.holdings, id)
			removed = true
		}
	}
	return removed, nil
}

func (m *Memory) SaveMetric(_ context.Context, name string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics[name] = value
	return nil
}

func (m *Memory) GetMetric(_ context.Context, name string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.metrics[name], nil
}

func (m *Memory) Close() error { return nil }
