// Package monitor drives the recurring alert evaluation pass: read active
// alerts, batch one price fetch for their symbols, compare, notify, and
// commit the triggered transition.
package monitor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
)

// DefaultInterval is how often alerts are re-evaluated unless configured
// otherwise.
const DefaultInterval = 2 * time.Minute

// AlertStore is the slice of the store the monitor needs.
type AlertStore interface {
	ListActiveAlerts(ctx context.Context) ([]types.Alert, error)
	MarkAlertTriggered(ctx context.Context, id string) error
}

// PriceSource returns snapshots keyed by uppercase symbol. Symbols it cannot
// resolve are absent from the map, not errors; only a total transport
// failure fails the call.
type PriceSource interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]types.PriceSnapshot, error)
}

// Notifier delivers a triggered-alert message to its owner.
type Notifier interface {
	SendAlert(ctx context.Context, chatID types.ChatID, symbol string, currentPrice, targetPrice float64, condition types.Condition) error
}

// Metrics are the monitor's counters. They are created unregistered;
// the host registers them once on its registry.
type Metrics struct {
	ChecksRun       prometheus.Counter
	AlertsTriggered prometheus.Counter
}

// NewMetrics creates the monitor counter set.
func NewMetrics() *Metrics {
	return &Metrics{
		ChecksRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoanalyst",
			Subsystem: "alert_monitor",
			Name:      "checks_run",
			Help:      "The total number of alert evaluation passes",
		}),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoanalyst",
			Subsystem: "alert_monitor",
			Name:      "alerts_triggered",
			Help:      "The total number of alerts that crossed their target and were committed",
		}),
	}
}

// Collectors returns the counters for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.ChecksRun, m.AlertsTriggered}
}

// Monitor owns the schedule and nothing else: all alert state lives in the
// store, so the monitor is stateless between ticks.
type Monitor struct {
	interval time.Duration
	store    AlertStore
	prices   PriceSource
	notifier Notifier
	metrics  *Metrics

	mu      sync.Mutex
	done    chan struct{}
	started bool

	inFlight atomic.Bool
	wg       sync.WaitGroup
}

// New creates a monitor. interval <= 0 selects DefaultInterval.
func New(interval time.Duration, store AlertStore, prices PriceSource, notifier Notifier, metrics *Metrics) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Monitor{
		interval: interval,
		store:    store,
		prices:   prices,
		notifier: notifier,
		metrics:  metrics,
	}
}

// Start begins the recurring evaluation schedule. Calling Start on a
// running monitor is a no-op.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	if m.store == nil || m.prices == nil || m.notifier == nil {
		return errors.New("monitor: store, price source and notifier are required")
	}

	m.done = make(chan struct{})
	m.started = true

	ticker := time.NewTicker(m.interval)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.runTick()
			case <-m.done:
				return
			}
		}
	}()

	log.Infof("alert monitoring started (checking every %s)", m.interval)
	return nil
}

// Stop cancels the schedule and waits for an in-flight pass to finish.
// Safe to call on a monitor that was never started, and again after stop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	close(m.done)
	m.started = false
	m.mu.Unlock()

	m.wg.Wait()
	log.Info("alert monitoring stopped")
}

// runTick starts one evaluation pass unless the previous one is still
// running. Overlapping ticks are skipped, never queued: a slow pass costs
// delayed evaluations, not duplicated ones.
func (m *Monitor) runTick() {
	if !m.inFlight.CompareAndSwap(false, true) {
		log.Warn("previous alert check still running, skipping this tick")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.inFlight.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), m.interval)
		defer cancel()
		m.evaluate(ctx)
	}()
}

// evaluate runs one pass over all active alerts.
//
// Delivery is at-most-once: the notification is attempted first and the
// alert is marked triggered whether or not the send succeeded, so a flaky
// destination can lose a message but a crossing is never announced twice.
// Failures in one alert's notify or commit never block the others; nothing
// escapes a pass.
func (m *Monitor) evaluate(ctx context.Context) {
	m.metrics.ChecksRun.Inc()

	alerts, err := m.store.ListActiveAlerts(ctx)
	if err != nil {
		log.Errorf("failed to fetch active alerts: %v", err)
		return
	}
	if len(alerts) == 0 {
		// No active alerts, so no price feed call either.
		return
	}

	log.Debugf("checking %d active alerts", len(alerts))

	prices, err := m.prices.GetPrices(ctx, activeSymbols(alerts))
	if err != nil {
		log.Errorf("price feed unavailable, deferring all alerts to next tick: %v", err)
		return
	}

	triggered := 0
	for _, alert := range alerts {
		snapshot, ok := prices[strings.ToUpper(alert.Symbol)]
		if !ok {
			// Unresolved this tick; the alert stays active and is
			// retried on the next pass.
			continue
		}
		if !alert.Condition.Satisfied(snapshot.Price, alert.TargetPrice) {
			continue
		}

		if err := m.notifier.SendAlert(ctx, alert.ChatID, alert.Symbol, snapshot.Price, alert.TargetPrice, alert.Condition); err != nil {
			log.Errorf("failed to send alert notification for %s to chat %d: %v", alert.Symbol, alert.ChatID, err)
		}

		if err := m.store.MarkAlertTriggered(ctx, alert.ID); err != nil {
			// The write did not commit, so the alert is still active and
			// will fire again next tick with a duplicate notification.
			log.Errorf("failed to mark alert %s triggered: %v", alert.ID, err)
			continue
		}

		triggered++
		m.metrics.AlertsTriggered.Inc()
		log.Infof("alert triggered for chat %d: %s %s %.8g", alert.ChatID, alert.Symbol, alert.Condition, alert.TargetPrice)
	}

	if triggered > 0 {
		log.Infof("alert check completed, %d of %d alerts triggered", triggered, len(alerts))
	}
}

// activeSymbols returns the distinct uppercase symbols referenced by alerts,
// so N alerts on one symbol cost one fetch.
func activeSymbols(alerts []types.Alert) []string {
	seen := make(map[string]struct{}, len(alerts))
	symbols := make([]string, 0, len(alerts))
	for _, a := range alerts {
		s := strings.ToUpper(a.Symbol)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		symbols = append(symbols, s)
	}
	return symbols
}
