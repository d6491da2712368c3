package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
)

type fakeStore struct {
	mu      sync.Mutex
	alerts  map[string]types.Alert
	listErr error
	markErr map[string]error
}

func newFakeStore(alerts ...types.Alert) *fakeStore {
	s := &fakeStore{alerts: make(map[string]types.Alert), markErr: make(map[string]error)}
	for _, a := range alerts {
		s.alerts[a.ID] = a
	}
	return s
}

func (s *fakeStore) ListActiveAlerts(context.Context) ([]types.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var active []types.Alert
	for _, a := range s.alerts {
		if !a.Triggered {
			active = append(active, a)
		}
	}
	return active, nil
}

func (s *fakeStore) MarkAlertTriggered(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErr[id]; err != nil {
		return err
	}
	if a, ok := s.alerts[id]; ok && !a.Triggered {
		a.Triggered = true
		s.alerts[id] = a
	}
	return nil
}

func (s *fakeStore) triggered(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts[id].Triggered
}

type fakeFeed struct {
	mu     sync.Mutex
	prices map[string]types.PriceSnapshot
	err    error
	calls  [][]string
	block  chan struct{}
}

func (f *fakeFeed) GetPrices(_ context.Context, symbols []string) (map[string]types.PriceSnapshot, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), symbols...))
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]types.PriceSnapshot, len(symbols))
	for _, s := range symbols {
		if snap, ok := f.prices[strings.ToUpper(s)]; ok {
			out[strings.ToUpper(s)] = snap
		}
	}
	return out, nil
}

func (f *fakeFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type notification struct {
	chatID    types.ChatID
	symbol    string
	current   float64
	target    float64
	condition types.Condition
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (n *fakeNotifier) SendAlert(_ context.Context, chatID types.ChatID, symbol string, current, target float64, condition types.Condition) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{chatID, symbol, current, target, condition})
	return n.err
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func snapshot(symbol string, price float64) types.PriceSnapshot {
	return types.PriceSnapshot{Symbol: symbol, Price: price}
}

func newTestMonitor(store *fakeStore, feed *fakeFeed, notifier *fakeNotifier) *Monitor {
	return New(time.Minute, store, feed, notifier, NewMetrics())
}

func TestEvaluateTriggersAtExactBoundary(t *testing.T) {
	store := newFakeStore(types.Alert{
		ID: "a1", ChatID: 99, Symbol: "BTC", TargetPrice: 50000, Condition: types.ConditionAbove,
	})
	feed := &fakeFeed{prices: map[string]types.PriceSnapshot{"BTC": snapshot("BTC", 50000.00)}}
	notifier := &fakeNotifier{}

	m := newTestMonitor(store, feed, notifier)
	m.evaluate(context.Background())

	require.Len(t, notifier.sent, 1, "exactly one notification attempted")
	got := notifier.sent[0]
	assert.Equal(t, types.ChatID(99), got.chatID)
	assert.Equal(t, "BTC", got.symbol)
	assert.Equal(t, 50000.00, got.current)
	assert.Equal(t, 50000.0, got.target)
	assert.Equal(t, types.ConditionAbove, got.condition)
	assert.True(t, store.triggered("a1"))
}

func TestEvaluateBelowBoundaryInclusive(t *testing.T) {
	store := newFakeStore(types.Alert{
		ID: "a1", ChatID: 1, Symbol: "ETH", TargetPrice: 2000, Condition: types.ConditionBelow,
	})
	feed := &fakeFeed{prices: map[string]types.PriceSnapshot{"ETH": snapshot("ETH", 2000)}}
	notifier := &fakeNotifier{}

	newTestMonitor(store, feed, notifier).evaluate(context.Background())

	assert.Len(t, notifier.sent, 1)
	assert.True(t, store.triggered("a1"))
}

func TestEvaluateNeitherSideTriggers(t *testing.T) {
	store := newFakeStore(
		types.Alert{ID: "up", ChatID: 1, Symbol: "ETH", TargetPrice: 3000, Condition: types.ConditionAbove},
		types.Alert{ID: "down", ChatID: 1, Symbol: "ETH", TargetPrice: 2000, Condition: types.ConditionBelow},
	)
	feed := &fakeFeed{prices: map[string]types.PriceSnapshot{"ETH": snapshot("ETH", 2500)}}
	notifier := &fakeNotifier{}

	newTestMonitor(store, feed, notifier).evaluate(context.Background())

	assert.Empty(t, notifier.sent)
	assert.False(t, store.triggered("up"))
	assert.False(t, store.triggered("down"))
}

func TestEvaluateDeduplicatesSymbols(t *testing.T) {
	store := newFakeStore(
		types.Alert{ID: "a", ChatID: 1, Symbol: "BTC", TargetPrice: 1, Condition: types.ConditionAbove},
		types.Alert{ID: "b", ChatID: 2, Symbol: "btc", TargetPrice: 2, Condition: types.ConditionAbove},
		types.Alert{ID: "c", ChatID: 3, Symbol: "ETH", TargetPrice: 3, Condition: types.ConditionAbove},
	)
	feed := &fakeFeed{prices: map[string]types.PriceSnapshot{
		"BTC": snapshot("BTC", 100), "ETH": snapshot("ETH", 100),
	}}
	notifier := &fakeNotifier{}

	newTestMonitor(store, feed, notifier).evaluate(context.Background())

	require.Len(t, feed.calls, 1, "one batched fetch per tick")
	requested := feed.calls[0]
	assert.ElementsMatch(t, []string{"BTC", "ETH"}, requested, "symbols deduplicated and uppercased")
	assert.Len(t, notifier.sent, 3, "each alert still notified independently")
}

func TestEvaluateNoActiveAlertsSkipsPriceFetch(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{}
	notifier := &fakeNotifier{}

	newTestMonitor(store, feed, notifier).evaluate(context.Background())

	assert.Zero(t, feed.callCount(), "empty tick makes no price feed calls")
	assert.Empty(t, notifier.sent)
}

func TestEvaluateUnresolvedSymbolDefersAlert(t *testing.T) {
	store := newFakeStore(types.Alert{
		ID: "a1", ChatID: 1, Symbol: "OBSCURE", TargetPrice: 1, Condition: types.ConditionAbove,
	})
	feed := &fakeFeed{prices: map[string]types.PriceSnapshot{}}
	notifier := &fakeNotifier{}

	m := newTestMonitor(store, feed, notifier)
	m.evaluate(context.Background())

	assert.Empty(t, notifier.sent)
	assert.False(t, store.triggered("a1"), "alert stays active for the next tick")

	// Symbol resolves on a later tick and the alert fires then.
	feed.prices["OBSCURE"] = snapshot("OBSCURE", 2)
	m.evaluate(context.Background())
	assert.Len(t, notifier.sent, 1)
	assert.True(t, store.triggered("a1"))
}

func TestEvaluatePriceFeedOutage(t *testing.T) {
	store := newFakeStore(
		types.Alert{ID: "a", ChatID: 1, Symbol: "BTC", TargetPrice: 1, Condition: types.ConditionAbove},
		types.Alert{ID: "b", ChatID: 2, Symbol: "ETH", TargetPrice: 2, Condition: types.ConditionBelow},
		types.Alert{ID: "c", ChatID: 3, Symbol: "SOL", TargetPrice: 3, Condition: types.ConditionAbove},
	)
	feed := &fakeFeed{err: errors.New("transport down")}
	notifier := &fakeNotifier{}

	newTestMonitor(store, feed, notifier).evaluate(context.Background())

	assert.Empty(t, notifier.sent)
	for _, id := range []string{"a", "b", "c"} {
		assert.False(t, store.triggered(id), "alert %s remains active", id)
	}
}

func TestEvaluateNotificationFailureStillCommits(t *testing.T) {
	store := newFakeStore(types.Alert{
		ID: "a1", ChatID: 1, Symbol: "BTC", TargetPrice: 1, Condition: types.ConditionAbove,
	})
	feed := &fakeFeed{prices: map[string]types.PriceSnapshot{"BTC": snapshot("BTC", 5)}}
	notifier := &fakeNotifier{err: errors.New("destination unreachable")}

	m := newTestMonitor(store, feed, notifier)
	m.evaluate(context.Background())

	assert.Len(t, notifier.sent, 1)
	assert.True(t, store.triggered("a1"), "attempted delivery advances state")

	// At-most-once: the same crossing is never re-notified.
	m.evaluate(context.Background())
	assert.Equal(t, 1, notifier.sentCount())
}

func TestEvaluateStoreFailureIsolatedPerAlert(t *testing.T) {
	store := newFakeStore(
		types.Alert{ID: "bad", ChatID: 1, Symbol: "BTC", TargetPrice: 1, Condition: types.ConditionAbove},
		types.Alert{ID: "good", ChatID: 2, Symbol: "ETH", TargetPrice: 1, Condition: types.ConditionAbove},
	)
	store.markErr["bad"] = errors.New("disk full")
	feed := &fakeFeed{prices: map[string]types.PriceSnapshot{
		"BTC": snapshot("BTC", 5), "ETH": snapshot("ETH", 5),
	}}
	notifier := &fakeNotifier{}

	newTestMonitor(store, feed, notifier).evaluate(context.Background())

	assert.Len(t, notifier.sent, 2, "failure in one alert's commit does not block the other")
	assert.False(t, store.triggered("bad"), "uncommitted alert retries next tick")
	assert.True(t, store.triggered("good"))
}

func TestEvaluateListFailureEndsTick(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("db locked")
	feed := &fakeFeed{}
	notifier := &fakeNotifier{}

	newTestMonitor(store, feed, notifier).evaluate(context.Background())

	assert.Zero(t, feed.callCount())
	assert.Empty(t, notifier.sent)
}

func TestTriggeredAlertExcludedFromNextTick(t *testing.T) {
	store := newFakeStore(types.Alert{
		ID: "a1", ChatID: 1, Symbol: "BTC", TargetPrice: 1, Condition: types.ConditionAbove,
	})
	feed := &fakeFeed{prices: map[string]types.PriceSnapshot{"BTC": snapshot("BTC", 5)}}
	notifier := &fakeNotifier{}

	m := newTestMonitor(store, feed, notifier)
	m.evaluate(context.Background())
	m.evaluate(context.Background())

	assert.Equal(t, 1, notifier.sentCount())
	assert.Equal(t, 1, feed.callCount(), "second tick short-circuits with nothing active")
}

func TestOverlappingTickSkipped(t *testing.T) {
	store := newFakeStore(types.Alert{
		ID: "a1", ChatID: 1, Symbol: "BTC", TargetPrice: 1, Condition: types.ConditionAbove,
	})
	feed := &fakeFeed{
		prices: map[string]types.PriceSnapshot{"BTC": snapshot("BTC", 5)},
		block:  make(chan struct{}),
	}
	notifier := &fakeNotifier{}

	m := newTestMonitor(store, feed, notifier)

	m.runTick()
	require.Eventually(t, func() bool { return feed.callCount() == 1 }, time.Second, time.Millisecond)

	// The first pass is parked inside the price fetch; a second tick must
	// be dropped, not queued behind it.
	m.runTick()
	close(feed.block)
	m.wg.Wait()

	assert.Equal(t, 1, feed.callCount())
	assert.Equal(t, 1, notifier.sentCount())
}

func TestStartStopLifecycle(t *testing.T) {
	store := newFakeStore(types.Alert{
		ID: "a1", ChatID: 1, Symbol: "BTC", TargetPrice: 1, Condition: types.ConditionAbove,
	})
	feed := &fakeFeed{prices: map[string]types.PriceSnapshot{"BTC": snapshot("BTC", 5)}}
	notifier := &fakeNotifier{}

	m := New(5*time.Millisecond, store, feed, notifier, NewMetrics())
	require.NoError(t, m.Start())
	require.NoError(t, m.Start(), "second start is a no-op")

	require.Eventually(t, func() bool { return notifier.sentCount() == 1 }, time.Second, time.Millisecond)

	m.Stop()
	m.Stop() // safe when already stopped

	sent := notifier.sentCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, sent, notifier.sentCount(), "no ticks after stop")
}

func TestStopWithoutStart(t *testing.T) {
	m := New(time.Minute, newFakeStore(), &fakeFeed{}, &fakeNotifier{}, nil)
	m.Stop()
}

func TestStartRequiresCollaborators(t *testing.T) {
	m := New(time.Minute, nil, nil, nil, nil)
	assert.Error(t, m.Start())
}
