package types

import "time"

// ChatID identifies the chat that owns an alert or holding and the
// destination its notifications go to.
type ChatID int64

// Condition is the direction of a price alert threshold.
type Condition string

const (
	ConditionAbove Condition = "above"
	ConditionBelow Condition = "below"
)

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	return c == ConditionAbove || c == ConditionBelow
}

// Satisfied reports whether price has crossed target for this condition.
// The comparison is inclusive in both directions: a price exactly equal
// to the target counts as crossed.
func (c Condition) Satisfied(price, target float64) bool {
	switch c {
	case ConditionAbove:
		return price >= target
	case ConditionBelow:
		return price <= target
	}
	return false
}

// Alert is one user's standing instruction to be notified when a symbol
// crosses a target price. Symbol, target and condition are fixed at
// creation; Triggered transitions once from false to true and never back.
type Alert struct {
	ID          string    `json:"id"`
	ChatID      ChatID    `json:"chat_id"`
	Symbol      string    `json:"symbol"`
	TargetPrice float64   `json:"target_price"`
	Condition   Condition `json:"condition"`
	Triggered   bool      `json:"triggered"`
	CreatedAt   time.Time `json:"created_at"`
}

// PriceSnapshot is the 24h market view of one symbol, produced fresh on
// every fetch and never cached across monitor ticks.
type PriceSnapshot struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	Change24h        float64 `json:"change_24h"`
	ChangePercent24h float64 `json:"change_percent_24h"`
	Volume24h        float64 `json:"volume_24h"`
	High24h          float64 `json:"high_24h"`
	Low24h           float64 `json:"low_24h"`
}

// PortfolioHolding is an amount of one coin tracked for a chat.
type PortfolioHolding struct {
	ID     string  `json:"id"`
	ChatID ChatID  `json:"chat_id"`
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
}

// TopCoin is one row of a top gainers/losers listing.
type TopCoin struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	ChangePercent24h float64 `json:"change_percent_24h"`
	QuoteVolume      float64 `json:"quote_volume"`
}

// Candle is one kline used for chart rendering.
type Candle struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}
