// Package pricefeed fetches live market snapshots, primarily from the
// Binance REST API with CoinPaprika as a fallback for symbols Binance does
// not list.
package pricefeed

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/DimonONE/TelegramCryptoAnalyst/internal/types"
)

const (
	quoteAsset  = "USDT"
	maxParallel = 8
	maxAttempts = 3
)

// Binance error code for an unknown trading pair; not worth retrying.
const codeInvalidSymbol = -1121

// ErrSymbolNotFound is returned when no provider can resolve a symbol.
var ErrSymbolNotFound = errors.New("pricefeed: symbol not found")

// Client fetches price snapshots. The zero value is not usable; use New.
type Client struct {
	binance *binance.Client
	paprika *coinpaprika.Client
}

// New creates a price feed client. Binance API credentials are optional for
// the public market-data endpoints used here.
func New(apiKey, secretKey string) *Client {
	return &Client{
		binance: binance.NewClient(apiKey, secretKey),
		paprika: coinpaprika.NewClient(nil),
	}
}

// GetPrice returns a fresh 24h snapshot for one symbol.
func (c *Client) GetPrice(ctx context.Context, symbol string) (types.PriceSnapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return types.PriceSnapshot{}, ErrSymbolNotFound
	}

	stats, err := c.priceChangeStats(ctx, symbol+quoteAsset)
	if err != nil {
		log.Debugf("binance lookup for %s failed (%v), trying coinpaprika", symbol, err)
		return c.paprikaSnapshot(symbol)
	}
	return snapshotFromStats(symbol, stats), nil
}

// GetPrices resolves a batch of symbols in one call. The input is
// deduplicated and uppercased; the result maps uppercase symbol to
// snapshot, and symbols that could not be resolved are simply absent.
func (c *Client) GetPrices(ctx context.Context, symbols []string) (map[string]types.PriceSnapshot, error) {
	distinct := dedupSymbols(symbols)
	prices := make(map[string]types.PriceSnapshot, len(distinct))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, maxParallel)
	)
	for _, symbol := range distinct {
		wg.Add(1)
		sem <- struct{}{}
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			snapshot, err := c.GetPrice(ctx, symbol)
			if err != nil {
				// Unresolved symbols are omitted, never fatal to the batch.
				log.Debugf("no price data for %s: %v", symbol, err)
				return
			}
			mu.Lock()
			prices[symbol] = snapshot
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	return prices, nil
}

// TopGainers returns the best performing USDT pairs over the last 24h.
func (c *Client) TopGainers(ctx context.Context, limit int) ([]types.TopCoin, error) {
	stats, err := c.binance.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch 24h statistics")
	}
	return topMovers(stats, limit, false), nil
}

// TopLosers returns the worst performing USDT pairs over the last 24h.
func (c *Client) TopLosers(ctx context.Context, limit int) ([]types.TopCoin, error) {
	stats, err := c.binance.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch 24h statistics")
	}
	return topMovers(stats, limit, true), nil
}

// Candles returns up to limit complete klines for chart rendering.
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	pair := strings.ToUpper(strings.TrimSpace(symbol)) + quoteAsset

	data, err := c.binance.NewKlinesService().
		Symbol(pair).
		Interval(interval).
		Limit(limit + 1). // +1 to discard the last incomplete candle
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch klines for %s", pair)
	}

	candles := make([]types.Candle, 0, len(data))
	for i, k := range data {
		if i == len(data)-1 {
			break
		}
		candles = append(candles, types.Candle{
			Time:  time.Unix(0, k.OpenTime*int64(time.Millisecond)),
			Open:  parseFloat(k.Open),
			High:  parseFloat(k.High),
			Low:   parseFloat(k.Low),
			Close: parseFloat(k.Close),
		})
	}
	return candles, nil
}

// priceChangeStats fetches the 24h ticker for one pair, retrying transient
// failures with backoff.
func (c *Client) priceChangeStats(ctx context.Context, pair string) (*binance.PriceChangeStats, error) {
	retry := &backoff.Backoff{
		Min:    200 * time.Millisecond,
		Max:    2 * time.Second,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		stats, err := c.binance.NewListPriceChangeStatsService().Symbol(pair).Do(ctx)
		if err == nil {
			if len(stats) == 0 {
				return nil, ErrSymbolNotFound
			}
			return stats[0], nil
		}
		lastErr = err

		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == codeInvalidSymbol {
			return nil, ErrSymbolNotFound
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		time.Sleep(retry.Duration())
	}
	return nil, lastErr
}

// paprikaSnapshot resolves a symbol through CoinPaprika search. High/low are
// not available there and stay zero.
func (c *Client) paprikaSnapshot(symbol string) (types.PriceSnapshot, error) {
	result, err := c.paprika.Search.Search(&coinpaprika.SearchOptions{
		Query:      symbol,
		Categories: "currencies",
		Modifier:   "symbol_search",
	})
	if err != nil || len(result.Currencies) == 0 {
		return types.PriceSnapshot{}, ErrSymbolNotFound
	}

	coin := result.Currencies[0]
	if coin.ID == nil {
		return types.PriceSnapshot{}, ErrSymbolNotFound
	}

	ticker, err := c.paprika.Tickers.GetByID(*coin.ID, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil || ticker == nil {
		return types.PriceSnapshot{}, ErrSymbolNotFound
	}

	usd, ok := ticker.Quotes["USD"]
	if !ok || usd.Price == nil {
		return types.PriceSnapshot{}, ErrSymbolNotFound
	}

	snapshot := types.PriceSnapshot{
		Symbol: symbol,
		Price:  *usd.Price,
	}
	if usd.PercentChange24h != nil {
		pct := *usd.PercentChange24h
		snapshot.ChangePercent24h = pct
		if pct > -100 {
			snapshot.Change24h = snapshot.Price - snapshot.Price/(1+pct/100)
		}
	}
	if usd.Volume24h != nil {
		snapshot.Volume24h = *usd.Volume24h
	}
	return snapshot, nil
}

func snapshotFromStats(symbol string, stats *binance.PriceChangeStats) types.PriceSnapshot {
	return types.PriceSnapshot{
		Symbol:           symbol,
		Price:            parseFloat(stats.LastPrice),
		Change24h:        parseFloat(stats.PriceChange),
		ChangePercent24h: parseFloat(stats.PriceChangePercent),
		Volume24h:        parseFloat(stats.Volume),
		High24h:          parseFloat(stats.HighPrice),
		Low24h:           parseFloat(stats.LowPrice),
	}
}

// topMovers filters the full ticker list down to USDT pairs moving in the
// requested direction, sorted by 24h percent change.
func topMovers(stats []*binance.PriceChangeStats, limit int, losers bool) []types.TopCoin {
	coins := make([]types.TopCoin, 0, limit)
	for _, s := range stats {
		if !strings.HasSuffix(s.Symbol, quoteAsset) {
			continue
		}
		pct := parseFloat(s.PriceChangePercent)
		if losers && pct >= 0 {
			continue
		}
		if !losers && pct <= 0 {
			continue
		}
		coins = append(coins, types.TopCoin{
			Symbol:           strings.TrimSuffix(s.Symbol, quoteAsset),
			Price:            parseFloat(s.LastPrice),
			ChangePercent24h: pct,
			QuoteVolume:      parseFloat(s.QuoteVolume),
		})
	}

	sort.Slice(coins, func(i, j int) bool {
		if losers {
			return coins[i].ChangePercent24h < coins[j].ChangePercent24h
		}
		return coins[i].ChangePercent24h > coins[j].ChangePercent24h
	})

	if len(coins) > limit {
		coins = coins[:limit]
	}
	return coins
}

func dedupSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	distinct := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		distinct = append(distinct, s)
	}
	return distinct
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
