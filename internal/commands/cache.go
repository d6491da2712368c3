package commands

import (
	"sync"
	"time"
)

type cacheItem struct {
	ChartData  []byte
	Caption    string
	Expiration time.Time
}

var (
	chartCacheMu sync.Mutex
	chartCache   = make(map[string]*cacheItem)
)

func cacheGet(key string) (*cacheItem, bool) {
	chartCacheMu.Lock()
	defer chartCacheMu.Unlock()

	if item, found := chartCache[key]; found && time.Now().Before(item.Expiration) {
		return item, true
	}
	return nil, false
}

func cacheSet(key string, chartData []byte, caption string, ttl time.Duration) {
	chartCacheMu.Lock()
	defer chartCacheMu.Unlock()

	chartCache[key] = &cacheItem{
		ChartData:  chartData,
		Caption:    caption,
		Expiration: time.Now().Add(ttl),
	}
}
