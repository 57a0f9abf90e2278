package cache

import (
	"sync"
	"time"

	"github.com/assolink/cantine/internal/metrics"
	"github.com/assolink/cantine/internal/repository"
)

const dayKeyLayout = "2006-01-02"

// dayKey reduces a day value to its calendar date. Quota days arrive both as
// midnight in the service location (parsed requests) and as midnight UTC
// (scanned DATE columns); keying on the formatted date makes the two agree.
func dayKey(day time.Time) string {
	return day.Format(dayKeyLayout)
}

// QuotaCache keeps quota rows in memory keyed by delivery date. Quotas only
// change through the admin endpoint, which invalidates the entry, so plain
// read-through caching is safe. Reservation transactions bypass the cache
// and read the locked row.
//
// The cache is constructor-injected rather than a package-level singleton so
// its lifecycle follows the service that owns it.
type QuotaCache struct {
	mu      sync.RWMutex
	entries map[string]*repository.Quota
}

func NewQuotaCache() *QuotaCache {
	return &QuotaCache{
		entries: make(map[string]*repository.Quota),
	}
}

func (c *QuotaCache) Get(day time.Time) (*repository.Quota, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	quota, found := c.entries[dayKey(day)]
	if !found {
		return nil, false
	}
	cp := *quota
	return &cp, true
}

func (c *QuotaCache) Set(quota *repository.Quota) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *quota
	c.entries[dayKey(quota.Day)] = &cp
	metrics.QuotaCacheItems.Set(float64(len(c.entries)))
}

func (c *QuotaCache) Invalidate(day time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := dayKey(day)
	if _, found := c.entries[key]; found {
		delete(c.entries, key)
		metrics.QuotaCacheItems.Set(float64(len(c.entries)))
	}
}
