package cache

import (
	"sync"

	"VolSpike/internal/domain/models"
)

type pairKey struct {
	symbol string
	date   string
}

// ReportCache memoizes broker participation reports by exact (symbol, date)
// key for the lifetime of one analysis run. Empty results are cached too, so
// known-empty pairs are never re-queried. A new run starts with a new cache;
// nothing is shared or persisted across runs.
type ReportCache struct {
	mu sync.RWMutex
	m  map[pairKey][]models.BrokerParticipation
}

func NewReportCache() *ReportCache {
	return &ReportCache{m: make(map[pairKey][]models.BrokerParticipation)}
}

// Get returns the cached rows for the pair, and whether the pair was cached
// at all. A cached empty report returns (empty, true).
func (c *ReportCache) Get(symbol, date string) ([]models.BrokerParticipation, bool) {
	c.mu.RLock()
	rows, ok := c.m[pairKey{symbol, date}]
	c.mu.RUnlock()
	return rows, ok
}

// Put stores the rows for the pair, replacing any previous entry.
func (c *ReportCache) Put(symbol, date string, rows []models.BrokerParticipation) {
	c.mu.Lock()
	c.m[pairKey{symbol, date}] = rows
	c.mu.Unlock()
}

// Len reports how many pairs are cached.
func (c *ReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
