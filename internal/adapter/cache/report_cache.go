package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"tokentrim/internal/domain"
)

// ReportCache keeps recent compression reports keyed by their input.
// The pipeline is deterministic, so a hit is the report a fresh run
// would produce. Eviction is least recently used.
type ReportCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	report    *domain.CompressionReport
	timestamp time.Time
}

func NewReportCache(maxSize int, ttl time.Duration) *ReportCache {
	if maxSize <= 0 {
		maxSize = 128
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(filename, language string, aggressive bool, text string) string {
	h := sha256.New()
	for _, part := range []string{filename, language, strconv.FormatBool(aggressive), text} {
		h.Write([]byte(strconv.Itoa(len(part))))
		h.Write([]byte{0})
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (c *ReportCache) Get(filename, language string, aggressive bool, text string) (*domain.CompressionReport, bool) {
	key := cacheKey(filename, language, aggressive, text)

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now().Sub(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return entry.report, true
}

func (c *ReportCache) Put(filename, language string, aggressive bool, text string, report *domain.CompressionReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(filename, language, aggressive, text)
	entry := &cacheEntry{report: report, timestamp: c.now()}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Report returns the cached report for the input, or runs compute and
// caches its result.
func (c *ReportCache) Report(filename, language string, aggressive bool, text string, compute func() *domain.CompressionReport) *domain.CompressionReport {
	if r, ok := c.Get(filename, language, aggressive, text); ok {
		return r
	}
	r := compute()
	c.Put(filename, language, aggressive, text, r)
	return r
}

func (c *ReportCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ReportCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *ReportCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *ReportCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
