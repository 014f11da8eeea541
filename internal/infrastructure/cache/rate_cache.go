package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/aeroclub/backend/internal/domain/billing"
)

// Constants for in-memory cache configuration
const (
	defaultRateCacheTTL    = 5 * time.Minute
	defaultCleanupInterval = 30 * time.Second
)

// InMemoryRateCache implements billing.RateCache using in-memory storage
// with per-entry TTL. Rate rows change rarely compared to how often the
// draft calculator reads them, so a short TTL keeps admin edits visible
// within minutes while absorbing the read load of recalculations.
type InMemoryRateCache struct {
	quotes  sync.Map // map[string]*rateEntry
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	// Stats for monitoring
	hits   int64
	misses int64
}

// rateEntry wraps a cached quote with expiration time
type rateEntry struct {
	quote     billing.RateQuote
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *rateEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryRateCacheOption is a functional option for configuring the cache
type InMemoryRateCacheOption func(*InMemoryRateCache)

// WithRateCacheTTL sets the per-entry TTL
func WithRateCacheTTL(ttl time.Duration) InMemoryRateCacheOption {
	return func(c *InMemoryRateCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithRateCacheLogger sets the logger for the cache
func WithRateCacheLogger(logger *zap.Logger) InMemoryRateCacheOption {
	return func(c *InMemoryRateCache) {
		c.logger = logger
	}
}

// NewInMemoryRateCache creates a new in-memory rate quote cache
func NewInMemoryRateCache(opts ...InMemoryRateCacheOption) *InMemoryRateCache {
	cache := &InMemoryRateCache{
		ttl:    defaultRateCacheTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	// Start background cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a rate quote from cache
func (c *InMemoryRateCache) Get(key billing.RateCacheKey) (*billing.RateQuote, bool) {
	cacheKey := key.String()

	if value, ok := c.quotes.Load(cacheKey); ok {
		e := value.(*rateEntry)
		if !e.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("Rate cache hit", zap.String("key", cacheKey))
			quote := e.quote
			return &quote, true
		}
		// Expired, remove from cache
		c.quotes.Delete(cacheKey)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("Rate cache miss", zap.String("key", cacheKey))
	return nil, false
}

// Set stores a rate quote in cache
func (c *InMemoryRateCache) Set(key billing.RateCacheKey, quote billing.RateQuote) {
	cacheKey := key.String()
	c.quotes.Store(cacheKey, &rateEntry{
		quote:     quote,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.logger.Debug("Cached rate quote",
		zap.String("key", cacheKey),
		zap.Duration("ttl", c.ttl))
}

// Invalidate removes a single rate quote from cache, called when a rate
// row is edited so the next resolution re-reads the source
func (c *InMemoryRateCache) Invalidate(key billing.RateCacheKey) {
	cacheKey := key.String()
	c.quotes.Delete(cacheKey)
	c.logger.Debug("Invalidated rate quote", zap.String("key", cacheKey))
}

// InvalidateAll removes all cached rate quotes
func (c *InMemoryRateCache) InvalidateAll() {
	c.quotes.Range(func(key, _ any) bool {
		c.quotes.Delete(key)
		return true
	})
	c.logger.Info("Invalidated all cached rate quotes")
}

// Close releases any resources held by the cache
func (c *InMemoryRateCache) Close() error {
	// Only close once
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryRateCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of entries in the cache
func (c *InMemoryRateCache) Count() int {
	count := 0
	c.quotes.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemoryRateCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("Panic in rate cache cleanup",
							zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

// doCleanup removes expired entries
func (c *InMemoryRateCache) doCleanup() {
	var removed int

	c.quotes.Range(func(key, value any) bool {
		e := value.(*rateEntry)
		if e.isExpired() {
			c.quotes.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("Cleaned up expired rate quotes", zap.Int("removed", removed))
	}
}

// Ensure InMemoryRateCache implements billing.RateCache
var _ billing.RateCache = (*InMemoryRateCache)(nil)
