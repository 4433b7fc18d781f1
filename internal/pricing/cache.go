package pricing

import (
	"strings"
	"sync"
	"time"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// DefaultTTL is how long a cached quote stays fresh.
const DefaultTTL = 5 * time.Minute

type cacheEntry struct {
	quote     domain.PriceQuote
	expiresAt time.Time
}

// QuoteCache is an in-memory TTL cache for resolved quotes. Entries are
// replaced wholesale on write and expire lazily: an expired entry is simply
// not returned, there is no eviction loop. Safe for concurrent use.
type QuoteCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewQuoteCache creates a quote cache. ttl <= 0 uses DefaultTTL.
func NewQuoteCache(ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &QuoteCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached quote for a symbol if it has not expired.
func (c *QuoteCache) Get(symbol string) (domain.PriceQuote, bool) {
	key := cacheKey(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return domain.PriceQuote{}, false
	}
	return entry.quote, true
}

// Put stores a quote, resetting its TTL.
func (c *QuoteCache) Put(quote domain.PriceQuote) {
	key := cacheKey(quote.Symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		quote:     quote,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Clear drops all cached quotes.
func (c *QuoteCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of entries, expired ones included.
func (c *QuoteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
