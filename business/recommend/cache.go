package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"campusMarket/domain"
)

// rerankEntry is one cached rerank result: the fully reordered id list
// plus the hydrated reranked batch.
type rerankEntry struct {
	rankedIDs []uint64
	items     []domain.Item
	createdAt time.Time
}

// RerankCache bounds LLM usage to at most one call per distinct
// (user, signal fingerprint, model) per TTL window. Expired entries are
// purged lazily before each read/write cycle; concurrent writers on the
// same key are last-write-wins, which the TTL bounds semantically.
type RerankCache struct {
	mu      sync.RWMutex
	entries map[string]rerankEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewRerankCache(ttl time.Duration) *RerankCache {
	return &RerankCache{
		entries: make(map[string]rerankEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Fingerprint derives the cache key from the signals that shape a rerank:
// user, top-3 keywords, top-3 recent categories, and the model.
func Fingerprint(userID uint64, keywords, categories []string, model string) string {
	raw := fmt.Sprintf("%d:%s:%s:%s",
		userID,
		strings.Join(sortedPrefix(keywords, 3), ","),
		strings.Join(sortedPrefix(categories, 3), ","),
		model,
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func sortedPrefix(values []string, n int) []string {
	if len(values) > n {
		values = values[:n]
	}
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

func (c *RerankCache) Get(key string) ([]uint64, []domain.Item, bool) {
	c.purge()

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, nil, false
	}
	return entry.rankedIDs, entry.items, true
}

func (c *RerankCache) Put(key string, rankedIDs []uint64, items []domain.Item) {
	c.purge()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = rerankEntry{
		rankedIDs: rankedIDs,
		items:     items,
		createdAt: c.now(),
	}
}

// Clear removes every entry and reports how many were removed.
func (c *RerankCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.entries)
	c.entries = make(map[string]rerankEntry)
	return count
}

func (c *RerankCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *RerankCache) purge() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if now.Sub(entry.createdAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}
