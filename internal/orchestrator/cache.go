// internal/orchestrator/cache.go
package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"sitewizard/internal/common/metrics"
	"sitewizard/internal/models"
	"sitewizard/internal/providers"
)

// responseCache memoizes completed (non-streaming) provider replies keyed by
// the full request fingerprint. Eviction is plain LRU. Hit and miss counts
// are kept locally as well as in Prometheus so Stats can read them back.
type responseCache struct {
	lru    *lru.Cache[string, string]
	hits   atomic.Int64
	misses atomic.Int64
}

func newResponseCache(size int) (*responseCache, error) {
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &responseCache{lru: c}, nil
}

// fingerprint hashes everything that influences a reply. Two requests share
// a cache slot only when provider, system prompt, every message, and the
// generation knobs all match.
func fingerprint(provider, systemPrompt string, messages []models.Message, opts providers.SendOptions) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%g\x00", provider, systemPrompt, opts.MaxTokens, opts.Temperature)
	for _, m := range messages {
		fmt.Fprintf(h, "%s\x1f%s\x1e", m.Role, m.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *responseCache) get(key string) (string, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
		metrics.ResponseCacheHits.Inc()
	} else {
		c.misses.Add(1)
		metrics.ResponseCacheMisses.Inc()
	}
	return v, ok
}

func (c *responseCache) stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *responseCache) add(key, value string) {
	c.lru.Add(key, value)
}

func (c *responseCache) purge() {
	c.lru.Purge()
}

func (c *responseCache) len() int {
	return c.lru.Len()
}
