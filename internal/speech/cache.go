package speech

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes synthesized audio by exact phrase. Concurrent requests for
// the same phrase share one call to the underlying Synthesizer. Failures are
// not cached.
type Cache struct {
	inner Synthesizer

	mu    sync.Mutex
	audio map[string][]byte
	group singleflight.Group
}

// NewCache wraps s with a phrase cache.
func NewCache(s Synthesizer) *Cache {
	return &Cache{inner: s, audio: make(map[string][]byte)}
}

// Synthesize returns cached audio for text, calling the underlying
// Synthesizer on a miss.
func (c *Cache) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if data, ok := c.lookup(text); ok {
		return data, nil
	}

	v, err, _ := c.group.Do(text, func() (any, error) {
		if data, ok := c.lookup(text); ok {
			return data, nil
		}
		data, err := c.inner.Synthesize(ctx, text)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.audio[text] = data
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Len returns the number of cached phrases.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.audio)
}

func (c *Cache) lookup(text string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.audio[text]
	return data, ok
}
