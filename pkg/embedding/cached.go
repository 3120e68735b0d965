package embedding

import (
	"context"
	"sync"
	"time"

	"github.com/alantheprice/stackpilot/pkg/llm"
)

// CachedEmbedder wraps an embedder and remembers phrase embeddings in the store, so
// the classifier can start without re-embedding phrases that have not changed. New
// embeddings are kept in memory until Flush.
type CachedEmbedder struct {
	inner llm.Embedder
	store *Store

	mu      sync.Mutex
	known   map[string]Entry
	pending map[string]Entry
	misses  int
}

// NewCachedEmbedder loads the cached phrases for inner's model.
func NewCachedEmbedder(inner llm.Embedder, store *Store) (*CachedEmbedder, error) {
	entries, err := store.Load()
	if err != nil {
		return nil, err
	}
	known := make(map[string]Entry)
	for key, entry := range entries {
		if !IsFileKey(key) && entry.Model == inner.Name() {
			known[key] = entry
		}
	}
	return &CachedEmbedder{
		inner:   inner,
		store:   store,
		known:   known,
		pending: make(map[string]Entry),
	}, nil
}

func (c *CachedEmbedder) Name() string {
	return c.inner.Name()
}

func (c *CachedEmbedder) key(text string) string {
	return phrasePrefix + c.inner.Name() + ":" + ContentHash(text)
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := c.key(text)

	c.mu.Lock()
	if entry, ok := c.known[key]; ok {
		c.mu.Unlock()
		return entry.Embedding, nil
	}
	c.mu.Unlock()

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	entry := Entry{Hash: ContentHash(text), Embedding: vec, Model: c.inner.Name(), UpdatedAt: time.Now()}
	c.mu.Lock()
	c.known[key] = entry
	c.pending[key] = entry
	c.misses++
	c.mu.Unlock()
	return vec, nil
}

// Misses is the number of texts that had to be embedded by the wrapped embedder.
func (c *CachedEmbedder) Misses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.misses
}

// Flush writes new embeddings to the store.
func (c *CachedEmbedder) Flush() error {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]Entry)
	c.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	return c.store.Update(func(entries map[string]Entry) error {
		for key, entry := range pending {
			entries[key] = entry
		}
		return nil
	})
}
