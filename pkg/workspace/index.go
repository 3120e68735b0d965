package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alantheprice/stackpilot/pkg/embedding"
	"github.com/alantheprice/stackpilot/pkg/llm"
	"github.com/alantheprice/stackpilot/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// IndexStats summarizes one IndexEmbeddings run.
type IndexStats struct {
	Embedded  int
	Unchanged int
	Removed   int
	Failed    int
}

func (s IndexStats) String() string {
	return fmt.Sprintf("%d embedded, %d unchanged, %d removed, %d failed", s.Embedded, s.Unchanged, s.Removed, s.Failed)
}

// IndexEmbeddings brings the embedding cache in line with the project's samples. Files
// whose content hash and model are unchanged are skipped, entries for files no longer
// sampled are dropped, and the rest are embedded with at most concurrency requests in
// flight. A file that fails to embed is logged and left out; the run still succeeds
// unless the context ends.
func IndexEmbeddings(ctx context.Context, p *Project, store *embedding.Store, embedder llm.Embedder, concurrency int, logger *utils.Logger) (IndexStats, error) {
	var stats IndexStats

	existing, err := store.Load()
	if err != nil {
		return stats, err
	}

	current := make(map[string]bool, len(p.Samples))
	var todo []FileSample
	for _, sample := range p.Samples {
		current[sample.Path] = true
		entry, ok := existing[sample.Path]
		if ok && entry.Hash == embedding.ContentHash(sample.Content) && entry.Model == embedder.Name() {
			stats.Unchanged++
			continue
		}
		todo = append(todo, sample)
	}

	if concurrency <= 0 {
		concurrency = 3
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	fresh := make(map[string]embedding.Entry, len(todo))
	for _, sample := range todo {
		g.Go(func() error {
			vec, err := embedder.Embed(gctx, embeddingText(sample))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Logf("Warning: failed to generate embedding for file %s: %v", sample.Path, err)
				mu.Lock()
				stats.Failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			fresh[sample.Path] = embedding.Entry{
				Hash:      embedding.ContentHash(sample.Content),
				Embedding: vec,
				Model:     embedder.Name(),
				UpdatedAt: time.Now(),
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("indexing interrupted: %w", err)
	}

	err = store.Update(func(entries map[string]embedding.Entry) error {
		for key := range entries {
			if embedding.IsFileKey(key) && !current[key] {
				delete(entries, key)
				stats.Removed++
			}
		}
		for path, entry := range fresh {
			entries[path] = entry
		}
		return nil
	})
	stats.Embedded = len(fresh)
	return stats, err
}

// embeddingText is what gets embedded for a file: its path and the start of its content.
func embeddingText(sample FileSample) string {
	return fmt.Sprintf("File: %s\n%s", sample.Path, truncate(sample.Content, fallbackMaxChars))
}

// Search embeds query and ranks the cached files against it.
func Search(ctx context.Context, store *embedding.Store, embedder llm.Embedder, query string, topK int) ([]embedding.Hit, error) {
	entries, err := store.Load()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	vec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding for query: %w", err)
	}

	model := embedder.Name()
	compatible := make(map[string]embedding.Entry, len(entries))
	for key, entry := range entries {
		if entry.Model == "" || entry.Model == model {
			compatible[key] = entry
		}
	}
	return embedding.Search(compatible, vec, topK), nil
}
