package intent

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// queryMemo keeps recent query embeddings so repeated questions in chat or server
// mode skip the embedding backend. The lru cache is safe for concurrent use.
type queryMemo struct {
	cache *lru.Cache[string, []float64]
}

// newQueryMemo returns nil when size is not positive, which disables memoization.
func newQueryMemo(size int) (*queryMemo, error) {
	if size <= 0 {
		return nil, nil
	}
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, err
	}
	return &queryMemo{cache: cache}, nil
}

func (m *queryMemo) get(query string) ([]float64, bool) {
	if m == nil {
		return nil, false
	}
	return m.cache.Get(query)
}

func (m *queryMemo) add(query string, vector []float64) {
	if m == nil {
		return
	}
	m.cache.Add(query, vector)
}

func (m *queryMemo) len() int {
	if m == nil {
		return 0
	}
	return m.cache.Len()
}
