package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alantheprice/stackpilot/pkg/math"
	"github.com/gofrs/flock"
)

// phrasePrefix marks cache keys that hold phrase embeddings rather than files.
const phrasePrefix = "phrase:"

// Entry is one cached embedding.
type Entry struct {
	Hash      string    `json:"hash"`
	Embedding []float64 `json:"embedding"`
	Model     string    `json:"model,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type cacheFile struct {
	Entries map[string]Entry `json:"entries"`
}

// Store is a JSON file of embeddings keyed by path. Every change goes through Update,
// which holds an exclusive lock on <path>.lock for the whole load, mutate and persist
// cycle and replaces the file atomically. The lock file is shared by every Store and
// process that opens the same path.
type Store struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewStore(path string) *Store {
	return &Store{path: path, lock: flock.New(path + ".lock")}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns a snapshot of the cache. A missing file is an empty cache.
func (s *Store) Load() (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acquire(false); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()
	return s.read()
}

// Update loads the cache, lets fn modify it and writes the result back. Nothing is
// written when fn returns an error.
func (s *Store) Update(fn func(entries map[string]Entry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acquire(true); err != nil {
		return err
	}
	defer s.lock.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(entries); err != nil {
		return err
	}
	return s.write(entries)
}

// acquire takes the file lock, shared for readers and exclusive for writers.
func (s *Store) acquire(exclusive bool) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	lock := s.lock.RLock
	if exclusive {
		lock = s.lock.Lock
	}
	if err := lock(); err != nil {
		return fmt.Errorf("failed to lock embedding cache: %w", err)
	}
	return nil
}

func (s *Store) read() (map[string]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]Entry), nil
		}
		return nil, fmt.Errorf("failed to read embedding cache: %w", err)
	}

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse embedding cache %s: %w", s.path, err)
	}
	if cf.Entries == nil {
		cf.Entries = make(map[string]Entry)
	}
	return cf.Entries, nil
}

func (s *Store) write(entries map[string]Entry) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(cacheFile{Entries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal embedding cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".embeddings-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write embedding cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync embedding cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace embedding cache: %w", err)
	}
	return nil
}

// ContentHash is the hash stored with each entry to detect changed content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// IsFileKey reports whether key names a file rather than a cached phrase.
func IsFileKey(key string) bool {
	return !strings.HasPrefix(key, phrasePrefix)
}

// Hit is one search result.
type Hit struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// Search ranks the file entries by cosine similarity to query and returns the best
// topK. Entries whose dimensions do not match the query are skipped.
func Search(entries map[string]Entry, query []float64, topK int) []Hit {
	hits := make([]Hit, 0, len(entries))
	for key, entry := range entries {
		if !IsFileKey(key) {
			continue
		}
		score, err := math.CosineSimilarity(query, entry.Embedding)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{Path: key, Score: math.Round(score, 3)})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Path < hits[j].Path
	})
	if topK > 0 && topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}
