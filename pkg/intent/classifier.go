package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/alantheprice/stackpilot/pkg/llm"
	"github.com/alantheprice/stackpilot/pkg/math"
	"golang.org/x/text/unicode/norm"
)

// Options tunes a Classifier.
type Options struct {
	// MemoSize is the number of query embeddings kept in memory. Zero disables it.
	MemoSize int
	// PhraseEmbedder embeds the example phrases, typically a cached wrapper around
	// the query embedder. Defaults to the query embedder.
	PhraseEmbedder llm.Embedder
}

type reference struct {
	entry  Entry
	vector []float64
}

// Classifier matches queries against one reference vector per taxonomy entry. The
// reference table is built in NewClassifier and never changes afterwards, so Detect
// is safe for concurrent use.
type Classifier struct {
	embedder llm.Embedder
	refs     []reference
	memo     *queryMemo
}

// NewClassifier embeds every example phrase and averages them into one reference
// vector per entry.
func NewClassifier(ctx context.Context, embedder llm.Embedder, taxonomy Taxonomy, opts Options) (*Classifier, error) {
	if err := taxonomy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid taxonomy: %w", err)
	}

	phraseEmbedder := opts.PhraseEmbedder
	if phraseEmbedder == nil {
		phraseEmbedder = embedder
	}

	refs := make([]reference, 0, len(taxonomy))
	for _, entry := range taxonomy {
		vectors := make([][]float64, 0, len(entry.Examples))
		for _, phrase := range entry.Examples {
			vec, err := phraseEmbedder.Embed(ctx, normalize(phrase))
			if err != nil {
				return nil, &EmbeddingBackendError{Backend: phraseEmbedder.Name(), Text: phrase, Err: err}
			}
			vectors = append(vectors, vec)
		}

		mean, err := math.Mean(vectors)
		if err != nil {
			return nil, fmt.Errorf("failed to build reference for %s: %w", entry.label(), err)
		}
		examples := append([]string(nil), entry.Examples...)
		refs = append(refs, reference{
			entry:  Entry{Main: entry.Main, Sub: entry.Sub, Examples: examples},
			vector: mean,
		})
	}

	memo, err := newQueryMemo(opts.MemoSize)
	if err != nil {
		return nil, err
	}

	return &Classifier{embedder: embedder, refs: refs, memo: memo}, nil
}

// Detect returns the entry most similar to the query. No threshold is applied; the
// best match is always returned. Equal scores resolve to the earlier entry.
func (c *Classifier) Detect(ctx context.Context, query string) (Classification, error) {
	text := normalize(query)

	vec, ok := c.memo.get(text)
	if !ok {
		var err error
		vec, err = c.embedder.Embed(ctx, text)
		if err != nil {
			return Classification{}, &EmbeddingBackendError{Backend: c.embedder.Name(), Text: query, Err: err}
		}
		c.memo.add(text, vec)
	}

	bestIdx := -1
	var bestScore float64
	for i, ref := range c.refs {
		score, err := math.CosineSimilarity(vec, ref.vector)
		if err != nil {
			return Classification{}, fmt.Errorf("query embedding does not match reference %s: %w", ref.entry.label(), err)
		}
		if bestIdx < 0 || score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	best := c.refs[bestIdx].entry
	return Classification{
		Main:       best.Main,
		Sub:        best.Sub,
		Confidence: math.Round(bestScore, 3),
	}, nil
}

// Taxonomy returns a copy of the entries the classifier was built from.
func (c *Classifier) Taxonomy() Taxonomy {
	out := make(Taxonomy, len(c.refs))
	for i, ref := range c.refs {
		out[i] = Entry{Main: ref.entry.Main, Sub: ref.entry.Sub, Examples: append([]string(nil), ref.entry.Examples...)}
	}
	return out
}

// Hierarchical reports whether the classifier returns sub-intents.
func (c *Classifier) Hierarchical() bool {
	for _, ref := range c.refs {
		if ref.entry.Sub != SubNone {
			return true
		}
	}
	return false
}

func normalize(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}
