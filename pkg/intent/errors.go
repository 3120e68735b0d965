package intent

import "fmt"

// EmbeddingBackendError reports that the embedding backend could not embed a query or
// an example phrase. Classification has no fallback when this happens.
type EmbeddingBackendError struct {
	Backend string
	Text    string
	Err     error
}

func (e *EmbeddingBackendError) Error() string {
	return fmt.Sprintf("embedding backend %s failed for %q: %v", e.Backend, e.Text, e.Err)
}

func (e *EmbeddingBackendError) Unwrap() error {
	return e.Err
}
