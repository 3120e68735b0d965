package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ValidationResult contains the result of a configuration validation
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no errors
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// CombinedError returns all errors as a single error
func (r *ValidationResult) CombinedError() error {
	if len(r.Errors) == 0 {
		return nil
	}

	messages := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		messages[i] = err.Error()
	}
	return fmt.Errorf("configuration validation failed:\n%s", strings.Join(messages, "\n"))
}

func (r *ValidationResult) add(field, message string) {
	r.Errors = append(r.Errors, *NewValidationError(field, message))
}

// ValidateAll checks every field and collects all problems.
func (c *Config) ValidateAll() *ValidationResult {
	result := &ValidationResult{}

	switch c.GenerationProvider {
	case "ollama", "genai":
	default:
		result.add("generation_provider", fmt.Sprintf("unsupported provider %q (use 'ollama' or 'genai')", c.GenerationProvider))
	}
	switch c.EmbeddingProvider {
	case "ollama", "genai", "hash":
	default:
		result.add("embedding_provider", fmt.Sprintf("unsupported provider %q (use 'ollama', 'genai' or 'hash')", c.EmbeddingProvider))
	}
	if (c.GenerationProvider == "genai" || c.EmbeddingProvider == "genai") && c.GenAIAPIKey == "" {
		result.add("genai_api_key", "required when a genai provider is selected (or set GEMINI_API_KEY)")
	}
	if c.ConfidenceThreshold < -1 || c.ConfidenceThreshold > 1 {
		result.add("confidence_threshold", "must be within [-1, 1]")
	}
	if c.RefineMaxRounds < 1 {
		result.add("refine_max_rounds", "must be at least 1")
	}
	if c.RequestTimeoutSecs < 0 || c.EmbeddingTimeoutSecs < 0 {
		result.add("timeouts", "must not be negative")
	}
	if c.MaxSampleFiles < 1 || c.MaxSampleSizeKB < 1 || c.ExcerptChars < 1 {
		result.add("indexing", "max_sample_files, max_sample_size_kb and excerpt_chars must be positive")
	}
	if c.QueryCacheSize < 0 {
		result.add("query_cache_size", "must not be negative")
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		result.add("server_port", "must be a valid TCP port")
	}

	return result
}

// Validate returns the combined validation error, if any.
func (c *Config) Validate() error {
	return c.ValidateAll().CombinedError()
}
