package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with an empty home and no provider env.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	t.Setenv("HOME", filepath.Join(dir, "home"))
	for _, key := range []string{"STACKPILOT_PROVIDER", "STACKPILOT_MODEL", "STACKPILOT_EMBEDDING_PROVIDER", "STACKPILOT_EMBEDDING_MODEL", "OLLAMA_HOST", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
	}
	return dir
}

func TestDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "ollama", cfg.GenerationProvider)
	assert.Equal(t, DefaultGenerationModel, cfg.GenerationModel)
	assert.Equal(t, 0.5, cfg.ConfidenceThreshold)
	assert.Equal(t, 1, cfg.RefineMaxRounds)
	assert.Equal(t, 20, cfg.MaxSampleFiles)
	assert.Equal(t, 150, cfg.MaxSampleSizeKB)
	assert.Equal(t, 800, cfg.ExcerptChars)
	assert.Equal(t, DefaultOllamaServerURL, cfg.OllamaServerURL)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultsPreserveOverrides(t *testing.T) {
	cfg := &Config{
		ConfidenceThreshold:   0.7,
		RefineMaxRounds:       2,
		MaxConcurrentRequests: 5,
		ExcerptChars:          400,
	}
	cfg.setDefaultValues()

	assert.Equal(t, 0.7, cfg.ConfidenceThreshold)
	assert.Equal(t, 2, cfg.RefineMaxRounds)
	assert.Equal(t, 5, cfg.MaxConcurrentRequests)
	assert.Equal(t, 400, cfg.ExcerptChars)
}

func TestLoadOrInitConfigWithoutFiles(t *testing.T) {
	isolate(t)

	cfg, err := LoadOrInitConfig(true)
	require.NoError(t, err)
	assert.Equal(t, DefaultGenerationModel, cfg.GenerationModel)
	assert.True(t, cfg.Quiet)
}

func TestLoadOrInitConfigPrefersProjectConfig(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, ConfigDirName, "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"generation_model": "codellama", "confidence_threshold": 0.6}`), 0644))

	cfg, err := LoadOrInitConfig(false)
	require.NoError(t, err)
	assert.Equal(t, "codellama", cfg.GenerationModel)
	assert.Equal(t, 0.6, cfg.ConfidenceThreshold)
	// Missing fields are defaulted
	assert.Equal(t, DefaultEmbeddingModel, cfg.EmbeddingModel)
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("STACKPILOT_MODEL", "llama3")
	t.Setenv("OLLAMA_HOST", "10.0.0.2:11434")

	cfg, err := LoadOrInitConfig(true)
	require.NoError(t, err)
	assert.Equal(t, "llama3", cfg.GenerationModel)
	assert.Equal(t, "http://10.0.0.2:11434", cfg.OllamaServerURL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := NewConfig()
	cfg.GenerationProvider = "openai"
	cfg.EmbeddingProvider = "genai"
	cfg.ConfidenceThreshold = 2

	result := cfg.ValidateAll()
	require.False(t, result.IsValid())

	fields := map[string]bool{}
	for _, e := range result.Errors {
		fields[e.Field] = true
	}
	assert.True(t, fields["generation_provider"])
	assert.True(t, fields["genai_api_key"])
	assert.True(t, fields["confidence_threshold"])
	assert.Error(t, cfg.Validate())
}

func TestInitConfigWritesDefaults(t *testing.T) {
	isolate(t)

	path, err := InitConfig()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, filepath.Join(ConfigDirName, "config.json")), path)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, NewConfig().GenerationModel, cfg.GenerationModel)
}
