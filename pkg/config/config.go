package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// ConfigDirName is the per-project and per-user settings directory.
	ConfigDirName  = ".stackpilot"
	configFileName = "config.json"

	DefaultGenerationModel = "deepseek-coder:6.7b"
	DefaultEmbeddingModel  = "nomic-embed-text"
	DefaultOllamaServerURL = "http://localhost:11434"
)

type Config struct {
	GenerationProvider   string  `json:"generation_provider"` // "ollama" or "genai"
	GenerationModel      string  `json:"generation_model"`
	EmbeddingProvider    string  `json:"embedding_provider"` // "ollama", "genai" or "hash"
	EmbeddingModel       string  `json:"embedding_model"`
	OllamaServerURL      string  `json:"ollama_server_url"`
	GenAIAPIKey          string  `json:"genai_api_key,omitempty"`
	ConfidenceThreshold  float64 `json:"confidence_threshold"` // Queries scoring below this are rejected
	RefineMaxRounds      int     `json:"refine_max_rounds"`
	RequestTimeoutSecs   int     `json:"request_timeout_secs"`
	EmbeddingTimeoutSecs int     `json:"embedding_timeout_secs"`
	// Project indexing
	MaxSampleFiles  int `json:"max_sample_files"`
	MaxSampleSizeKB int `json:"max_sample_size_kb"`
	ExcerptChars    int `json:"excerpt_chars"`
	// Embeddings
	TaxonomyFile          string `json:"taxonomy_file,omitempty"`
	EmbeddingCacheFile    string `json:"embedding_cache_file"`
	QueryCacheSize        int    `json:"query_cache_size"`
	MaxConcurrentRequests int    `json:"max_concurrent_requests"`
	// Server
	ServerPort int  `json:"server_port"`
	Quiet      bool `json:"-"` // Command-scoped, not saved to config
}

func getHomeConfigPath() (string, string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	configDir := filepath.Join(home, ConfigDirName)
	return configDir, filepath.Join(configDir, configFileName)
}

func getCurrentConfigPath() (string, string) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", ""
	}
	configDir := filepath.Join(cwd, ConfigDirName)
	return configDir, filepath.Join(configDir, configFileName)
}

// NewConfig returns a configuration populated with defaults.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.setDefaultValues()
	return cfg
}

func (cfg *Config) setDefaultValues() {
	if cfg.GenerationProvider == "" {
		cfg.GenerationProvider = "ollama"
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = DefaultGenerationModel
	}
	if cfg.EmbeddingProvider == "" {
		cfg.EmbeddingProvider = "ollama"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.OllamaServerURL == "" {
		cfg.OllamaServerURL = DefaultOllamaServerURL
	}
	// 0 is the zero value, so an explicit 0 threshold also falls back to 0.5.
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.5
	}
	if cfg.RefineMaxRounds == 0 {
		cfg.RefineMaxRounds = 1 // Single repair round-trip
	}
	if cfg.RequestTimeoutSecs == 0 {
		cfg.RequestTimeoutSecs = 120 // Local models can be slow
	}
	if cfg.EmbeddingTimeoutSecs == 0 {
		cfg.EmbeddingTimeoutSecs = 30
	}
	if cfg.MaxSampleFiles == 0 {
		cfg.MaxSampleFiles = 20
	}
	if cfg.MaxSampleSizeKB == 0 {
		cfg.MaxSampleSizeKB = 150
	}
	if cfg.ExcerptChars == 0 {
		cfg.ExcerptChars = 800
	}
	if cfg.EmbeddingCacheFile == "" {
		cfg.EmbeddingCacheFile = filepath.Join(ConfigDirName, "embeddings.json")
	}
	if cfg.QueryCacheSize == 0 {
		cfg.QueryCacheSize = 256
	}
	if cfg.MaxConcurrentRequests == 0 {
		cfg.MaxConcurrentRequests = 3
	}
	if cfg.ServerPort == 0 {
		cfg.ServerPort = 54321
	}
}

// applyEnvOverrides lets the environment (or a .env file) win over saved settings.
func (cfg *Config) applyEnvOverrides() {
	if v := os.Getenv("STACKPILOT_PROVIDER"); v != "" {
		cfg.GenerationProvider = v
	}
	if v := os.Getenv("STACKPILOT_MODEL"); v != "" {
		cfg.GenerationModel = v
	}
	if v := os.Getenv("STACKPILOT_EMBEDDING_PROVIDER"); v != "" {
		cfg.EmbeddingProvider = v
	}
	if v := os.Getenv("STACKPILOT_EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		if !strings.Contains(v, "://") {
			v = "http://" + v
		}
		cfg.OllamaServerURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.GenAIAPIKey == "" {
		cfg.GenAIAPIKey = v
	}
}

// RequestTimeout is the deadline applied to each generation call.
func (cfg *Config) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutSecs) * time.Second
}

// EmbeddingTimeout is the deadline applied to each embedding call.
func (cfg *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(cfg.EmbeddingTimeoutSecs) * time.Second
}

func loadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	// Fill fields that older configs do not carry.
	cfg.setDefaultValues()
	return &cfg, nil
}

func saveConfig(filePath string, cfg *Config) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// LoadOrInitConfig loads the project config, then the user config, and falls back to
// defaults when neither exists. Environment overrides are applied last.
func LoadOrInitConfig(quiet bool) (*Config, error) {
	// A missing .env is not an error.
	_ = godotenv.Load()

	_, currentConfigPath := getCurrentConfigPath()
	_, homeConfigPath := getHomeConfigPath()

	var cfg *Config
	for _, path := range []string{currentConfigPath, homeConfigPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		loaded, err := loadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		break
	}
	if cfg == nil {
		cfg = NewConfig()
	}

	cfg.applyEnvOverrides()
	cfg.Quiet = quiet
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitConfig writes a default config to the current directory and returns its path.
func InitConfig() (string, error) {
	_, currentConfigPath := getCurrentConfigPath()
	if currentConfigPath == "" {
		return "", fmt.Errorf("could not determine working directory")
	}
	if err := saveConfig(currentConfigPath, NewConfig()); err != nil {
		return "", fmt.Errorf("could not write config: %w", err)
	}
	return currentConfigPath, nil
}
