package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery,omitempty"`
	Chunking  ChunkingConfig  `yaml:"chunking,omitempty"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	Data      DataConfig      `yaml:"data,omitempty"`
}

// DiscoveryConfig controls which files an ingestion run picks up
type DiscoveryConfig struct {
	IncludeExts  []string `yaml:"include_exts,omitempty"`   // File extensions to include, e.g. [".go", ".py"]
	ExcludeDirs  []string `yaml:"exclude_dirs,omitempty"`   // Directory names to skip anywhere in the tree
	Exclude      []string `yaml:"exclude,omitempty"`        // Glob patterns (doublestar) matched against relative paths
	MaxFileBytes int64    `yaml:"max_file_bytes,omitempty"` // Files larger than this are skipped
}

// ChunkingConfig holds line-window chunking parameters
type ChunkingConfig struct {
	Window   int `yaml:"window,omitempty"`    // Chunk length in lines
	Overlap  int `yaml:"overlap,omitempty"`   // Lines shared between consecutive chunks
	MinLines int `yaml:"min_lines,omitempty"` // Minimum non-blank lines per chunk
}

// EmbeddingConfig holds embedding service configuration
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "openai" | "volcengine"

	// VolcEngine specific
	APIKey   string `yaml:"api_key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Model    string `yaml:"model,omitempty"`

	// OpenAI specific
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`
	OpenAIModel  string `yaml:"openai_model,omitempty"`

	Dimensions int `yaml:"dimensions,omitempty"` // Vector dimension reported by the provider
	BatchSize  int `yaml:"batch_size,omitempty"` // Texts per embedding request
}

// SearchConfig holds search pipeline configuration
type SearchConfig struct {
	DefaultTopK      int `yaml:"default_top_k,omitempty"`     // Default number of results
	OversampleFactor int `yaml:"oversample_factor,omitempty"` // Neighbors fetched per requested result
	QueryCacheSize   int `yaml:"query_cache_size,omitempty"`  // Cached query vectors
}

// DataConfig holds on-disk state configuration
type DataConfig struct {
	// Directory holding chunks.jsonl, index.bin, the keyword index and
	// the run database. If empty, uses ~/.codepilot/data/<repo-name>-<hash>.
	Dir string `yaml:"dir,omitempty"`
}

// Load loads configuration from the default config file
// Default location: ~/.codepilot/config/codepilot.yaml
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromFile(path)
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".codepilot", "config", "codepilot.yaml"), nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			defaultPath, _ := DefaultPath()
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ConfigNotFoundError is returned when config file is not found
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Create the config file at the default location\n"+
		"  2. Specify a custom path with -config flag",
		e.RequestedPath, e.DefaultPath)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ApplyDefaults sets default values for missing configuration
func (c *Config) ApplyDefaults() {
	if len(c.Discovery.IncludeExts) == 0 {
		c.Discovery.IncludeExts = []string{
			".py", ".js", ".ts", ".tsx", ".jsx", ".go", ".java", ".rb",
			".rs", ".c", ".h", ".cpp", ".hpp", ".cs", ".php", ".md",
		}
	}
	if len(c.Discovery.ExcludeDirs) == 0 {
		c.Discovery.ExcludeDirs = []string{
			".git", "node_modules", "dist", "build", "vendor",
			"__pycache__", ".venv", "venv", "target",
		}
	}
	if c.Discovery.MaxFileBytes == 0 {
		c.Discovery.MaxFileBytes = 1 << 20 // 1 MiB
	}

	if c.Chunking.Window == 0 {
		c.Chunking.Window = 80
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 15
	}
	if c.Chunking.MinLines == 0 {
		c.Chunking.MinLines = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.OpenAIModel == "" {
		c.Embedding.OpenAIModel = "text-embedding-3-small"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "doubao-embedding-vision-250615"
	}
	if c.Embedding.Dimensions == 0 {
		switch c.Embedding.Provider {
		case "openai":
			c.Embedding.Dimensions = 1536
		default:
			c.Embedding.Dimensions = 2048
		}
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 32
	}

	// API keys may come from the environment (or a .env file loaded by
	// the CLI) instead of the config file.
	if c.Embedding.OpenAIAPIKey == "" {
		c.Embedding.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = os.Getenv("ARK_API_KEY")
	}

	if c.Search.DefaultTopK == 0 {
		c.Search.DefaultTopK = 5
	}
	if c.Search.OversampleFactor == 0 {
		c.Search.OversampleFactor = 5
	}
	if c.Search.QueryCacheSize == 0 {
		c.Search.QueryCacheSize = 100
	}

	if c.Data.Dir != "" {
		c.Data.Dir = expandPath(c.Data.Dir)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai":
		if c.Embedding.OpenAIAPIKey == "" {
			return fmt.Errorf("openai provider requires openai_api_key (or OPENAI_API_KEY)")
		}
	case "volcengine":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("volcengine provider requires api_key (or ARK_API_KEY)")
		}
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}

	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got: %d", c.Embedding.Dimensions)
	}
	if c.Embedding.BatchSize <= 0 || c.Embedding.BatchSize > 256 {
		return fmt.Errorf("batch_size must be between 1 and 256, got: %d", c.Embedding.BatchSize)
	}

	if c.Chunking.Overlap >= c.Chunking.Window {
		return fmt.Errorf("chunking overlap %d must be smaller than window %d", c.Chunking.Overlap, c.Chunking.Window)
	}
	if c.Search.OversampleFactor <= 0 {
		return fmt.Errorf("oversample_factor must be positive, got: %d", c.Search.OversampleFactor)
	}

	return nil
}

const defaultConfigTemplate = `# CodePilot Configuration
#
# Copy and edit this file for your environment.
# Default location: $HOME/.codepilot/config/codepilot.yaml

embedding:
  # Provider: "openai" or "volcengine"
  provider: openai

  # OpenAI configuration (key may also come from OPENAI_API_KEY)
  openai_api_key: your-openai-api-key
  openai_model: text-embedding-3-small
  dimensions: 1536
  batch_size: 32

  # VolcEngine configuration (alternative)
  # provider: volcengine
  # api_key: your-volcengine-api-key
  # endpoint: https://ark.cn-beijing.volces.com/api/v3
  # model: doubao-embedding-vision-250615
  # dimensions: 2048
  # batch_size: 10

chunking:
  window: 80
  overlap: 15
  min_lines: 10

search:
  default_top_k: 5
  oversample_factor: 5
  query_cache_size: 100
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
