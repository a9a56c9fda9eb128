package internal

import (
	"fmt"
	"os"

	"github.com/DreamCats/codepilot/internal/config"
)

// LoadConfig reads the YAML config from configPath, or from the
// default location when empty.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// PrintConfigExample writes a minimal working configuration to stderr.
func PrintConfigExample() {
	homeDir, _ := os.UserHomeDir()
	configPath := fmt.Sprintf("%s/.codepilot/config/codepilot.yaml", homeDir)

	fmt.Fprintf(os.Stderr, `Create a configuration file at %s:

# Embedding service configuration (required)
embedding:
  # Provider: "openai" | "volcengine"
  provider: openai
  openai_api_key: your-openai-api-key
  openai_model: text-embedding-3-small
  dimensions: 1536
  batch_size: 32

# For VolcEngine provider, use:
# embedding:
#   provider: volcengine
#   api_key: your-volcengine-api-key
#   model: doubao-embedding-vision-250615
#   dimensions: 2048

# Discovery rules and chunking parameters have sensible defaults;
# see the generated template for the full list.

Usage:
  1. Create the config file
  2. Navigate to your project: cd /path/to/project
  3. Run: codepilot ingest
  4. Search: codepilot search "your query"
`, configPath)
}
