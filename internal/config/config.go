package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	AI struct {
		Provider      string `yaml:"provider"`
		Model         string `yaml:"model"`
		APIKey        string `yaml:"api_key"`
		MaxConcurrent int64  `yaml:"max_concurrent"`
		MaxAttempts   int    `yaml:"max_attempts"`
		BackoffMS     int    `yaml:"backoff_ms"`
	} `yaml:"ai"`
	Cache struct {
		Path string `yaml:"path"`
	} `yaml:"cache"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
}

// LoadConfig reads the YAML config, falling back to defaults when the file
// is missing, then applies .env and environment overrides.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	var cfg Config
	cfg.applyDefaults()

	// 2. Load YAML config; a missing file keeps the defaults
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, err
		}
		cfg.applyDefaults()
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if apiKey := os.Getenv("DOCGEN_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("DOCGEN_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("DOCGEN_AI_MODEL"); model != "" {
		cfg.AI.Model = model
	}
	if v := os.Getenv("DOCGEN_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.AI.MaxConcurrent = n
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Project.Root == "" {
		c.Project.Root = "."
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.0-flash"
	}
	if c.AI.MaxConcurrent <= 0 {
		c.AI.MaxConcurrent = 4
	}
	if c.AI.MaxAttempts <= 0 {
		c.AI.MaxAttempts = 3
	}
	if c.AI.BackoffMS <= 0 {
		c.AI.BackoffMS = 500
	}
	if c.Cache.Path == "" {
		c.Cache.Path = ".docgen/cache.json"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = ".docgen/model.db"
	}
}
