// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like GRAPH_URI, LLM_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if not found
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from the working directory and a few parents so
// tools and tests can run from nested directories.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "gias-workers"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Camunda.BrokerAddress == "" {
		cfg.Camunda.BrokerAddress = "localhost:26500"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}

	if cfg.Graph.URI == "" {
		cfg.Graph.URI = "bolt://localhost:7687"
	}
	if cfg.Graph.FetchSize == 0 {
		cfg.Graph.FetchSize = 2000
	}
	if cfg.Graph.QueryTimeout == 0 {
		cfg.Graph.QueryTimeout = 15
	}
	if cfg.Graph.ConnectionTimeout == 0 {
		cfg.Graph.ConnectionTimeout = 10
	}
	if cfg.Graph.AcquisitionTimeout == 0 {
		cfg.Graph.AcquisitionTimeout = 10
	}
	if cfg.Graph.MaxRetries == 0 {
		cfg.Graph.MaxRetries = 2
	}
	if cfg.Graph.RetryBackoffMs == 0 {
		cfg.Graph.RetryBackoffMs = 500
	}

	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.EmbedModel == "" {
		cfg.LLM.EmbedModel = "text-embedding-3-small"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30000
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 2
	}

	if cfg.Intent.MaxCandidates == 0 {
		cfg.Intent.MaxCandidates = 5
	}
	if cfg.Intent.VectorTopK == 0 {
		cfg.Intent.VectorTopK = 10
	}
	if cfg.Intent.VectorMinScore == 0 {
		cfg.Intent.VectorMinScore = 0.75
	}
	if cfg.Intent.MinParamScore == 0 {
		cfg.Intent.MinParamScore = 0.35
	}
	if cfg.Intent.MinFinalScore == 0 {
		cfg.Intent.MinFinalScore = 0.55
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9464"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Graph.URI == "" {
		return fmt.Errorf("graph.uri is required")
	}
	switch cfg.LLM.Provider {
	case "openai", "ollama", "mock":
	default:
		return fmt.Errorf("llm.provider must be openai, ollama, or mock, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("llm.api_key or OPENAI_API_KEY is required for the openai provider")
	}
	return nil
}
