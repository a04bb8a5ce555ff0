// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Graph    GraphConfig             `mapstructure:"graph"`
	Redis    RedisConfig             `mapstructure:"redis"`
	LLM      LLMConfig               `mapstructure:"llm"`
	Intent   IntentConfig            `mapstructure:"intent"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Metrics  MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// GraphConfig holds the Neo4j connection and query execution settings.
type GraphConfig struct {
	URI                string `mapstructure:"uri"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Database           string `mapstructure:"database"`
	Encrypted          bool   `mapstructure:"encrypted"`
	FetchSize          int    `mapstructure:"fetch_size"`
	QueryTimeout       int    `mapstructure:"query_timeout"`       // seconds
	ConnectionTimeout  int    `mapstructure:"connection_timeout"`  // seconds
	AcquisitionTimeout int    `mapstructure:"acquisition_timeout"` // seconds
	MaxRetries         int    `mapstructure:"max_retries"`
	RetryBackoffMs     int    `mapstructure:"retry_backoff_ms"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LLMConfig holds settings for the text-generation and embedding providers.
type LLMConfig struct {
	Provider   string `mapstructure:"provider"` // "openai" | "ollama" | "mock"
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	EmbedModel string `mapstructure:"embed_model"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
	CacheTTL   int    `mapstructure:"cache_ttl"` // seconds, 0 disables caching
}

// IntentConfig selects the extraction profile and matcher thresholds.
type IntentConfig struct {
	PreserveLiterals bool    `mapstructure:"preserve_literals"`
	MaxCandidates    int     `mapstructure:"max_candidates"`
	VectorTopK       int     `mapstructure:"vector_top_k"`
	VectorMinScore   float64 `mapstructure:"vector_min_score"`
	MinParamScore    float64 `mapstructure:"min_param_score"`
	MinFinalScore    float64 `mapstructure:"min_final_score"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the Prometheus scrape endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
