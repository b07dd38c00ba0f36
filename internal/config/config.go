package config

import (
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Port string `mapstructure:"port"`

	// Auth
	APIKey      string   `mapstructure:"brandgest_api_key"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Anthropic
	AnthropicAPIKey      string  `mapstructure:"anthropic_api_key"`
	AnthropicModel       string  `mapstructure:"anthropic_model"`
	LLMRequestsPerSecond float64 `mapstructure:"llm_requests_per_second"`

	// Question answering over the uploaded questionnaire
	AnswerModel          string  `mapstructure:"qa_model"`
	AnswerTemperature    float64 `mapstructure:"qa_temperature"`
	AnswerMaxTokens      int64   `mapstructure:"qa_max_tokens"`
	RetrievalTopK        int     `mapstructure:"retrieval_top_k"`
	MaxConcurrentAnswers int     `mapstructure:"max_concurrent_answers"`

	// Strategy narrative
	StrategyModel       string  `mapstructure:"strategy_model"`
	StrategyTemperature float64 `mapstructure:"strategy_temperature"`
	StrategyMaxTokens   int64   `mapstructure:"strategy_max_tokens"`

	// Worker pool
	WorkerCount  int `mapstructure:"worker_count"`
	MaxQueueSize int `mapstructure:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `mapstructure:"job_ttl"`

	// Questionnaire catalog; empty uses the built-in brand questionnaire.
	CatalogPath string `mapstructure:"catalog_path"`

	// PDF
	PDFFallbackPdftotext bool `mapstructure:"pdf_fallback_pdftotext"`

	// Strategy archive (optional)
	PathstoreURL    string `mapstructure:"pathstore_url"`
	PathstoreAPIKey string `mapstructure:"pathstore_api_key"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"port":                    "8090",
	"brandgest_api_key":       "",
	"cors_origins":            []string{"*"},
	"anthropic_api_key":       "",
	"anthropic_model":         "claude-sonnet-4-5-20250929",
	"llm_requests_per_second": 5.0,
	"qa_model":                "claude-haiku-4-5-20251001",
	"qa_temperature":          0.0,
	"qa_max_tokens":           4000,
	"retrieval_top_k":         1,
	"max_concurrent_answers":  4,
	"strategy_model":          "claude-sonnet-4-5-20250929",
	"strategy_temperature":    0.05,
	"strategy_max_tokens":     3000,
	"worker_count":            2,
	"max_queue_size":          50,
	"max_upload_bytes":        10485760, // 10MB
	"job_ttl":                 "1h",
	"catalog_path":            "",
	"pdf_fallback_pdftotext":  true,
	"pathstore_url":           "",
	"pathstore_api_key":       "",
	"log_level":               "info",
	"log_format":              "json",
}

// Load reads defaults, then an optional config file, then the environment.
// An empty path looks for brandgest.yaml in the working directory.
func Load(path string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("brandgest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "config: unmarshal")
	}
	cfg.applyFallbacks()
	return cfg, nil
}

func (c *Config) applyFallbacks() {
	if c.Port == "" {
		c.Port = "8090"
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 2
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 50
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 10485760
	}
	if c.JobTTL <= 0 {
		c.JobTTL = time.Hour
	}
	if c.RetrievalTopK <= 0 {
		c.RetrievalTopK = 1
	}
	if c.MaxConcurrentAnswers <= 0 {
		c.MaxConcurrentAnswers = 4
	}
	if c.AnswerMaxTokens <= 0 {
		c.AnswerMaxTokens = 4000
	}
	if c.StrategyMaxTokens <= 0 {
		c.StrategyMaxTokens = 3000
	}
	if c.AnswerModel == "" {
		c.AnswerModel = c.AnthropicModel
	}
	if c.StrategyModel == "" {
		c.StrategyModel = c.AnthropicModel
	}
}

// Validate checks the settings the HTTP service cannot run without.
func (c Config) Validate() error {
	if c.AnthropicAPIKey == "" {
		return eris.New("ANTHROPIC_API_KEY is required")
	}
	if c.APIKey == "" {
		return eris.New("BRANDGEST_API_KEY is required")
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return eris.New("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	return nil
}

// InitLogger builds a zap logger for the configured level and format
// ("json" or "console").
func InitLogger(level, format string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	return logger, nil
}
