package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig configures the model API client.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	// RequestsPerSecond caps outbound calls client-side. 0 disables the cap.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// EnrichConfig configures batch enrichment.
type EnrichConfig struct {
	Concurrency     int      `yaml:"concurrency" mapstructure:"concurrency"`
	MaxRetries      int      `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelayMs     int      `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs      int      `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	SubjectColumn   string   `yaml:"subject_column" mapstructure:"subject_column"`
	PartitionColumn string   `yaml:"partition_column" mapstructure:"partition_column"`
	Mode            string   `yaml:"mode" mapstructure:"mode"`
	Columns         []string `yaml:"columns" mapstructure:"columns"`
	ChainFormat     string   `yaml:"chain_format" mapstructure:"chain_format"`
	TemplatesFile   string   `yaml:"templates_file" mapstructure:"templates_file"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 150)
	v.SetDefault("anthropic.temperature", 0.7)
	v.SetDefault("anthropic.requests_per_second", 0)
	v.SetDefault("enrich.concurrency", 15)
	v.SetDefault("enrich.max_retries", 5)
	v.SetDefault("enrich.base_delay_ms", 1000)
	v.SetDefault("enrich.max_delay_ms", 60000)
	v.SetDefault("enrich.subject_column", "Statement (What)")
	v.SetDefault("enrich.partition_column", "Disease State")
	v.SetDefault("enrich.mode", "flat")
	v.SetDefault("enrich.columns", []string{"Prompt 1", "Prompt 2", "Prompt 3"})
	v.SetDefault("enrich.chain_format", "")
	v.SetDefault("enrich.templates_file", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is "enrich" or "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Enrich.Concurrency < 1 || c.Enrich.Concurrency > 100 {
		problems = append(problems, "enrich.concurrency must be between 1 and 100")
	}
	if c.Enrich.MaxRetries < 1 {
		problems = append(problems, "enrich.max_retries must be >= 1")
	}
	if c.Enrich.BaseDelayMs < 0 || c.Enrich.MaxDelayMs < 0 {
		problems = append(problems, "enrich delays must be >= 0")
	}
	if c.Enrich.SubjectColumn == "" {
		problems = append(problems, "enrich.subject_column is required")
	}
	if n := len(c.Enrich.Columns); n != 0 && n != 3 {
		problems = append(problems, fmt.Sprintf("enrich.columns must name 3 columns, got %d", n))
	}
	if c.Anthropic.MaxTokens < 1 {
		problems = append(problems, "anthropic.max_tokens must be > 0")
	}

	switch mode {
	case "enrich":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.MaxUploadMB <= 0 {
			problems = append(problems, "server.max_upload_mb must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
