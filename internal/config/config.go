package config

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/payasparab/addressmatcher/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig             `yaml:"store" mapstructure:"store"`
	Match   MatchConfig             `yaml:"match" mapstructure:"match"`
	Sources map[string]SourceConfig `yaml:"sources" mapstructure:"sources" validate:"dive"`
	Metrics MetricsConfig           `yaml:"metrics" mapstructure:"metrics"`
	Log     LogConfig               `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run store backend.
type StoreConfig struct {
	Driver         string `yaml:"driver" mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url" validate:"required"`
	RetryAttempts  int    `yaml:"retry_attempts" mapstructure:"retry_attempts" validate:"gte=1"`
	RetryBackoffMs int    `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms" validate:"gte=0"`
}

// RetryPolicy returns the retry policy for candidate writes.
func (s StoreConfig) RetryPolicy() resilience.Policy {
	return resilience.NewPolicy(s.RetryAttempts, time.Duration(s.RetryBackoffMs)*time.Millisecond)
}

// MatchConfig configures the resolution engine.
type MatchConfig struct {
	Threshold        float64 `yaml:"threshold" mapstructure:"threshold" validate:"gte=0,lte=100"`
	Workers          int     `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
	BlockTimeoutSecs int     `yaml:"block_timeout_secs" mapstructure:"block_timeout_secs" validate:"gte=0"`
	Method           string  `yaml:"method" mapstructure:"method" validate:"oneof=indel levenshtein jaro_winkler"`
	VetoThreshold    float64 `yaml:"veto_threshold" mapstructure:"veto_threshold" validate:"gt=0,lte=1"`
	WeightsFile      string  `yaml:"weights_file" mapstructure:"weights_file"`
}

// BlockTimeout returns the per-block deadline, zero when disabled.
func (m MatchConfig) BlockTimeout() time.Duration {
	return time.Duration(m.BlockTimeoutSecs) * time.Second
}

// SourceConfig overrides how one labeled source is loaded and stitched.
type SourceConfig struct {
	Kind     string `yaml:"kind" mapstructure:"kind" validate:"omitempty,oneof=storefront marketplace erp shopify amazon netsuite"`
	IDColumn string `yaml:"id_column" mapstructure:"id_column"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" mapstructure:"textfile_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return eris.Wrap(err, "config: validate")
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
		}
		return eris.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "matches.db")
	v.SetDefault("store.retry_attempts", 3)
	v.SetDefault("store.retry_backoff_ms", 200)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("match.threshold", 60.0)
	v.SetDefault("match.workers", 4)
	v.SetDefault("match.block_timeout_secs", 0)
	v.SetDefault("match.method", "indel")
	v.SetDefault("match.veto_threshold", 0.70)
	v.SetDefault("match.weights_file", "")
	v.SetDefault("metrics.textfile_path", "")

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
