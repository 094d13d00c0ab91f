package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Assess AssessConfig `yaml:"assess" mapstructure:"assess"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AssessConfig configures the assessment pipeline.
type AssessConfig struct {
	StageTimeoutSecs      int     `yaml:"stage_timeout_secs" mapstructure:"stage_timeout_secs"`
	HistoryCapacity       int     `yaml:"history_capacity" mapstructure:"history_capacity"`
	LongHaulKm            float64 `yaml:"long_haul_km" mapstructure:"long_haul_km"`
	BulkThresholdKg       float64 `yaml:"bulk_threshold_kg" mapstructure:"bulk_threshold_kg"`
	ComparableWindowHours int     `yaml:"comparable_window_hours" mapstructure:"comparable_window_hours"`
}

// StageTimeout returns the per-request fan-out deadline.
func (a AssessConfig) StageTimeout() time.Duration {
	return time.Duration(a.StageTimeoutSecs) * time.Second
}

// ComparableWindow returns the lookback window for market comparables.
func (a AssessConfig) ComparableWindow() time.Duration {
	return time.Duration(a.ComparableWindowHours) * time.Hour
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port          int     `yaml:"port" mapstructure:"port"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
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
	v.SetEnvPrefix("FRESHLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "freshline.db")
	v.SetDefault("assess.stage_timeout_secs", 2)
	v.SetDefault("assess.history_capacity", 1000)
	v.SetDefault("assess.long_haul_km", 600)
	v.SetDefault("assess.bulk_threshold_kg", 500)
	v.SetDefault("assess.comparable_window_hours", 72)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 20)
	v.SetDefault("server.rate_burst", 40)
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
