// Package config loads sidecar settings from a config file, a .env file and
// LUCID_ environment variables, in rising order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/LostLucidity/lucid-ai-sub002/rules"
)

const envPrefix = "LUCID"

type Config struct {
	Socket     SocketConfig     `mapstructure:"socket"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Plan       PlanConfig       `mapstructure:"plan"`
	Strategist StrategistConfig `mapstructure:"strategist"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Journal    JournalConfig    `mapstructure:"journal"`
	Macro      rules.Doctrine   `mapstructure:"macro"`
}

type SocketConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// PlanConfig locates build orders. Dir is read in addition to the embedded
// orders; Default names the fallback order when no selector matches.
// TickInterval is the minimum number of game loops between planning passes.
type PlanConfig struct {
	Dir          string `mapstructure:"dir"`
	Default      string `mapstructure:"default"`
	Catalog      string `mapstructure:"catalog"`
	TickInterval uint32 `mapstructure:"tick_interval" validate:"min=1"`
}

// StrategistConfig sets how often, in game loops, the build order is
// re-selected without an event.
type StrategistConfig struct {
	Interval uint32 `mapstructure:"interval" validate:"min=1"`
}

// LoadConfig reads path, or config.yaml from the usual places when path is
// empty. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/lucid")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	SetDefaults(&cfg)
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// bindEnv registers every key so AutomaticEnv finds it during Unmarshal
// even when no config file mentions it.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"socket.path",
		"logging.level", "logging.format", "logging.output", "logging.file_path",
		"plan.dir", "plan.default", "plan.catalog", "plan.tick_interval",
		"strategist.interval",
		"metrics.enabled", "metrics.host", "metrics.port", "metrics.path",
		"journal.enabled", "journal.type", "journal.path", "journal.url",
		"macro.name", "macro.economy_priority", "macro.aggression",
		"macro.gas_ratio", "macro.worker_gas_ratio", "macro.supply_buffer", "macro.mule_energy",
	} {
		_ = v.BindEnv(key)
	}
}

// Default is the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	SetDefaults(cfg)
	return cfg
}
