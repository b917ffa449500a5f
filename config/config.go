package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Log      LogConfig      `mapstructure:"log"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Notify   NotifyConfig   `mapstructure:"notifications"`
}

// NotifyConfig configures the outbound notification webhook. An empty URL
// disables notifications.
type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// GatewayConfig defines the real-time gateway the relay pushes updates to.
type GatewayConfig struct {
	URL            string        `mapstructure:"url"`
	Channel        string        `mapstructure:"channel"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type TradingConfig struct {
	Symbols             []string `mapstructure:"symbols"`
	ScoutRetentionHours int      `mapstructure:"scout_retention_hours"`
}

// JobsConfig holds the cron schedules of the periodic batch jobs.
type JobsConfig struct {
	RatioSync      string `mapstructure:"ratio_sync"`
	ValueRetention string `mapstructure:"value_retention"`
	ScoutRetention string `mapstructure:"scout_retention"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Support environment variables with dot notation (e.g., GATEWAY_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("gateway.connect_timeout", 5*time.Second)
	v.SetDefault("trading.scout_retention_hours", 1)
	v.SetDefault("jobs.ratio_sync", "@every 1m")
	v.SetDefault("jobs.value_retention", "@hourly")
	v.SetDefault("jobs.scout_retention", "@hourly")
	v.SetDefault("notifications.timeout", 10*time.Second)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}
