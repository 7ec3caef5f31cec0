package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr          string        `mapstructure:"HTTP_ADDR"`
	FeedPort          int           `mapstructure:"FEED_PORT"`
	ArchiveDir        string        `mapstructure:"ARCHIVE_DIR"`
	ArchiveQueueSize  int           `mapstructure:"ARCHIVE_QUEUE_SIZE"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int           `mapstructure:"REDIS_DB"`
	PostgresDSN       string        `mapstructure:"POSTGRES_DSN"`
	NatsURL           string        `mapstructure:"NATS_URL"`
	SimScale          int           `mapstructure:"SIM_SCALE"`
	PriceTickInterval time.Duration `mapstructure:"PRICE_TICK_INTERVAL"`
	StartingCash      float64       `mapstructure:"STARTING_CASH"`
	SnapshotTTL       time.Duration `mapstructure:"SNAPSHOT_TTL"`
	OrderRateLimit    time.Duration `mapstructure:"ORDER_RATE_LIMIT"`
}

// LoadConfig reads app.env if present and falls back to environment
// variables. Redis, Postgres and NATS are optional: an empty address disables
// the corresponding adapter.
func LoadConfig() (config Config, err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("app")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("FEED_PORT", 5000)
	viper.SetDefault("ARCHIVE_DIR", "trades_archive")
	viper.SetDefault("ARCHIVE_QUEUE_SIZE", 1024)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("POSTGRES_DSN", "")
	viper.SetDefault("NATS_URL", "")
	viper.SetDefault("SIM_SCALE", 60)
	viper.SetDefault("PRICE_TICK_INTERVAL", 2*time.Second)
	viper.SetDefault("STARTING_CASH", 100_000.0)
	viper.SetDefault("SNAPSHOT_TTL", 2*time.Second)
	viper.SetDefault("ORDER_RATE_LIMIT", 100*time.Millisecond)

	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	}
	if err != nil {
		return Config{}, err
	}
	err = viper.Unmarshal(&config)
	return
}
