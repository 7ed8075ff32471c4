package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log         Logger            `mapstructure:"logger"`
	DB          Database          `mapstructure:"database"`
	API         API               `mapstructure:"api"`
	Monitor     Monitor           `mapstructure:"monitor"`
	CoinGecko   CoinGecko         `mapstructure:"coingecko"`
	Cache       Cache             `mapstructure:"cache"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port           int     `mapstructure:"port"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type Monitor struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	BackoffInterval time.Duration `mapstructure:"backoff_interval"`
}

type CoinGecko struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRequestPerMin int           `mapstructure:"max_request_per_min"`
	MarketsPerPage   int           `mapstructure:"markets_per_page"`
	MarketsCacheTTL  time.Duration `mapstructure:"markets_cache_ttl"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type MaintenanceConfig struct {
	PruneSchedule       string        `mapstructure:"prune_schedule"`
	RefreshSchedule     string        `mapstructure:"refresh_schedule"`
	MarketDataRetention time.Duration `mapstructure:"market_data_retention"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, env vars and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")

	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.rate_limit_rps", 10)
	viper.SetDefault("api.rate_limit_burst", 30)

	viper.SetDefault("monitor.poll_interval", 10*time.Second)
	viper.SetDefault("monitor.backoff_interval", 30*time.Second)

	viper.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	viper.SetDefault("coingecko.timeout", 10*time.Second)
	viper.SetDefault("coingecko.max_request_per_min", 30)
	viper.SetDefault("coingecko.markets_per_page", 100)
	viper.SetDefault("coingecko.markets_cache_ttl", 5*time.Minute)

	viper.SetDefault("cache.default_expiration", 5*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 10*time.Minute)

	viper.SetDefault("maintenance.prune_schedule", "0 * * * *")
	viper.SetDefault("maintenance.refresh_schedule", "*/15 * * * *")
	viper.SetDefault("maintenance.market_data_retention", 24*time.Hour)

	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.log_level", "Warn")
}
