package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"live-dashboard/internal/logging"
)

const (
	envPrefix = "LIVEDASH"

	minRefreshInterval = 10 * time.Second
	maxRefreshInterval = 120 * time.Second
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Server   ServerConfig   `mapstructure:"server"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// CryptoConfig covers the CoinGecko price source.
type CryptoConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Coins          []string      `mapstructure:"coins"`
	Currency       string        `mapstructure:"currency"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// WeatherConfig covers the Open-Meteo source.
type WeatherConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Latitude       float64       `mapstructure:"latitude"`
	Longitude      float64       `mapstructure:"longitude"`
	WindSpeedUnit  string        `mapstructure:"wind_speed_unit"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// RefreshConfig seeds the auto-refresh controls of both pages.
type RefreshConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig encapsulates redis connectivity.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	Prefix      string        `mapstructure:"prefix"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// BreakerConfig tunes the fetcher circuit breaker.
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

// AlertingConfig routes fallback warnings.
type AlertingConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the optional Telegram channel.
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ServerConfig sets the serve mode listener.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// TracingConfig enables span export.
type TracingConfig struct {
	ZipkinEndpoint string  `mapstructure:"zipkin_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// ExportConfig sets chart output behaviour.
type ExportConfig struct {
	ChartWidth  int `mapstructure:"chart_width"`
	ChartHeight int `mapstructure:"chart_height"`
}

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// A missing file is not an error; existing variables are never overridden.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "live-dashboard")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.stderr", true)

	v.SetDefault("crypto.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("crypto.coins", []string{"bitcoin", "ethereum"})
	v.SetDefault("crypto.currency", "usd")
	v.SetDefault("crypto.cache_ttl", "300s")
	v.SetDefault("crypto.request_timeout", "10s")
	v.SetDefault("crypto.user_agent", "msudenver-dataviz-class/1.0")

	v.SetDefault("weather.base_url", "https://api.open-meteo.com/v1")
	v.SetDefault("weather.latitude", 39.7392)
	v.SetDefault("weather.longitude", -104.9903)
	v.SetDefault("weather.wind_speed_unit", "ms")
	v.SetDefault("weather.cache_ttl", "600s")
	v.SetDefault("weather.request_timeout", "10s")
	v.SetDefault("weather.user_agent", "msudenver-dataviz-class/1.0")

	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.interval", "30s")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "livedash")
	v.SetDefault("cache.redis.dial_timeout", "5s")

	v.SetDefault("breaker.enabled", false)
	v.SetDefault("breaker.failure_threshold", 3)
	v.SetDefault("breaker.open_timeout", "60s")

	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "10s")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("tracing.service_name", "live-dashboard")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("export.chart_width", 1280)
	v.SetDefault("export.chart_height", 720)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if len(c.Crypto.Coins) == 0 {
		return fmt.Errorf("crypto.coins must list at least one coin")
	}
	if c.Crypto.Currency == "" {
		return fmt.Errorf("crypto.currency must be set")
	}
	if c.Crypto.CacheTTL <= 0 {
		return fmt.Errorf("crypto.cache_ttl must be greater than zero")
	}
	if c.Weather.CacheTTL <= 0 {
		return fmt.Errorf("weather.cache_ttl must be greater than zero")
	}
	if c.Crypto.RequestTimeout <= 0 || c.Weather.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be greater than zero")
	}
	if c.Weather.Latitude < -90 || c.Weather.Latitude > 90 {
		return fmt.Errorf("weather.latitude %v out of range", c.Weather.Latitude)
	}
	if c.Weather.Longitude < -180 || c.Weather.Longitude > 180 {
		return fmt.Errorf("weather.longitude %v out of range", c.Weather.Longitude)
	}
	if c.Refresh.Interval < minRefreshInterval || c.Refresh.Interval > maxRefreshInterval {
		return fmt.Errorf("refresh.interval must be between %s and %s", minRefreshInterval, maxRefreshInterval)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr must be set for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q is not one of memory, redis", c.Cache.Backend)
	}
	if c.Breaker.Enabled && c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("breaker.failure_threshold must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token must be set")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id must be set")
		}
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within 0..1")
	}
	return nil
}

// ChartSize returns the configured chart dimensions.
func (c *Config) ChartSize() (int, int) {
	return c.Export.ChartWidth, c.Export.ChartHeight
}
