package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Etsy     EtsyConfig     `mapstructure:"etsy"`
	Listing  ListingConfig  `mapstructure:"listing"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EtsyConfig holds Etsy Open API configuration.
// API credentials are per application; access tokens are per user and live in Redis.
type EtsyConfig struct {
	APIBaseURL           string   `mapstructure:"api_base_url"`
	AuthURL              string   `mapstructure:"auth_url"`
	APIKey               string   `mapstructure:"api_key"`
	SharedSecret         string   `mapstructure:"shared_secret"`
	RedirectURI          string   `mapstructure:"redirect_uri"`
	Scopes               []string `mapstructure:"scopes"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRetries           int      `mapstructure:"max_retries"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	QuotaCooldown        int      `mapstructure:"quota_cooldown"`
	Proxies              []string `mapstructure:"proxies"`
}

// ListingConfig tunes the listing options load cycle
type ListingConfig struct {
	FetchTimeout int `mapstructure:"fetch_timeout"`
}

func (l ListingConfig) FetchTimeoutDuration() time.Duration {
	return time.Duration(l.FetchTimeout) * time.Second
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	StreamMaxLen  int64  `mapstructure:"stream_max_len"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load loads configuration from config.yaml in the current directory with environment variable overrides
func Load() (*Config, error) {
	return load(".")
}

func load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.yaml file not found in %v", paths)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.Etsy.APIKey == "" {
		return nil, fmt.Errorf("etsy.api_key is required")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")

	v.SetDefault("etsy.api_base_url", "https://api.etsy.com")
	v.SetDefault("etsy.auth_url", "https://www.etsy.com/oauth/connect")
	v.SetDefault("etsy.api_key", "")
	v.SetDefault("etsy.shared_secret", "")
	v.SetDefault("etsy.redirect_uri", "http://localhost:8080/api/etsy/callback")
	v.SetDefault("etsy.scopes", []string{"listings_r", "listings_w", "shops_r"})
	v.SetDefault("etsy.timeout", 30)
	v.SetDefault("etsy.max_retries", 3)
	v.SetDefault("etsy.max_requests_per_second", 10)
	v.SetDefault("etsy.quota_cooldown", 1800)

	v.SetDefault("listing.fetch_timeout", 15)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "lister")
	v.SetDefault("database.user", "lister_user")
	v.SetDefault("database.password", "lister_pass")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "lister_uploaders")
	v.SetDefault("redis.stream_max_len", 10000)
}
