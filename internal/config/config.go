package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Auth       AuthConfig       `mapstructure:"auth"`
	ShareASale ShareASaleConfig `mapstructure:"shareasale"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Tenants    []TenantConfig   `mapstructure:"tenants"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	RequireAPIKey bool   `mapstructure:"require_api_key"`
	APIKey        string `mapstructure:"api_key"`
	AdminKey      string `mapstructure:"admin_key"`
}

// ShareASaleConfig holds the affiliate credentials shared by every tenant.
type ShareASaleConfig struct {
	AffiliateID  int64   `mapstructure:"affiliate_id"`
	APIToken     string  `mapstructure:"api_token"`
	APISecretKey string  `mapstructure:"api_secret_key"`
	APIVersion   float64 `mapstructure:"api_version"`
	BaseURL      string  `mapstructure:"base_url"`
	TimeoutMs    int     `mapstructure:"timeout_ms"`
}

func (c ShareASaleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

type QuotaConfig struct {
	MonthlyLimit int `mapstructure:"monthly_limit"` // 0 disables the check
}

type DatabaseConfig struct {
	DSN                string `mapstructure:"dsn"`
	AuditRetentionDays int    `mapstructure:"audit_retention_days"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type AuditConfig struct {
	Dir        string `mapstructure:"dir"`
	BufferSize int    `mapstructure:"buffer_size"`
}

// RateLimitConfig leaves QPS nil when the key is absent; an explicit 0 means
// no limit.
type RateLimitConfig struct {
	QPS   *float64 `mapstructure:"qps"`
	Burst int      `mapstructure:"burst"`
}

type TenantConfig struct {
	ID        string          `mapstructure:"id"`
	Name      string          `mapstructure:"name"`
	APIKey    string          `mapstructure:"api_key"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("auth.require_api_key", false)
	v.SetDefault("shareasale.base_url", "https://shareasale.com/x.cfm")
	v.SetDefault("shareasale.api_version", 2.3)
	v.SetDefault("shareasale.timeout_ms", 30000)
	v.SetDefault("quota.monthly_limit", 0)
	v.SetDefault("database.audit_retention_days", 30)
	v.SetDefault("redis.key_prefix", "sasgate")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("audit.dir", "./logs")
	v.SetDefault("audit.buffer_size", 1000)
}

// Load reads config.yaml from . or ./configs, overridden by SASGATE_* env vars
// (e.g. SASGATE_SHAREASALE_API_TOKEN).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	return load(v)
}

// LoadFile reads an explicit config file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("sasgate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{
		"shareasale.affiliate_id",
		"shareasale.api_token",
		"shareasale.api_secret_key",
		"auth.api_key",
		"auth.admin_key",
		"redis.addr",
		"redis.password",
		"database.dsn",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the gateway cannot start without.
func (c *Config) Validate() error {
	if c.ShareASale.AffiliateID <= 0 {
		return fmt.Errorf("shareasale.affiliate_id is required")
	}
	if strings.TrimSpace(c.ShareASale.APIToken) == "" {
		return fmt.Errorf("shareasale.api_token is required")
	}
	if strings.TrimSpace(c.ShareASale.APISecretKey) == "" {
		return fmt.Errorf("shareasale.api_secret_key is required")
	}
	if c.ShareASale.APIVersion <= 0 {
		return fmt.Errorf("shareasale.api_version must be positive")
	}
	if c.Quota.MonthlyLimit < 0 {
		return fmt.Errorf("quota.monthly_limit must not be negative")
	}
	seen := make(map[string]string, len(c.Tenants))
	for _, t := range c.Tenants {
		if t.ID == "" || t.APIKey == "" {
			return fmt.Errorf("tenant entries need id and api_key")
		}
		if t.RateLimit.QPS != nil && *t.RateLimit.QPS < 0 {
			return fmt.Errorf("tenant %s: rate_limit.qps must not be negative", t.ID)
		}
		if other, ok := seen[t.APIKey]; ok {
			return fmt.Errorf("tenants %s and %s share an api_key", other, t.ID)
		}
		seen[t.APIKey] = t.ID
	}
	return nil
}
