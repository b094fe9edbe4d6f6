package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultProxyURL is the remote endpoint that executes composed requests on our behalf.
const DefaultProxyURL = "https://mini-postman-be.vercel.app"

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	ProxyURL               string        `mapstructure:"proxy_url"`
	DispatchTimeoutSeconds int64         `mapstructure:"dispatch_timeout_seconds"`
	DispatchTimeout        time.Duration `mapstructure:"-"`

	CredentialStore string `mapstructure:"credential_store"`
	BBoltPath       string `mapstructure:"bbolt_path"`
	CredentialKey   string `mapstructure:"credential_key"`

	PublishersFile string `mapstructure:"publishers_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "mini-postman")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "./data/mini-postman.log")
	v.SetDefault("proxy_url", DefaultProxyURL)
	v.SetDefault("dispatch_timeout_seconds", 0) // no timeout
	v.SetDefault("credential_store", "bbolt")
	v.SetDefault("bbolt_path", "./data/credentials.db")
	v.SetDefault("credential_key", "token")
	v.SetDefault("publishers_file", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize trims values, validates them and derives durations.
func (c *Config) normalize() error {
	c.ProxyURL = strings.TrimSpace(c.ProxyURL)
	u, err := url.Parse(c.ProxyURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid proxy_url %q (must be an absolute http(s) URL)", c.ProxyURL)
	}

	if c.DispatchTimeoutSeconds < 0 {
		return fmt.Errorf("invalid dispatch_timeout_seconds (must be zero or positive seconds)")
	}
	c.DispatchTimeout = time.Duration(c.DispatchTimeoutSeconds) * time.Second

	c.CredentialKey = strings.TrimSpace(c.CredentialKey)
	if c.CredentialKey == "" {
		return fmt.Errorf("credential_key must not be empty")
	}

	c.CredentialStore = strings.ToLower(strings.TrimSpace(c.CredentialStore))
	c.PublishersFile = strings.TrimSpace(c.PublishersFile)
	return nil
}
