package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration knobs for the service.
type Config struct {
	HTTP struct {
		Addr         string        `mapstructure:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"http"`
	Gateway struct {
		BaseURL        string        `mapstructure:"base_url"`
		AppID          string        `mapstructure:"app_id"`
		APIKey         string        `mapstructure:"api_key"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
	} `mapstructure:"gateway"`
	Storage struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"storage"`
	Auth struct {
		Enabled   bool          `mapstructure:"enabled"`
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`
}

// Load reads the configuration from disk/environment using Viper.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("push_dispatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindSecrets(v)

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, env-only config is supported; with an
		// explicit config file viper reports a plain path error, not
		// ConfigFileNotFoundError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings dispatch cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gateway.AppID) == "" {
		return fmt.Errorf("gateway.app_id is required")
	}
	if strings.TrimSpace(c.Gateway.APIKey) == "" {
		return fmt.Errorf("gateway.api_key is required")
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")

	v.SetDefault("gateway.base_url", "https://onesignal.com/api/v1")
	v.SetDefault("gateway.request_timeout", "10s")

	v.SetDefault("storage.path", "./data/push.db")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token_ttl", "12h")
}

// bindSecrets registers the keys that have no default so AutomaticEnv
// feeds them into Unmarshal; viper only resolves env values for keys it
// already knows about.
func bindSecrets(v *viper.Viper) {
	for _, key := range []string{"gateway.app_id", "gateway.api_key", "auth.jwt_secret"} {
		_ = v.BindEnv(key)
	}
}
