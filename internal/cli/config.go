// Package cli provides shared configuration and rendering for the bullet4go CLI.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ammar0144/bullet4go/pkg/association"
	"github.com/ammar0144/bullet4go/pkg/redis"

	"github.com/spf13/viper"
)

// Config represents the CLI configuration from bullet4go.yaml
type Config struct {
	Redis     redis.Config       `json:"redis" mapstructure:"redis"`
	Detection association.Config `json:"detection" mapstructure:"detection"`
	Log       LogConfig          `json:"log" mapstructure:"log"`
}

// LogConfig controls CLI logging
type LogConfig struct {
	Level       string `json:"level" mapstructure:"level"`
	Development bool   `json:"development" mapstructure:"development"`
}

const redactedSecret = "********"

// Redacted returns a copy of the config with secrets masked for display
func (c Config) Redacted() Config {
	if c.Redis.Password != "" {
		c.Redis.Password = redactedSecret
	}
	if c.Redis.Cluster.Password != "" {
		c.Redis.Cluster.Password = redactedSecret
	}
	return c
}

// LoadConfig loads configuration with precedence env > config file > defaults.
// Returns the config and the path of the file read (empty if none).
func LoadConfig(explicitPath string) (*Config, string, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BULLET4GO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := findConfigFile(explicitPath)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, path, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, path, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Redis.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid redis config: %w", err)
	}
	if err := cfg.Detection.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid detection config: %w", err)
	}
	return &cfg, path, nil
}

func setDefaults(v *viper.Viper) {
	r := redis.DefaultConfig()
	v.SetDefault("redis.enabled", r.Enabled)
	v.SetDefault("redis.key_prefix", r.KeyPrefix)
	v.SetDefault("redis.report_ttl", r.ReportTTL)
	v.SetDefault("redis.max_recent", r.MaxRecent)
	v.SetDefault("redis.store_clean", r.StoreClean)
	v.SetDefault("redis.host", r.Host)
	v.SetDefault("redis.port", r.Port)
	v.SetDefault("redis.password", r.Password)
	v.SetDefault("redis.database", r.Database)
	v.SetDefault("redis.pool_size", r.PoolSize)
	v.SetDefault("redis.min_idle_conns", r.MinIdleConns)
	v.SetDefault("redis.max_conn_age", r.MaxConnAge)
	v.SetDefault("redis.pool_timeout", r.PoolTimeout)
	v.SetDefault("redis.idle_timeout", r.IdleTimeout)
	v.SetDefault("redis.read_timeout", r.ReadTimeout)
	v.SetDefault("redis.write_timeout", r.WriteTimeout)
	v.SetDefault("redis.dial_timeout", r.DialTimeout)
	v.SetDefault("redis.cluster.enabled", false)

	d := association.DefaultConfig()
	v.SetDefault("detection.enabled", d.Enabled)
	v.SetDefault("detection.min_objects", d.MinObjects)
	v.SetDefault("detection.detect_unused_eager_loading", d.DetectUnusedEagerLoading)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// findConfigFile returns explicitPath if it exists, otherwise bullet4go.yaml
// or bullet4go.yml in the working directory, or "" when neither is present
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	for _, name := range []string{"bullet4go.yaml", "bullet4go.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}
