package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"host":           "server.host",
	"port":           "server.port",
	"content-dir":    "content.dir",
	"content-glob":   "content.pattern",
	"overrides-file": "migration.overrides_file",
	"id-map-file":    "migration.id_map_file",
	"db-url":         "db.url",
}

// LoadConfig loads configuration using viper.
// CLI flags > environment > config file > defaults precedence.
// flags may be nil; only flags named in flagKeys are bound.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.max_connections", def.Server.MaxConnections)
	v.SetDefault("server.request_timeout", def.Server.RequestTimeout.String())
	v.SetDefault("content.dir", def.Content.Dir)
	v.SetDefault("content.pattern", def.Content.Pattern)
	v.SetDefault("parser.cache_size", def.Parser.CacheSize)
	v.SetDefault("migration.overrides_file", "")
	v.SetDefault("migration.id_map_file", "")
	v.SetDefault("db.url", "")

	v.SetEnvPrefix("DS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			MaxConnections: v.GetInt("server.max_connections"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Content: ContentConfig{
			Dir:     v.GetString("content.dir"),
			Pattern: v.GetString("content.pattern"),
		},
		Parser: ParserConfig{CacheSize: v.GetInt("parser.cache_size")},
		Migration: MigrationConfig{
			OverridesFile: v.GetString("migration.overrides_file"),
			IDMapFile:     v.GetString("migration.id_map_file"),
		},
		DB: DBConfig{URL: v.GetString("db.url")},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive limits.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Parser.CacheSize <= 0 {
		return fmt.Errorf("parser.cache_size must be positive, got %d", cfg.Parser.CacheSize)
	}
	if cfg.Content.Pattern == "" {
		return fmt.Errorf("content.pattern must not be empty")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets. Only the
// config file is inspected; DS_HMAC_SECRET in the environment is expected.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use DS_HMAC_SECRET environment variable)")
	}
	return nil
}
