package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestHMACSecrets(t *testing.T) {
	os.Unsetenv("DS_HMAC_SECRET")
	os.Unsetenv("DS_HMAC_SECRET_1")
	os.Unsetenv("DS_HMAC_SECRET_2")

	t.Run("single secret", func(t *testing.T) {
		t.Setenv("DS_HMAC_SECRET", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 1 {
			t.Errorf("expected 1 secret, got %d", len(secrets))
		}
		if _, ok := secrets["0123456789abcdef0123456789abcdef"]; !ok {
			t.Errorf("secret_id not found in map")
		}
	})

	t.Run("multiple numbered secrets", func(t *testing.T) {
		t.Setenv("DS_HMAC_SECRET_1", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		t.Setenv("DS_HMAC_SECRET_2", "fedcba9876543210fedcba9876543210:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 2 {
			t.Errorf("expected 2 secrets, got %d", len(secrets))
		}
	})

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"invalid format", map[string]string{"DS_HMAC_SECRET": "invalid_format"}},
		{"invalid secret_id length", map[string]string{"DS_HMAC_SECRET": "short:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"}},
		{"non-hex secret_id", map[string]string{"DS_HMAC_SECRET": "0123456789abcdefGHIJKLMNOPQRSTUV:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"}},
		{"duplicate secret_id in numbered secrets", map[string]string{
			"DS_HMAC_SECRET_1": "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w",
			"DS_HMAC_SECRET_2": "0123456789abcdef0123456789abcdef:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w",
		}},
		{"duplicate secret_id between single and numbered", map[string]string{
			"DS_HMAC_SECRET":   "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w",
			"DS_HMAC_SECRET_1": "0123456789abcdef0123456789abcdef:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := HMACSecrets(); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	os.Unsetenv("DS_SERVER_HOST")
	os.Unsetenv("DS_SERVER_PORT")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("", nil)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Host != "0.0.0.0" {
			t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
		}
		if cfg.Server.Port != 50061 {
			t.Errorf("expected port 50061, got %d", cfg.Server.Port)
		}
		if cfg.Server.RequestTimeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", cfg.Server.RequestTimeout)
		}
		if cfg.Content.Dir != "./datasworn" {
			t.Errorf("expected content dir ./datasworn, got %s", cfg.Content.Dir)
		}
		if cfg.Content.Pattern != "**/*.json" {
			t.Errorf("expected content pattern **/*.json, got %s", cfg.Content.Pattern)
		}
		if cfg.Parser.CacheSize != 4096 {
			t.Errorf("expected cache size 4096, got %d", cfg.Parser.CacheSize)
		}
		if cfg.DB.URL != "" {
			t.Errorf("expected empty db url, got %s", cfg.DB.URL)
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("DS_SERVER_PORT", "9999")
		t.Setenv("DS_CONTENT_DIR", "/srv/datasworn")
		t.Setenv("DS_MIGRATION_ID_MAP_FILE", "ids.json")

		cfg, err := LoadConfig("", nil)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", cfg.Server.Port)
		}
		if cfg.Content.Dir != "/srv/datasworn" {
			t.Errorf("expected content dir /srv/datasworn, got %s", cfg.Content.Dir)
		}
		if cfg.Migration.IDMapFile != "ids.json" {
			t.Errorf("expected id map file ids.json, got %s", cfg.Migration.IDMapFile)
		}
	})

	t.Run("flag overrides environment", func(t *testing.T) {
		t.Setenv("DS_SERVER_PORT", "9999")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Int("port", 50061, "")
		flags.String("db-url", "", "")
		if err := flags.Parse([]string{"--port", "7000", "--db-url", "sqlite://:memory:"}); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadConfig("", flags)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Port != 7000 {
			t.Errorf("expected port 7000, got %d", cfg.Server.Port)
		}
		if cfg.DB.URL != "sqlite://:memory:" {
			t.Errorf("expected db url from flag, got %s", cfg.DB.URL)
		}
	})

	t.Run("unchanged flag keeps environment", func(t *testing.T) {
		t.Setenv("DS_SERVER_PORT", "9999")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Int("port", 50061, "")

		cfg, err := LoadConfig("", flags)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", cfg.Server.Port)
		}
	})

	t.Run("invalid port range", func(t *testing.T) {
		t.Setenv("DS_SERVER_PORT", "70000")

		if _, err := LoadConfig("", nil); err == nil {
			t.Error("expected error for port > 65535")
		}
	})

	t.Run("invalid cache size", func(t *testing.T) {
		t.Setenv("DS_PARSER_CACHE_SIZE", "0")

		if _, err := LoadConfig("", nil); err == nil {
			t.Error("expected error for zero cache size")
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Fatalf("LoadDotEnv failed: %v", err)
		}
	})

	t.Run("values are loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("DS_DOTENV_PROBE=from-file\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("DS_DOTENV_PROBE", "")
		os.Unsetenv("DS_DOTENV_PROBE")

		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("LoadDotEnv failed: %v", err)
		}
		if got := os.Getenv("DS_DOTENV_PROBE"); got != "from-file" {
			t.Errorf("expected from-file, got %q", got)
		}
	})

	t.Run("environment wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("DS_DOTENV_PROBE=from-file\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("DS_DOTENV_PROBE", "from-env")

		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("LoadDotEnv failed: %v", err)
		}
		if got := os.Getenv("DS_DOTENV_PROBE"); got != "from-env" {
			t.Errorf("expected from-env, got %q", got)
		}
	})
}

func TestParseHMACSecret(t *testing.T) {
	t.Run("valid base64", func(t *testing.T) {
		secret, err := ParseHMACSecret("dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		if err != nil {
			t.Fatalf("ParseHMACSecret failed: %v", err)
		}
		if len(secret) < 32 {
			t.Errorf("secret too short: %d bytes", len(secret))
		}
	})

	t.Run("invalid base64", func(t *testing.T) {
		if _, err := ParseHMACSecret("not-valid-base64!!!"); err == nil {
			t.Error("expected error for invalid base64")
		}
	})

	t.Run("secret too short", func(t *testing.T) {
		if _, err := ParseHMACSecret("c2hvcnQ="); err == nil {
			t.Error("expected error for secret < 32 bytes")
		}
	})
}

func TestParseHMACSecretWithID(t *testing.T) {
	t.Run("valid format", func(t *testing.T) {
		secretID, secret, err := ParseHMACSecretWithID("0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		if err != nil {
			t.Fatalf("ParseHMACSecretWithID failed: %v", err)
		}
		if secretID != "0123456789abcdef0123456789abcdef" {
			t.Errorf("unexpected secret_id: %s", secretID)
		}
		if len(secret) == 0 {
			t.Error("secret should not be empty")
		}
	})

	t.Run("missing colon", func(t *testing.T) {
		if _, _, err := ParseHMACSecretWithID("0123456789abcdef0123456789abcdef"); err == nil {
			t.Error("expected error for missing colon")
		}
	})

	t.Run("invalid secret_id length", func(t *testing.T) {
		if _, _, err := ParseHMACSecretWithID("tooshort:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"); err == nil {
			t.Error("expected error for short secret_id")
		}
	})
}
