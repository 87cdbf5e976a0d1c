package config

import (
	"os"
	"testing"
)

// TestAcceptanceCriteria verifies the secret-handling and precedence guarantees.
func TestAcceptanceCriteria(t *testing.T) {
	t.Run("AC1: Environment variable DS_HMAC_SECRET accessible via HMACSecrets", func(t *testing.T) {
		t.Setenv("DS_HMAC_SECRET", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("AC1 FAIL: HMACSecrets error: %v", err)
		}
		if _, ok := secrets["0123456789abcdef0123456789abcdef"]; !ok {
			t.Fatal("AC1 FAIL: Secret not accessible")
		}

		// A secret in the environment must not trip the config-file check
		if _, err := LoadConfig("", nil); err != nil {
			t.Fatalf("AC1 FAIL: LoadConfig rejected environment secret: %v", err)
		}
	})

	t.Run("AC2: Config file with hmac_secret rejected with clear error", func(t *testing.T) {
		path := writeConfig(t, `server:
  host: "localhost"
  port: 8080
  hmac_secret: "should_be_rejected"
`)

		_, err := LoadConfig(path, nil)
		if err == nil {
			t.Fatal("AC2 FAIL: Expected error for secret in config file")
		}
		if err.Error() != "HMAC secrets not allowed in config files (use DS_HMAC_SECRET environment variable)" {
			t.Fatalf("AC2 FAIL: Wrong error message: %v", err)
		}
	})

	t.Run("AC3: Environment variables override config file", func(t *testing.T) {
		path := writeConfig(t, `server:
  port: 9090
content:
  dir: /from/file
`)

		cfg, err := LoadConfig(path, nil)
		if err != nil {
			t.Fatalf("AC3 FAIL: LoadConfig error: %v", err)
		}
		if cfg.Server.Port != 9090 || cfg.Content.Dir != "/from/file" {
			t.Fatalf("AC3 FAIL: config file values not applied: %+v", cfg)
		}

		t.Setenv("DS_SERVER_PORT", "8080")
		cfg, err = LoadConfig(path, nil)
		if err != nil {
			t.Fatalf("AC3 FAIL: LoadConfig error: %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Fatalf("AC3 FAIL: Environment should override config file. Expected 8080, got %d", cfg.Server.Port)
		}
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}
