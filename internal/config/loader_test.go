package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"STAFFING_CONFIG_FILE", "STAFFING_HTTP_PORT", "STAFFING_SQLITE_DSN",
		"STAFFING_SESSION_TTL", "STAFFING_FEE_RATE", "STAFFING_DOCUMENTS_DIR",
		"STAFFING_SMTP_HOST", "STAFFING_SMTP_FROM",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected default TTL 24h, got %v", cfg.SessionTTL)
	}
	if cfg.FeeRate != 0.40 {
		t.Fatalf("expected default fee rate 0.40, got %v", cfg.FeeRate)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("STAFFING_CONFIG_FILE", "")
	t.Setenv("STAFFING_HTTP_PORT", "9090")
	t.Setenv("STAFFING_SESSION_TTL", "30m")
	t.Setenv("STAFFING_FEE_RATE", "0.35")
	t.Setenv("STAFFING_SQLITE_DSN", "file:test.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != 9090 || cfg.SessionTTL != 30*time.Minute || cfg.FeeRate != 0.35 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("STAFFING_CONFIG_FILE", "")
	t.Setenv("STAFFING_HTTP_PORT", "not-a-port")
	t.Setenv("STAFFING_FEE_RATE", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for invalid values")
	}
}

func TestLoadYAMLFileWithExpansion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "staffing.yaml")
	content := "http_port: 9000\nsqlite_dsn: file:${DB_NAME}.db\nfee_rate: 0.30\nsession_ttl: 12h\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("STAFFING_CONFIG_FILE", path)
	t.Setenv("DB_NAME", "staging")
	t.Setenv("STAFFING_HTTP_PORT", "9100")
	t.Setenv("STAFFING_SESSION_TTL", "")
	t.Setenv("STAFFING_FEE_RATE", "")
	t.Setenv("STAFFING_SQLITE_DSN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SQLiteDSN != "file:staging.db" {
		t.Fatalf("expected expanded DSN, got %q", cfg.SQLiteDSN)
	}
	if cfg.FeeRate != 0.30 || cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	// Environment wins over the file.
	if cfg.HTTPPort != 9100 {
		t.Fatalf("expected env override 9100, got %d", cfg.HTTPPort)
	}
}
