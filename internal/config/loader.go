package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures runtime configuration for the staffing service.
type Config struct {
	HTTPPort     int
	SQLiteDSN    string
	SessionTTL   time.Duration
	FeeRate      float64
	DocumentsDir string
	SMTPHost     string
	SMTPFrom     string
}

// fileConfig mirrors the optional YAML configuration file. Environment
// variables win over file values.
type fileConfig struct {
	HTTPPort     int     `yaml:"http_port"`
	SQLiteDSN    string  `yaml:"sqlite_dsn"`
	SessionTTL   string  `yaml:"session_ttl"`
	FeeRate      float64 `yaml:"fee_rate"`
	DocumentsDir string  `yaml:"documents_dir"`
	SMTPHost     string  `yaml:"smtp_host"`
	SMTPFrom     string  `yaml:"smtp_from"`
}

// Load builds the configuration from an optional YAML file pointed at by
// STAFFING_CONFIG_FILE, overlaid with environment variables.
//
// The loader applies defaults for optional fields while validating values and
// reporting localized error messages for bad entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:     8080,
		SQLiteDSN:    "file:staffing.db?_foreign_keys=on",
		SessionTTL:   24 * time.Hour,
		FeeRate:      0.40,
		DocumentsDir: "documents",
	}

	if path := strings.TrimSpace(os.Getenv("STAFFING_CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("STAFFING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "STAFFING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("STAFFING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("STAFFING_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "STAFFING_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if rateValue := strings.TrimSpace(os.Getenv("STAFFING_FEE_RATE")); rateValue != "" {
		rate, err := strconv.ParseFloat(rateValue, 64)
		if err != nil || rate <= 0 || rate >= 1 {
			invalid = append(invalid, "STAFFING_FEE_RATE")
		} else {
			cfg.FeeRate = rate
		}
	}

	if dir := strings.TrimSpace(os.Getenv("STAFFING_DOCUMENTS_DIR")); dir != "" {
		cfg.DocumentsDir = dir
	}
	if host := strings.TrimSpace(os.Getenv("STAFFING_SMTP_HOST")); host != "" {
		cfg.SMTPHost = host
	}
	if from := strings.TrimSpace(os.Getenv("STAFFING_SMTP_FROM")); from != "" {
		cfg.SMTPFrom = from
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// applyFile overlays values from the YAML file onto the defaults. ${VAR}
// references in the file are expanded from the environment before parsing.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルを読み込めません: %w", err)
	}

	expanded := os.Expand(string(data), os.Getenv)

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(expanded), &fc); err != nil {
		return fmt.Errorf("設定ファイルの形式が不正です: %w", err)
	}

	if fc.HTTPPort > 0 {
		cfg.HTTPPort = fc.HTTPPort
	}
	if strings.TrimSpace(fc.SQLiteDSN) != "" {
		cfg.SQLiteDSN = strings.TrimSpace(fc.SQLiteDSN)
	}
	if strings.TrimSpace(fc.SessionTTL) != "" {
		ttl, err := time.ParseDuration(strings.TrimSpace(fc.SessionTTL))
		if err != nil || ttl <= 0 {
			return fmt.Errorf("設定ファイルの値が不正です: session_ttl")
		}
		cfg.SessionTTL = ttl
	}
	if fc.FeeRate != 0 {
		if fc.FeeRate <= 0 || fc.FeeRate >= 1 {
			return fmt.Errorf("設定ファイルの値が不正です: fee_rate")
		}
		cfg.FeeRate = fc.FeeRate
	}
	if strings.TrimSpace(fc.DocumentsDir) != "" {
		cfg.DocumentsDir = strings.TrimSpace(fc.DocumentsDir)
	}
	if strings.TrimSpace(fc.SMTPHost) != "" {
		cfg.SMTPHost = strings.TrimSpace(fc.SMTPHost)
	}
	if strings.TrimSpace(fc.SMTPFrom) != "" {
		cfg.SMTPFrom = strings.TrimSpace(fc.SMTPFrom)
	}

	return nil
}
