package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SAP-F-2025/classroom-service/internal/models"
)

const testKey = "0123456789abcdef0123456789abcdef"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS",
		"EVENTS_TOPIC_PREFIX", "ATTENDANCE_BULK_POLICY", "RUN_MIGRATIONS", "CONFIG_FILE",
		"JWT_KEY", "JwtOptions__Key", "JWT_LIFETIME_HOURS", "JwtOptions__LifetimeHours",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_KEY", testKey)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.AttendanceBulkPolicy != models.BulkPolicyReplace {
		t.Errorf("policy = %q, want replace", cfg.AttendanceBulkPolicy)
	}
	if cfg.TokenLifetime() != 7*24*time.Hour {
		t.Errorf("lifetime = %v", cfg.TokenLifetime())
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("brokers = %v, want none", cfg.KafkaBrokers)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JwtOptions__Key", testKey)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ATTENDANCE_BULK_POLICY", "MERGE")
	t.Setenv("RUN_MIGRATIONS", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JwtOptions.Key != testKey {
		t.Error("JwtOptions__Key was not applied")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("level = %v", cfg.LogLevel)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.AttendanceBulkPolicy != models.BulkPolicyMerge || !cfg.RunMigrations {
		t.Errorf("unexpected cfg %+v", cfg)
	}
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "JwtOptions:\n  Key: " + testKey + "\n  LifetimeHours: 24\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JwtOptions.Key != testKey || cfg.TokenLifetime() != 24*time.Hour {
		t.Errorf("file values not applied: %+v", cfg.JwtOptions)
	}

	t.Setenv("JWT_KEY", "ffffffffffffffffffffffffffffffffffff")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JwtOptions.Key != "ffffffffffffffffffffffffffffffffffff" {
		t.Error("environment should override the file")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing key", env: map[string]string{}},
		{name: "short key", env: map[string]string{"JWT_KEY": "short"}},
		{name: "bad policy", env: map[string]string{"JWT_KEY": testKey, "ATTENDANCE_BULK_POLICY": "append"}},
		{name: "bad level", env: map[string]string{"JWT_KEY": testKey, "LOG_LEVEL": "loud"}},
		{name: "bad lifetime", env: map[string]string{"JWT_KEY": testKey, "JWT_LIFETIME_HOURS": "week"}},
		{name: "zero lifetime", env: map[string]string{"JWT_KEY": testKey, "JWT_LIFETIME_HOURS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
