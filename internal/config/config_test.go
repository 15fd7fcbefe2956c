package config

import (
	"os"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	// Unset key returns fallback
	os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "default" {
		t.Errorf("envOr unset key = %q, want %q", got, "default")
	}

	// Set key returns value
	os.Setenv("TEST_ENVOR_KEY", "custom")
	defer os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "custom" {
		t.Errorf("envOr set key = %q, want %q", got, "custom")
	}

	// Empty string returns fallback
	os.Setenv("TEST_ENVOR_KEY", "")
	if got := envOr("TEST_ENVOR_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOr empty key = %q, want %q", got, "fallback")
	}
}

func TestEnvFloat(t *testing.T) {
	os.Unsetenv("TEST_ENVFLOAT_KEY")
	if got := envFloat("TEST_ENVFLOAT_KEY", 0.2); got != 0.2 {
		t.Errorf("envFloat unset key = %v, want 0.2", got)
	}

	os.Setenv("TEST_ENVFLOAT_KEY", "0.35")
	defer os.Unsetenv("TEST_ENVFLOAT_KEY")
	if got := envFloat("TEST_ENVFLOAT_KEY", 0.2); got != 0.35 {
		t.Errorf("envFloat set key = %v, want 0.35", got)
	}

	os.Setenv("TEST_ENVFLOAT_KEY", "not-a-number")
	if got := envFloat("TEST_ENVFLOAT_KEY", 0.2); got != 0.2 {
		t.Errorf("envFloat invalid key = %v, want fallback 0.2", got)
	}
}

func TestEnvDuration(t *testing.T) {
	os.Unsetenv("TEST_ENVDUR_KEY")
	if got := envDuration("TEST_ENVDUR_KEY", time.Minute); got != time.Minute {
		t.Errorf("envDuration unset key = %v, want 1m", got)
	}

	os.Setenv("TEST_ENVDUR_KEY", "48h")
	defer os.Unsetenv("TEST_ENVDUR_KEY")
	if got := envDuration("TEST_ENVDUR_KEY", time.Minute); got != 48*time.Hour {
		t.Errorf("envDuration set key = %v, want 48h", got)
	}

	os.Setenv("TEST_ENVDUR_KEY", "soon")
	if got := envDuration("TEST_ENVDUR_KEY", time.Minute); got != time.Minute {
		t.Errorf("envDuration invalid key = %v, want fallback 1m", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	// Clear all relevant env vars
	for _, k := range []string{
		"PORT", "DATABASE_URL", "REDIS_URL", "REDIS_PASSWORD", "FRONTEND_ORIGIN",
		"PROTOCOLS_FILE", "COLLECT_SCHEDULE", "FETCH_TIMEOUT", "CYCLE_LOCK_TTL",
		"TVL_DROP_THRESHOLD", "APY_MIN_THRESHOLD", "UTILIZATION_MAX_THRESHOLD", "TVL_LOOKBACK",
		"INFISICAL_CLIENT_ID", "INFISICAL_CLIENT_SECRET",
	} {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.Schedule != "@every 5m" {
		t.Errorf("Schedule = %q, want %q", cfg.Schedule, "@every 5m")
	}
	if cfg.Thresholds.TVLDrop != 0.20 {
		t.Errorf("TVLDrop = %v, want 0.20", cfg.Thresholds.TVLDrop)
	}
	if cfg.Thresholds.APYMin != 2.0 {
		t.Errorf("APYMin = %v, want 2.0", cfg.Thresholds.APYMin)
	}
	if cfg.Thresholds.UtilizationMax != 0.95 {
		t.Errorf("UtilizationMax = %v, want 0.95", cfg.Thresholds.UtilizationMax)
	}
	if cfg.Thresholds.TVLLookback != 24*time.Hour {
		t.Errorf("TVLLookback = %v, want 24h", cfg.Thresholds.TVLLookback)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("TVL_DROP_THRESHOLD", "0.30")
	os.Setenv("COLLECT_SCHEDULE", "@every 1m")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("TVL_DROP_THRESHOLD")
		os.Unsetenv("COLLECT_SCHEDULE")
	}()

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.DatabaseURL != "postgres://test" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "postgres://test")
	}
	if cfg.Thresholds.TVLDrop != 0.30 {
		t.Errorf("TVLDrop = %v, want 0.30", cfg.Thresholds.TVLDrop)
	}
	if cfg.Schedule != "@every 1m" {
		t.Errorf("Schedule = %q, want %q", cfg.Schedule, "@every 1m")
	}
}
