package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Google.VisionModel != "gemini-2.5-pro" {
		t.Errorf("VisionModel = %q", cfg.Google.VisionModel)
	}
	if cfg.Google.ImageModel != "gemini-2.5-flash-image" {
		t.Errorf("ImageModel = %q", cfg.Google.ImageModel)
	}
	if cfg.Google.RequestTimeout != 120*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.Google.RequestTimeout)
	}
	if cfg.Google.AnalyzeMaxRetries != 3 || cfg.Google.StageMaxRetries != 6 {
		t.Errorf("retry budgets = %d/%d", cfg.Google.AnalyzeMaxRetries, cfg.Google.StageMaxRetries)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("SMTP.Port = %d", cfg.SMTP.Port)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("STAGE_MAX_RETRIES", "2")
	t.Setenv("S3_FORCE_PATH_STYLE", "true")
	t.Setenv("S3_KEY_PREFIX", "/deliverables/")

	cfg := FromEnv()
	if cfg.Port != "9999" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Google.StageMaxRetries != 2 {
		t.Errorf("StageMaxRetries = %d", cfg.Google.StageMaxRetries)
	}
	if !cfg.Media.ForcePathStyle {
		t.Error("ForcePathStyle should be true")
	}
	if cfg.Media.KeyPrefix != "deliverables" {
		t.Errorf("KeyPrefix = %q", cfg.Media.KeyPrefix)
	}
}

func TestGetenvIntBadValue(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-number")
	cfg := FromEnv()
	if cfg.SMTP.Port != 587 {
		t.Errorf("bad int should fall back to default, got %d", cfg.SMTP.Port)
	}
}
