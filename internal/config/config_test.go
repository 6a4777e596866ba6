package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "vagvanner-test")
	t.Setenv("ALLOWED_ORIGINS", "https://vagvanner.se, http://localhost:3000 ,")
	for _, k := range []string{"PORT", "FIREBASE_STORAGE_BUCKET", "STRIPE_SECRET_KEY", "REDIS_ADDR", "KAFKA_BROKERS", "TWILIO_ACCOUNT_SID", "CONTACT_UNLOCK_FEE_ORE", "CONTACT_UNLOCK_CURRENCY", "DISCOVERY_TIMEOUT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.StorageBucket != "vagvanner-test.appspot.com" {
		t.Errorf("bucket = %q", cfg.StorageBucket)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://localhost:3000" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.UnlockFee != 5000 || cfg.UnlockCurrency != "sek" {
		t.Errorf("fee = %d %s", cfg.UnlockFee, cfg.UnlockCurrency)
	}
	if cfg.DiscoveryTimeout != 8*time.Second {
		t.Errorf("discovery timeout = %s", cfg.DiscoveryTimeout)
	}
	if cfg.PaymentsEnabled() || cfg.RedisEnabled() || cfg.KafkaEnabled() || cfg.SMSEnabled() {
		t.Errorf("optional integrations should be disabled by default")
	}
}

func TestLoadCollectsErrors(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("HTTP_READ_TIMEOUT", "soon")
	t.Setenv("CONTACT_UNLOCK_FEE_ORE", "fifty")

	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "gcp-proj")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CONTACT_UNLOCK_FEE_ORE", "7500")
	t.Setenv("CONTACT_UNLOCK_CURRENCY", "SEK")
	t.Setenv("QUOTA_LOCK_TTL", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProjectID != "gcp-proj" {
		t.Errorf("project = %q", cfg.ProjectID)
	}
	if !cfg.KafkaEnabled() || len(cfg.KafkaBrokers) != 2 {
		t.Errorf("brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.UnlockFee != 7500 || cfg.UnlockCurrency != "sek" {
		t.Errorf("fee = %d %s", cfg.UnlockFee, cfg.UnlockCurrency)
	}
	if cfg.QuotaLockTTL != 3*time.Second {
		t.Errorf("ttl = %s", cfg.QuotaLockTTL)
	}
}

func TestDirectUnlockGate(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "vagvanner-test")
	t.Setenv("DIRECT_UNLOCK_ENABLED", "")

	t.Setenv("STRIPE_SECRET_KEY", "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.DirectUnlockEnabled() {
		t.Error("direct unlock must be open without payments")
	}

	t.Setenv("STRIPE_SECRET_KEY", "sk_test_x")
	if cfg, _ = Load(); cfg.DirectUnlockEnabled() {
		t.Error("direct unlock must be closed when payments are on")
	}

	t.Setenv("DIRECT_UNLOCK_ENABLED", "true")
	if cfg, _ = Load(); !cfg.DirectUnlockEnabled() {
		t.Error("explicit flag must open direct unlock")
	}

	t.Setenv("DIRECT_UNLOCK_ENABLED", "maybe")
	if _, err := Load(); err == nil {
		t.Error("expected error for a malformed flag")
	}
}
