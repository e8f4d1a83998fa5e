package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"HTTP_ADDRESS", "GRPC_ADDRESS", "DB_PATH", "STORE_BACKEND", "MONGO_URI", "MONGO_DB_NAME",
	"JWT_SECRET", "ADMIN_PASSWORD", "SESSION_IDLE_TIMEOUT", "LIFECYCLE_POLICY", "NOTIFY_BACKEND",
	"RABBIT_URL", "RABBIT_EXCHANGE", "KAFKA_BROKERS", "KAFKA_TOPIC", "TELEGRAM_TOKEN",
	"TELEGRAM_CHAT_ID", "WHATSAPP_NUMBER", "NOTIFY_TIMEOUT", "GEOCODER_URL",
	"BOOKING_MIN_PROCESSING", "LOG_LEVEL",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadWithDefaults_Succeeds(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.GRPC.Address == "" || cfg.HTTP.Address == "" || cfg.Database.Path == "" || cfg.Auth.JWTSecret == "" {
		t.Fatalf("unexpected empty defaults: %+v", cfg)
	}
	if cfg.Database.Backend != "sqlite" || cfg.Orders.LifecyclePolicy != "permissive" || cfg.Notify.Backend != "log" {
		t.Fatalf("unexpected backend defaults: %+v", cfg)
	}
	if cfg.Auth.IdleTimeout != 30*time.Minute {
		t.Fatalf("idle timeout default: %v", cfg.Auth.IdleTimeout)
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("GRPC_ADDRESS", ":1234")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is not set")
	}
	t.Setenv("JWT_SECRET", "x")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with secret set: %v", err)
	}
}

func TestLoad_ParsesValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("STORE_BACKEND", "MONGO")
	t.Setenv("LIFECYCLE_POLICY", "strict")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("NOTIFY_BACKEND", "kafka")
	t.Setenv("BOOKING_MIN_PROCESSING", "2s")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Backend != "mongo" || cfg.Orders.LifecyclePolicy != "strict" {
		t.Fatalf("backend/policy: %+v", cfg)
	}
	if len(cfg.Notify.KafkaBrokers) != 2 || cfg.Notify.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers: %v", cfg.Notify.KafkaBrokers)
	}
	if cfg.Orders.MinProcessing != 2*time.Second || cfg.Auth.IdleTimeout != 5*time.Minute {
		t.Fatalf("durations: %+v %+v", cfg.Orders, cfg.Auth)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"STORE_BACKEND":          "postgres",
		"LIFECYCLE_POLICY":       "chaotic",
		"NOTIFY_BACKEND":         "pigeon",
		"SESSION_IDLE_TIMEOUT":   "soon",
		"TELEGRAM_CHAT_ID":       "abc",
		"BOOKING_MIN_PROCESSING": "1x",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "x")
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
	clearEnv(t)
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("NOTIFY_BACKEND", "telegram")
	if _, err := Load(); err == nil {
		t.Fatalf("telegram without token should fail")
	}
}

func TestString_MasksSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := cfg.String()
	if strings.Contains(s, "super-secret") || strings.Contains(s, "hunter2") {
		t.Fatalf("secrets leaked: %s", s)
	}
}
