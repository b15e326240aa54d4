package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BASE_URL", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("LEDGER_BACKEND", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StorageBaseURL != "http://localhost:8080/static" {
		t.Fatalf("StorageBaseURL mismatch: got %q", cfg.StorageBaseURL)
	}
	if cfg.StoreBackend != BackendMemory || cfg.LedgerBackend != BackendMemory {
		t.Fatalf("unexpected backends: %q %q", cfg.StoreBackend, cfg.LedgerBackend)
	}
	if cfg.GenerationPoolSize != 4 {
		t.Fatalf("GenerationPoolSize = %d, want 4", cfg.GenerationPoolSize)
	}
	if cfg.JobPollInterval != time.Second || cfg.JobMaxAttempts != 60 {
		t.Fatalf("unexpected job polling defaults: %s %d", cfg.JobPollInterval, cfg.JobMaxAttempts)
	}
	if cfg.AutoApproveSchedule != "0 2 * * *" {
		t.Fatalf("AutoApproveSchedule = %q", cfg.AutoApproveSchedule)
	}
}

func TestLoadConfigInheritsPortInStorageBaseURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "1919")
	t.Setenv("STORAGE_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StorageBaseURL != "http://localhost:1919/static" {
		t.Fatalf("StorageBaseURL mismatch: got %q", cfg.StorageBaseURL)
	}
}

func TestLoadConfigParsesListsAndDurations(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv("JOB_POLL_INTERVAL", "250ms")
	t.Setenv("AUTO_APPROVE_REFRESH", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "kafka-1:9092" || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("KafkaBrokers mismatch: %#v", cfg.KafkaBrokers)
	}
	if cfg.JobPollInterval != 250*time.Millisecond {
		t.Fatalf("JobPollInterval = %s", cfg.JobPollInterval)
	}
	if !cfg.AutoApproveRefresh {
		t.Fatalf("AutoApproveRefresh should be true")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing jwt secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "postgres without url", env: map[string]string{"STORE_BACKEND": "postgres", "DATABASE_URL": ""}},
		{name: "redis without addr", env: map[string]string{"LEDGER_BACKEND": "redis", "REDIS_ADDR": ""}},
		{name: "unknown backend", env: map[string]string{"LEDGER_BACKEND": "sqlite"}},
		{name: "zero pool", env: map[string]string{"GENERATION_POOL_SIZE": "0"}},
		{name: "bad pricing mode", env: map[string]string{"PRICING_MODE": "magic"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
