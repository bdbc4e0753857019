package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.PageSize != 10 {
		t.Fatalf("expected default page size 10, got %d", cfg.PageSize)
	}
	if cfg.ChainTolerance != 0.01 {
		t.Fatalf("expected default tolerance 0.01, got %v", cfg.ChainTolerance)
	}
	if cfg.OrderAgeOutEvery != time.Hour {
		t.Fatalf("expected hourly age-out sweep, got %s", cfg.OrderAgeOutEvery)
	}
	// Stale orders must be removed well before the retention window doubles.
	if cfg.OrderAgeOutEvery >= cfg.OrderRetention {
		t.Fatalf("age-out interval %s must be shorter than retention %s", cfg.OrderAgeOutEvery, cfg.OrderRetention)
	}
}

func TestLoadRejectsBadTolerance(t *testing.T) {
	t.Setenv("CHAIN_TOLERANCE", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected tolerance validation error")
	}
}

func TestAddress(t *testing.T) {
	cfg := Config{Port: "8080"}
	if got := cfg.Address(); got != ":8080" {
		t.Fatalf("expected :8080, got %s", got)
	}
	cfg.Port = ":9090"
	if got := cfg.Address(); got != ":9090" {
		t.Fatalf("expected :9090, got %s", got)
	}
}
