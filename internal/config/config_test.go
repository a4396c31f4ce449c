package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadLearningRate(t *testing.T) {
	for _, alpha := range []float64{0, -0.1, 1.01, 2} {
		cfg := Default()
		cfg.LearningRate = alpha
		if err := cfg.Validate(); err == nil {
			t.Errorf("learning rate %g accepted, want rejection", alpha)
		}
	}
	cfg := Default()
	cfg.LearningRate = 1 // boundary: (0, 1] includes 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("learning rate 1.0 rejected: %v", err)
	}
}

func TestValidateRejectsBadEpsilon(t *testing.T) {
	cfg := Default()
	cfg.Epsilon = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("epsilon 1.5 accepted")
	}
	cfg = Default()
	cfg.MinEpsilon = 0.5 // above epsilon 0.1
	if err := cfg.Validate(); err == nil {
		t.Error("min epsilon above epsilon accepted")
	}
}

func TestValidateRejectsBadCapacity(t *testing.T) {
	cfg := Default()
	cfg.LedgerCapacity = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero ledger capacity accepted")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("db_path: custom.db\nlearning_rate: 0.25\nepsilon: 0.2\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "custom.db" {
		t.Errorf("db_path = %q, want custom.db", cfg.DBPath)
	}
	if cfg.LearningRate != 0.25 || cfg.Epsilon != 0.2 {
		t.Errorf("rates not overridden: %+v", cfg)
	}
	// Untouched fields keep their defaults
	if cfg.LedgerCapacity != 1000 {
		t.Errorf("ledger capacity = %d, want default 1000", cfg.LedgerCapacity)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("learning_rate: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("out-of-range config accepted")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
