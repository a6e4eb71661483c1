package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPassesValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := Default()
	cfg.Mode = "live"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestValidateRejectsNonPositiveCapital(t *testing.T) {
	cfg := Default()
	cfg.Backtest.InitialCapital = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero initial_capital")
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "mode: backtest\nbacktest:\n  unknown_field: 1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for unknown config key")
	}
}

func TestLoadFileOverlaysOnDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "mode: paper\npaper_trading:\n  initial_capital: 5000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PaperTrading.InitialCapital != 5000 {
		t.Fatalf("initial_capital = %v, want 5000", cfg.PaperTrading.InitialCapital)
	}
	if cfg.Exchange.FillModel.Type != "basic" {
		t.Fatalf("expected defaults to persist for unspecified sections, got %q", cfg.Exchange.FillModel.Type)
	}
}
