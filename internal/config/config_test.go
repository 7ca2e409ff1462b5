package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsValidatedDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workspace.Name != "default" {
		t.Fatalf("unexpected default: %+v", cfg.Workspace)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dendrite.yaml")
	content := `
workspace:
  name: myvault
  vaults: ["notes"]
semantic:
  model: Dendron
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workspace.Name != "myvault" || len(cfg.Workspace.Vaults) != 1 || cfg.Workspace.Vaults[0] != "notes" {
		t.Fatalf("unexpected config: %+v", cfg.Workspace)
	}
}

func TestInitializationOptions_Apply(t *testing.T) {
	cfg := NewDefault()
	enabled := false
	limit := 50
	opts := InitializationOptions{CacheEnabled: &enabled, MutationHistoryLimit: &limit}
	opts.Apply(cfg)
	if cfg.Cache.Enabled {
		t.Fatalf("expected cache disabled")
	}
	if cfg.Transport.MutationHistoryLimit != 50 {
		t.Fatalf("history limit = %d", cfg.Transport.MutationHistoryLimit)
	}
}

func TestValidate_RejectsMissingVaults(t *testing.T) {
	cfg := NewDefault()
	cfg.Workspace.Vaults = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for empty vaults")
	}
}
