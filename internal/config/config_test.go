package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.TopK != 5 || cfg.ScoreLines != 5 || cfg.RefineLines != 7 {
		t.Errorf("unexpected ranking defaults: top_k=%d score=%d refine=%d", cfg.TopK, cfg.ScoreLines, cfg.RefineLines)
	}
	if cfg.EmbedProvider != "hash" {
		t.Errorf("expected hash provider by default, got %q", cfg.EmbedProvider)
	}
	if cfg.InputFile != "challenge1b_input.json" || cfg.DocsDir != "PDFs" {
		t.Errorf("unexpected layout defaults: %q %q", cfg.InputFile, cfg.DocsDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverridesAndClamps(t *testing.T) {
	t.Setenv("TOP_K", "3")
	t.Setenv("SCORE_LINES", "2")
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("EMBED_TIMEOUT", "not-a-duration")

	cfg := Load()
	if cfg.TopK != 3 || cfg.ScoreLines != 2 {
		t.Errorf("expected env overrides, got top_k=%d score=%d", cfg.TopK, cfg.ScoreLines)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected clamped worker count 4, got %d", cfg.WorkerCount)
	}
	if cfg.EmbedTimeout != 30*time.Second {
		t.Errorf("expected default timeout, got %s", cfg.EmbedTimeout)
	}
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.EmbedProvider = "openai"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown provider")
	}

	cfg = Load()
	cfg.APIKey = ""
	if err := cfg.ValidateServer(); err == nil {
		t.Error("expected server validation to require an API key")
	}
	cfg.APIKey = "k"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sectionrank.yaml")
	content := "top_k: 10\nembed_provider: ollama\nembed_model: nomic-embed-text\nwatch_debounce: 5s\nrefine_lines: -3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("apply file: %v", err)
	}
	if cfg.TopK != 10 {
		t.Errorf("expected top_k 10, got %d", cfg.TopK)
	}
	if cfg.EmbedProvider != "ollama" || cfg.EmbedModel != "nomic-embed-text" {
		t.Errorf("unexpected embedding settings: %q %q", cfg.EmbedProvider, cfg.EmbedModel)
	}
	if cfg.WatchDebounce != 5*time.Second {
		t.Errorf("expected 5s debounce, got %s", cfg.WatchDebounce)
	}
	if cfg.RefineLines != 7 {
		t.Errorf("expected negative refine_lines clamped to 7, got %d", cfg.RefineLines)
	}
	if cfg.ScoreLines != 5 {
		t.Errorf("expected untouched score_lines 5, got %d", cfg.ScoreLines)
	}
}

func TestLoadWithFile_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("output_dir: /tmp/out\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadWithFile("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("expected output dir from file, got %q", cfg.OutputDir)
	}
}

func TestApplyFile_Missing(t *testing.T) {
	cfg := Load()
	if err := cfg.ApplyFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
