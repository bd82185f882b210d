package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Batch layout
	InputRoot  string `yaml:"input_root"`
	OutputDir  string `yaml:"output_dir"`
	InputFile  string `yaml:"input_file"`
	DocsDir    string `yaml:"docs_dir"`
	AllFormats bool   `yaml:"all_formats"`

	// PersistReports makes the HTTP service also write reports to OutputDir.
	PersistReports bool `yaml:"persist_reports"`

	// Embedding
	EmbedProvider string        `yaml:"embed_provider"`
	OllamaURL     string        `yaml:"ollama_url"`
	EmbedModel    string        `yaml:"embed_model"`
	EmbedDim      int           `yaml:"embed_dim"`
	EmbedTimeout  time.Duration `yaml:"embed_timeout"`

	// Ranking
	TopK            int `yaml:"top_k"`
	ScoreLines      int `yaml:"score_lines"`
	RefineLines     int `yaml:"refine_lines"`
	RankConcurrency int `yaml:"rank_concurrency"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// Watch mode
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("SECTIONRANK_API_KEY"),

		InputRoot:  envOr("INPUT_ROOT", "."),
		OutputDir:  envOr("OUTPUT_DIR", "./output"),
		InputFile:  envOr("INPUT_FILE", "challenge1b_input.json"),
		DocsDir:    envOr("DOCS_DIR", "PDFs"),
		AllFormats: envBool("ALL_FORMATS", false),

		PersistReports: envBool("PERSIST_REPORTS", false),

		EmbedProvider: envOr("EMBED_PROVIDER", "hash"),
		OllamaURL:     envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:    envOr("EMBED_MODEL", "all-minilm"),
		EmbedDim:      envInt("EMBED_DIM", 384),
		EmbedTimeout:  envDuration("EMBED_TIMEOUT", 30*time.Second),

		TopK:            envInt("TOP_K", 5),
		ScoreLines:      envInt("SCORE_LINES", 5),
		RefineLines:     envInt("REFINE_LINES", 7),
		RankConcurrency: envInt("RANK_CONCURRENCY", 1),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		WatchDebounce: envDuration("WATCH_DEBOUNCE", 2*time.Second),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	cfg.clamp()
	return cfg
}

// clamp restores defaults for values that make no sense.
func (c *Config) clamp() {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.ScoreLines < 0 {
		c.ScoreLines = 5
	}
	if c.RefineLines < 0 {
		c.RefineLines = 7
	}
	if c.RankConcurrency <= 0 {
		c.RankConcurrency = 1
	}
	if c.EmbedDim <= 0 {
		c.EmbedDim = 384
	}
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = 30 * time.Second
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 4
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 100
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 52428800
	}
	if c.JobTTL <= 0 {
		c.JobTTL = 1 * time.Hour
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = 2 * time.Second
	}
}

// Validate checks settings every entrypoint needs.
func (c Config) Validate() error {
	switch c.EmbedProvider {
	case "hash", "ollama":
	default:
		return fmt.Errorf("EMBED_PROVIDER must be hash or ollama, got %q", c.EmbedProvider)
	}
	if c.EmbedProvider == "ollama" && c.OllamaURL == "" {
		return fmt.Errorf("OLLAMA_URL is required for the ollama provider")
	}
	if c.InputFile == "" || c.DocsDir == "" {
		return fmt.Errorf("INPUT_FILE and DOCS_DIR must not be empty")
	}
	return nil
}

// ValidateServer additionally checks settings the HTTP API needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("SECTIONRANK_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
