package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/sectionrank/internal/api"
	"github.com/dgallion1/sectionrank/internal/config"
	"github.com/dgallion1/sectionrank/internal/embed"
	"github.com/dgallion1/sectionrank/internal/pipeline"
	"github.com/dgallion1/sectionrank/internal/report"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadWithFile("")
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize embedder.
	embedder, stats, err := embed.New(embed.Options{
		Provider: cfg.EmbedProvider,
		BaseURL:  cfg.OllamaURL,
		Model:    cfg.EmbedModel,
		Dim:      cfg.EmbedDim,
	})
	if err != nil {
		log.Error("embedder", "error", err)
		os.Exit(1)
	}

	// Reports are always kept on the job; persisting them is optional.
	var sink pipeline.Sink
	if cfg.PersistReports {
		sink = report.FileWriter{Dir: cfg.OutputDir}
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, embedder, sink, nil, log)
	orch.Start(ctx)
	defer orch.Stop()

	srv := api.NewServer(orch, stats, modelName(cfg), log, cfg)
	if err := api.ListenAndServe(ctx, ":"+cfg.Port, srv, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func modelName(cfg config.Config) string {
	if cfg.EmbedProvider == "ollama" {
		return cfg.EmbedModel
	}
	return "hash"
}
