package main

import (
	"os/signal"
	"syscall"

	"github.com/dgallion1/sectionrank/internal/api"
	"github.com/dgallion1/sectionrank/internal/pipeline"
	"github.com/spf13/cobra"
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if port != "" {
			cfg.Port = port
		}
		if err := cfg.ValidateServer(); err != nil {
			return err
		}
		log := newLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		embedder, stats, err := newEmbedder(cfg)
		if err != nil {
			return err
		}
		var sink pipeline.Sink
		if cfg.PersistReports {
			sink = reportWriter(cfg)
		}
		orch := pipeline.NewOrchestrator(cfg, embedder, sink, nil, log)
		orch.Start(ctx)
		defer orch.Stop()

		model := "hash"
		if cfg.EmbedProvider == "ollama" {
			model = cfg.EmbedModel
		}
		srv := api.NewServer(orch, stats, model, log, cfg)
		return api.ListenAndServe(ctx, ":"+cfg.Port, srv, log)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default $PORT or 8090)")
	rootCmd.AddCommand(serveCmd)
}
