package main

import (
	"os/signal"
	"syscall"

	"github.com/dgallion1/sectionrank/internal/config"
	"github.com/dgallion1/sectionrank/internal/report"
	"github.com/spf13/cobra"
)

var inputRoot string
var outputDir string
var allFormats bool
var provider string
var topK int

var runCmd = &cobra.Command{
	Use:   "run [input-root]",
	Short: "Rank every collection under the input root once",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := batchConfig(cmd, args)
		if err != nil {
			return err
		}
		log := newLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := newConsole(cmd.OutOrStdout())
		orch, runner, err := newBatch(cfg, out, log)
		if err != nil {
			return err
		}
		orch.Start(ctx)
		defer orch.Stop()

		FormatHeader(cmd.OutOrStdout(), cfg)
		sum, err := runner.RunRoot(ctx, cfg.InputRoot)
		FormatSummary(cmd.OutOrStdout(), sum)
		return err
	},
}

func init() {
	addBatchFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default $OUTPUT_DIR or ./output)")
	cmd.Flags().BoolVar(&allFormats, "all-formats", false, "Accept Markdown, HTML, DOCX and text documents besides PDF")
	cmd.Flags().StringVar(&provider, "provider", "", "Embedding provider: hash or ollama (default $EMBED_PROVIDER or hash)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Sections kept per document (default $TOP_K or 5)")
}

// batchConfig layers flags over the file and environment configuration.
func batchConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, err
	}
	if len(args) == 1 {
		inputRoot = args[0]
	}
	if inputRoot != "" {
		cfg.InputRoot = inputRoot
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if cmd.Flags().Changed("all-formats") {
		cfg.AllFormats = allFormats
	}
	if provider != "" {
		cfg.EmbedProvider = provider
	}
	if topK > 0 {
		cfg.TopK = topK
	}
	return cfg, cfg.Validate()
}

func reportWriter(cfg config.Config) report.FileWriter {
	return report.FileWriter{Dir: cfg.OutputDir}
}

