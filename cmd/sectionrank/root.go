package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/sectionrank/internal/collection"
	"github.com/dgallion1/sectionrank/internal/config"
	"github.com/dgallion1/sectionrank/internal/embed"
	"github.com/dgallion1/sectionrank/internal/pipeline"
	"github.com/dgallion1/sectionrank/internal/version"
	"github.com/spf13/cobra"
)

var configFile string
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "sectionrank",
	Short: "Rank document sections against a persona and task",
	Long: `sectionrank splits documents into sections by font-size heading levels,
embeds each section and ranks it against a "persona: task" query.

Batch input is a root directory of "Collection *" folders, each holding
challenge1b_input.json and a PDFs/ folder. One JSON report is written per
document.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("sectionrank %s\n", version.String()))

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (defaults to $CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.LoadWithFile(configFile)
}

// newLogger writes JSON logs to stderr so stdout stays free for the
// rendered summary.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func layoutFor(cfg config.Config) collection.Layout {
	l := collection.DefaultLayout()
	l.InputFile = cfg.InputFile
	l.DocsDir = cfg.DocsDir
	l.AllFormats = cfg.AllFormats
	return l
}

func newEmbedder(cfg config.Config) (embed.Embedder, *embed.Stats, error) {
	return embed.New(embed.Options{
		Provider: cfg.EmbedProvider,
		BaseURL:  cfg.OllamaURL,
		Model:    cfg.EmbedModel,
		Dim:      cfg.EmbedDim,
	})
}

// newBatch wires an orchestrator that writes reports to cfg.OutputDir and a
// runner over it. The caller starts and stops the orchestrator.
func newBatch(cfg config.Config, obs pipeline.Observer, log *slog.Logger) (*pipeline.Orchestrator, *pipeline.Runner, error) {
	embedder, _, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	orch := pipeline.NewOrchestrator(cfg, embedder, reportWriter(cfg), obs, log)
	return orch, pipeline.NewRunner(orch, layoutFor(cfg), obs, log), nil
}
