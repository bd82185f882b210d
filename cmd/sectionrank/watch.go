package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dgallion1/sectionrank/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [input-root]",
	Short: "Rank all collections, then re-rank any collection whose files change",
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
		if err != nil {
			return err
		}

		w, err := watch.New(cfg.InputRoot, layoutFor(cfg), cfg.WatchDebounce, func(ctx context.Context, dir string) {
			sum, err := runner.RunCollection(ctx, dir)
			if err != nil {
				log.Warn("re-run interrupted", "collection", dir, "error", err)
			}
			FormatSummary(cmd.OutOrStdout(), sum)
		}, log)
		if err != nil {
			return err
		}
		defer w.Close()
		if err := w.Start(ctx); err != nil {
			return err
		}
		out.Watching(cfg.InputRoot)

		<-ctx.Done()
		return nil
	},
}

func init() {
	addBatchFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}
