package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"videoforge/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var channelFlag string
	var itemFlag int64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process pending items through the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()
			runner, err := ctx.buildRunner(store)
			if err != nil {
				return err
			}

			sigCtx, cancel := signalContext()
			defer cancel()

			if itemFlag > 0 {
				if err := pipeline.Preflight(cfg); err != nil {
					return err
				}
				item, err := store.GetItem(sigCtx, itemFlag)
				if err != nil {
					return err
				}
				outcome, err := runner.ProcessItem(sigCtx, item)
				if err != nil {
					return err
				}
				switch outcome {
				case pipeline.OutcomeComplete:
					fmt.Fprintf(cmd.OutOrStdout(), "item %d already complete\n", item.ID)
				case pipeline.OutcomeAdvanced:
					fmt.Fprintf(cmd.OutOrStdout(), "item %d advanced\n", item.ID)
				case pipeline.OutcomeFailed:
					fmt.Fprintf(cmd.OutOrStdout(), "item %d failed: %s\n", item.ID, item.LastError)
				}
				return nil
			}

			batch := pipeline.NewBatch(cfg, store, runner, logger)
			result, err := batch.RunOnce(sigCtx, channelFlag)
			if result != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "processed %d items: %d advanced, %d failed, %d already complete\n",
					result.Processed, result.Advanced, result.Failed, result.Skipped)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&channelFlag, "channel", "", "Limit the run to one channel")
	cmd.Flags().Int64Var(&itemFlag, "item", 0, "Process a single item by id")
	return cmd
}
