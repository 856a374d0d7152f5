package main

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"videoforge/internal/logging"
	"videoforge/internal/pipeline"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run batches on the configured schedule until interrupted",
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
			batch := pipeline.NewBatch(cfg, store, runner, logger)

			sigCtx, cancel := signalContext()
			defer cancel()

			runBatch := func() {
				result, err := batch.RunOnce(sigCtx, "")
				if err != nil {
					logger.Error("scheduled batch failed", logging.Error(err))
					return
				}
				logger.Info("scheduled batch finished",
					logging.Int("processed", result.Processed),
					logging.Int("advanced", result.Advanced),
					logging.Int("failed", result.Failed))
			}

			if schedule := cfg.Workflow.Schedule; schedule != "" {
				scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
				if _, err := scheduler.AddFunc(schedule, runBatch); err != nil {
					return fmt.Errorf("parse workflow schedule: %w", err)
				}
				logger.Info("daemon started", logging.String("schedule", schedule))
				scheduler.Start()
				<-sigCtx.Done()
				<-scheduler.Stop().Done()
				return nil
			}

			interval := time.Duration(cfg.Workflow.PollIntervalSeconds) * time.Second
			if interval <= 0 {
				interval = 5 * time.Minute
			}
			logger.Info("daemon started", logging.Duration("poll_interval", interval))
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			runBatch()
			for {
				select {
				case <-sigCtx.Done():
					return nil
				case <-ticker.C:
					runBatch()
				}
			}
		},
	}
	return cmd
}
