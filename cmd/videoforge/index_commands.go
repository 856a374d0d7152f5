package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"videoforge/internal/services/caption"
	"videoforge/internal/services/embed"
	"videoforge/internal/vectorindex"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build and inspect the media vector index",
	}
	cmd.AddCommand(newIndexBuildCommand(ctx))
	cmd.AddCommand(newIndexStatsCommand(ctx))
	return cmd
}

func newIndexBuildCommand(ctx *commandContext) *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Caption and embed new media assets into the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			if err := cfg.RequireEmbedding(); err != nil {
				return err
			}

			builder := vectorindex.NewBuilder(
				cfg.Paths.MediaDir,
				cfg.Paths.IndexDir,
				caption.NewClient(cfg.Caption),
				embed.NewClient(cfg.Embedding),
				cfg.Matching.BuildConcurrency,
				logger,
			)

			sigCtx, cancel := signalContext()
			defer cancel()
			result, err := builder.Build(sigCtx, rebuild)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d assets: %d added, %d already indexed, %d failed (index now holds %d)\n",
				result.Scanned, result.Added, result.Skipped, result.Failed, result.Total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Discard the existing index and re-process every asset")
	return cmd
}

func newIndexStatsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index size and composition",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensure()
			if err != nil {
				return err
			}
			idx, err := vectorindex.Load(cfg.Paths.IndexDir, cfg.Embedding.Dimensions)
			if errors.Is(err, vectorindex.ErrNoIndex) {
				fmt.Fprintln(cmd.OutOrStdout(), "no index built yet; run `videoforge index build`")
				return nil
			}
			if err != nil {
				return err
			}

			byType := map[string]int{}
			for _, asset := range idx.Assets() {
				byType[asset.Type]++
			}
			writer := table.NewWriter()
			writer.SetOutputMirror(cmd.OutOrStdout())
			writer.SetStyle(table.StyleLight)
			writer.AppendHeader(table.Row{"Metric", "Value"})
			writer.AppendRow(table.Row{"assets", idx.Len()})
			writer.AppendRow(table.Row{"dimensions", idx.Dimensions()})
			writer.AppendRow(table.Row{"images", byType["image"]})
			writer.AppendRow(table.Row{"videos", byType["video"]})
			writer.Render()
			return nil
		},
	}
	return cmd
}
