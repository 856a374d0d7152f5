package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"videoforge/internal/artifacts"
	"videoforge/internal/stage"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	var itemFlag int64
	var fromFlag string
	var clearAssets bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear checkpoints so stages run again",
		Long: `Clear an item's checkpoints from a stage onward so the next run
regenerates them. Artifacts stay on disk until overwritten.

--assets additionally clears segment asset references; this is the only
operation that ever removes an assigned asset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if itemFlag <= 0 {
				return fmt.Errorf("--item is required")
			}
			from, ok := stage.Parse(fromFlag)
			if !ok {
				return fmt.Errorf("unknown stage %q", fromFlag)
			}
			cfg, _, err := ctx.ensure()
			if err != nil {
				return err
			}
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			item, err := store.GetItem(cmd.Context(), itemFlag)
			if err != nil {
				return err
			}
			if err := store.ClearStagesFrom(cmd.Context(), item.ID, from); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "item %d reset from %s onward\n", item.ID, from.Label())

			if clearAssets {
				artifactStore := artifacts.NewStore(cfg.Paths.DataDir)
				segments, err := artifactStore.LoadSegments(item)
				if err != nil {
					return err
				}
				cleared := 0
				for i := range segments.Segments {
					if segments.Segments[i].Asset != "" {
						segments.Segments[i].Asset = ""
						cleared++
					}
				}
				if err := artifactStore.SaveSegments(item, segments); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %d asset references\n", cleared)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&itemFlag, "item", 0, "Item id to reset")
	cmd.Flags().StringVar(&fromFlag, "from", "transcript", "First stage to clear")
	cmd.Flags().BoolVar(&clearAssets, "assets", false, "Also clear segment asset references")
	return cmd
}
