package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"videoforge/internal/artifacts"
)

func newMediaCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Match library media against narration segments",
	}
	cmd.AddCommand(newMediaFillCommand(ctx))
	return cmd
}

func newMediaFillCommand(ctx *commandContext) *cobra.Command {
	var itemFlag int64
	var mandatory bool

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Assign assets to an item's unfilled segments",
		Long: `Assign assets to an item's unfilled narration segments.

The default soft pass enforces the similarity threshold and writes phrases it
cannot satisfy to the missing-assets report. After importing new media and
rebuilding the index, run again with --mandatory to fill the remainder under
the reuse cap alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if itemFlag <= 0 {
				return fmt.Errorf("--item is required")
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
			channel, err := store.GetChannel(cmd.Context(), item.ChannelID)
			if err != nil {
				return err
			}
			artifactStore := artifacts.NewStore(cfg.Paths.DataDir)
			segments, err := artifactStore.LoadSegments(item)
			if err != nil {
				return err
			}

			m, err := ctx.matcherFactory()(cmd.Context(), channel)
			if err != nil {
				return err
			}
			result, err := m.FillSegments(cmd.Context(), segments, mandatory)
			if err != nil {
				return err
			}
			if err := artifactStore.SaveSegments(item, segments); err != nil {
				return err
			}

			if mandatory {
				if err := artifactStore.SaveFailureReport(item, &artifacts.FailureReport{Phrases: result.Exhausted}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "assigned %d segments, kept %d, %d phrases exhausted\n",
					result.Assigned, result.Kept, len(result.Exhausted))
				return nil
			}
			if err := artifactStore.SaveMissingReport(item, &artifacts.MissingReport{Phrases: result.Missing}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assigned %d segments, kept %d, %d phrases missing\n",
				result.Assigned, result.Kept, len(result.Missing))
			return nil
		},
	}

	cmd.Flags().Int64Var(&itemFlag, "item", 0, "Item id to fill")
	cmd.Flags().BoolVar(&mandatory, "mandatory", false, "Ignore the similarity threshold, enforce only the reuse cap")
	return cmd
}
