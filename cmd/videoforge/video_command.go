package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"videoforge/internal/catalog"
	"videoforge/internal/services/transcript"
)

func newVideoCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Manage videos in the production queue",
	}
	cmd.AddCommand(newVideoAddCommand(ctx))
	return cmd
}

func newVideoAddCommand(ctx *commandContext) *cobra.Command {
	var noAudio bool
	var voice string

	cmd := &cobra.Command{
		Use:   "add <channel> <link>",
		Short: "Register a source video link under a channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reject malformed links before they poison a batch run.
			if _, err := transcript.ExtractVideoID(args[1]); err != nil {
				return err
			}
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			channel, err := store.GetChannelByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if channel == nil {
				return fmt.Errorf("channel %q not found", args[0])
			}
			itemCfg := catalog.DefaultItemConfig()
			itemCfg.GenerateAudio = !noAudio
			itemCfg.VoiceOverride = voice

			item, err := store.AddItem(cmd.Context(), channel.ID, args[1], itemCfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "item %d registered under %q\n", item.ID, channel.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "Skip narration audio for this video")
	cmd.Flags().StringVar(&voice, "voice", "", "Override the synthesis voice for this video")
	return cmd
}
