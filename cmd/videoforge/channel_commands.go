package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"videoforge/internal/catalog"
)

func newChannelCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Manage channels and their generation policy",
	}
	cmd.AddCommand(newChannelAddCommand(ctx))
	cmd.AddCommand(newChannelImportCommand(ctx))
	cmd.AddCommand(newChannelListCommand(ctx))
	return cmd
}

func newChannelAddCommand(ctx *commandContext) *cobra.Command {
	var language, watermark string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a channel with default prompts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			normalized, err := catalog.NormalizeLanguage(language)
			if err != nil {
				return err
			}
			channel := &catalog.Channel{
				Name:      args[0],
				Language:  normalized,
				Watermark: watermark,
				Active:    true,
				Prompts:   catalog.DefaultPrompts(),
			}
			if err := store.AddChannel(cmd.Context(), channel); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "channel %q registered (%s)\n", channel.Name, channel.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "language", "auto", "Output language (BCP 47 tag or \"auto\")")
	cmd.Flags().StringVar(&watermark, "watermark", "", "Watermark text for rendered videos")
	return cmd
}

func newChannelImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <policy.yaml>",
		Short: "Create or update a channel from a policy file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			policy, err := catalog.LoadChannelPolicy(args[0])
			if err != nil {
				return err
			}
			channel, created, err := store.ImportChannelPolicy(cmd.Context(), policy)
			if err != nil {
				return err
			}
			verb := "updated"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "channel %q %s\n", channel.Name, verb)
			return nil
		},
	}
	return cmd
}

func newChannelListCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			channels, err := store.ListChannels(cmd.Context())
			if err != nil {
				return err
			}
			if len(channels) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no channels registered")
				return nil
			}

			writer := table.NewWriter()
			writer.SetOutputMirror(cmd.OutOrStdout())
			writer.SetStyle(table.StyleLight)
			writer.AppendHeader(table.Row{"Name", "Language", "Active", "Reuse cap", "Threshold"})
			for _, channel := range channels {
				cap := "default"
				if channel.ReuseCapOverride > 0 {
					cap = fmt.Sprintf("%d", channel.ReuseCapOverride)
				}
				threshold := "default"
				if channel.ThresholdOverride > 0 {
					threshold = fmt.Sprintf("%.2f", channel.ThresholdOverride)
				}
				writer.AppendRow(table.Row{channel.Name, channel.Language, channel.Active, cap, threshold})
			}
			writer.Render()
			return nil
		},
	}
	return cmd
}
