package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"videoforge/internal/stage"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var channelFlag string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pipeline progress for registered items",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.ListItems(cmd.Context(), channelFlag)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no items registered")
				return nil
			}

			writer := table.NewWriter()
			writer.SetOutputMirror(cmd.OutOrStdout())
			writer.SetStyle(table.StyleLight)
			writer.AppendHeader(table.Row{"ID", "Channel", "Link", "Progress", "Next stage", "Last error"})
			for _, item := range items {
				done := 0
				for _, s := range stage.All() {
					if item.StageDone(s) {
						done++
					}
				}
				next := "-"
				if pending, ok := item.FirstPending(); ok {
					next = pending.Label()
				}
				writer.AppendRow(table.Row{
					item.ID,
					item.ChannelName,
					truncate(item.Link, 48),
					fmt.Sprintf("%d/%d", done, stage.Count),
					next,
					truncate(item.LastError, 60),
				})
			}
			writer.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&channelFlag, "channel", "", "Limit to one channel")
	return cmd
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-1] + "…"
}
