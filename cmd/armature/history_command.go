package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"armature/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			builds, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(builds) == 0 {
				fmt.Fprintln(out, "No builds recorded")
				return nil
			}
			rows := make([][]string, 0, len(builds))
			for _, b := range builds {
				rows = append(rows, []string{
					shortID(b.ID),
					b.Assembly,
					string(b.Status),
					b.EndPoint,
					b.Mode,
					strconv.Itoa(b.Components),
					fmt.Sprintf("%d/%d", b.StepsRun, b.StepsRun+b.StepsSkipped),
					b.StartedAt.Local().Format(time.DateTime),
					formatDuration(b),
				})
			}
			writeTable(out, []column{
				{title: "Build"},
				{title: "Assembly"},
				{title: "Status"},
				{title: "End point"},
				{title: "Mode"},
				{title: "Components", right: true},
				{title: "Steps", right: true},
				{title: "Started"},
				{title: "Duration", right: true},
			}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Maximum number of builds to list")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(b history.Build) string {
	if !b.Finished() {
		return "-"
	}
	return b.Duration().Round(time.Millisecond).String()
}
