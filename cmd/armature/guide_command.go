package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"armature/internal/api"
	"armature/internal/guide"
)

func newGuideCommand(ctx *commandContext) *cobra.Command {
	var outFlag string
	var outliner bool

	cmd := &cobra.Command{
		Use:   "guide FILE",
		Short: "Build placement guides, read them back and save the normalised tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *api.Session) error {
				loaded, err := s.Load(cmd.Context(), api.LoadRequest{Path: args[0], Guide: true})
				if err != nil {
					return err
				}
				root, err := guide.Read(loaded.Guide, s.Registry())
				if err != nil {
					return err
				}
				target := outputPath(outFlag, args[0])
				if err := s.SaveTree(target, root); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Guided %d components; saved to %s\n", len(root.Nodes()), target)
				if outliner {
					fmt.Fprintln(out, strings.Join(s.Scene().Outliner(), "\n"))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outFlag, "output", "o", "", "Write the normalised tree here instead of FILE")
	cmd.Flags().BoolVar(&outliner, "outliner", false, "Print the guide hierarchy")
	return cmd
}
