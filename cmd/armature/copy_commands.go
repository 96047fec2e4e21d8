package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"armature/internal/api"
	"armature/internal/guide"
	"armature/internal/mirror"
	"armature/internal/scene"
)

func newCopyCommand(ctx *commandContext) *cobra.Command {
	return newGuideCopyCommand(ctx, "copy", "Duplicate a component and its children", "Duplicated", (*api.Session).CopyGuide)
}

func newMirrorCommand(ctx *commandContext) *cobra.Command {
	return newGuideCopyCommand(ctx, "mirror", "Mirror a component and its children to the opposite side", "Mirrored", (*api.Session).MirrorGuide)
}

type copyFunc func(*api.Session, *scene.Object) (*mirror.Result, error)

func newGuideCopyCommand(ctx *commandContext, use, short, verb string, run copyFunc) *cobra.Command {
	var component string
	var outFlag string

	cmd := &cobra.Command{
		Use:   use + " FILE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			component = strings.TrimSpace(component)
			if component == "" {
				return fmt.Errorf("--component is required")
			}
			return ctx.withSession(func(s *api.Session) error {
				if _, err := s.Load(cmd.Context(), api.LoadRequest{Path: args[0], Guide: true}); err != nil {
					return err
				}
				target, err := s.FindComponent(component)
				if err != nil {
					return err
				}
				res, err := run(s, target)
				if err != nil {
					return err
				}
				root, err := guide.Read(guide.Top(res.Root), s.Registry())
				if err != nil {
					return err
				}
				dest := outputPath(outFlag, args[0])
				if err := s.SaveTree(dest, root); err != nil {
					return err
				}
				var created []string
				for _, n := range res.Tree.Nodes() {
					created = append(created, n.Identity().String())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s; saved to %s\n", verb, component, strings.Join(created, ", "), dest)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&component, "component", "", `Component to copy, e.g. "arm_L0"`)
	cmd.Flags().StringVarP(&outFlag, "output", "o", "", "Write the result here instead of FILE")
	return cmd
}
