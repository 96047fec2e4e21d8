package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"armature/internal/api"
	"armature/internal/build"
	"armature/internal/faults"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var opts build.Options
	var outliner bool

	cmd := &cobra.Command{
		Use:   "build FILE",
		Short: "Build the rig stored in a rig file in a scratch scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *api.Session) error {
				loaded, err := s.Load(cmd.Context(), api.LoadRequest{Path: args[0], Rig: true, Build: opts})
				if loaded == nil || loaded.Build == nil {
					return err
				}
				out := cmd.OutOrStdout()
				printBuildResult(cmd, loaded.Build)
				if outliner {
					fmt.Fprintln(out, strings.Join(s.Scene().Outliner(), "\n"))
				}
				if err != nil {
					return fmt.Errorf("build %s: %s", loaded.Build.Assembly, faults.Message(err))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.EndPoint, "end-point", "", "Stop after this phase (objects, attributes, operators, connections, cleanup)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Finalizer mode (normal, debug, pub)")
	cmd.Flags().StringArrayVar(&opts.Steps, "step", nil, `Extra custom step "name | path" or phase marker; repeatable`)
	cmd.Flags().BoolVar(&outliner, "outliner", false, "Print the scene hierarchy after the build")
	return cmd
}

func printBuildResult(cmd *cobra.Command, res *build.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	phases := make([]string, 0, len(res.Completed))
	for _, p := range res.Completed {
		phases = append(phases, string(p))
	}
	lines := []string{
		renderStatusLine("Assembly", statusInfo, res.Assembly, colorize),
		renderStatusLine("Build", statusInfo, res.BuildID, colorize),
		renderStatusLine("Status", buildStatusKind(res.Status), string(res.Status), colorize),
		renderStatusLine("End point", statusInfo, string(res.EndPoint), colorize),
		renderStatusLine("Mode", statusInfo, string(res.Mode), colorize),
		renderStatusLine("Phases", statusInfo, listOrNone(phases), colorize),
		renderStatusLine("Steps run", statusInfo, listOrNone(res.StepsRun), colorize),
	}
	if len(res.StepsSkipped) > 0 {
		lines = append(lines, renderStatusLine("Steps skipped", statusWarn, strings.Join(res.StepsSkipped, ", "), colorize))
	}
	if res.Err != nil {
		lines = append(lines, renderStatusLine("Error", statusError, faults.Message(res.Err), colorize))
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
