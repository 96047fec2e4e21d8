package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"armature/internal/components"
	"armature/internal/ddata"
	"armature/internal/naming"
	"armature/internal/rigfile"
	"armature/internal/tree"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Show the component tree stored in a rig file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			reg, err := components.NewRegistry(cfg.Convention())
			if err != nil {
				return err
			}
			root, err := rigfile.Load(args[0], reg)
			if err != nil {
				return err
			}
			writeTable(cmd.OutOrStdout(), []column{
				{title: "Component"},
				{title: "Type"},
				{title: "Parent"},
				{title: "Control"},
				{title: "Joint"},
			}, outlineRows(root))
			return nil
		},
	}
}

// outlineRows lists root's tree in pre-order, indented by depth, with the
// names the component's root control and first joint will get.
func outlineRows(root *tree.Node) [][]string {
	conv := ddata.Convention(root.Record())
	var rows [][]string
	for _, n := range root.Nodes() {
		id := n.Identity()
		parent := ""
		if up := n.Parent(1); up != nil {
			parent = up.Identity().String()
			if anchor, ok := n.Record().ParentAnchor(); ok && anchor.ComponentID == up.ID() {
				parent += "." + anchorLabel(anchor.Index)
			}
		}
		rows = append(rows, []string{
			strings.Repeat("  ", n.Depth()) + id.String(),
			n.Record().Type(),
			parent,
			naming.FormatName(id, conv, "root", "", naming.RuleCtl, false),
			naming.FormatName(id, conv, "0", "", naming.RuleJnt, false),
		})
	}
	return rows
}

func anchorLabel(idx int) string {
	if idx < 0 {
		return "last"
	}
	return strconv.Itoa(idx)
}
