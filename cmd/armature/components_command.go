package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"armature/internal/components"
)

func newComponentsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List the registered component types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			reg, err := components.NewRegistry(cfg.Convention())
			if err != nil {
				return err
			}
			var rows [][]string
			for _, typ := range reg.Types() {
				def, err := reg.Lookup(typ)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					def.Type,
					strconv.Itoa(def.Recipe.Anchors()),
					strconv.Itoa(len(def.Schema.Fields())),
					def.Description,
				})
			}
			writeTable(cmd.OutOrStdout(), []column{
				{title: "Type"},
				{title: "Anchors", right: true},
				{title: "Fields", right: true},
				{title: "Description"},
			}, rows)
			return nil
		},
	}
}
