package main

import (
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/commands"
	"github.com/spf13/cobra"
)

func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [project-directory]",
		Short: "List the chunked files of a project.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return commands.List(dir)
		},
	}
	return cmd
}
