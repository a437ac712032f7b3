package main

import (
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/commands"
	"github.com/spf13/cobra"
)

// NewPruneCommand creates the 'prune' command for the CLI.
func NewPruneCommand() *cobra.Command {
	var opts commands.PruneOptions

	cmd := &cobra.Command{
		Use:   "prune [project-directory]",
		Short: "Remove chunk files no manifest references.",
		Long: `Prunes the chunk directory by deleting chunk files that are not referenced
by any manifest, along with temporary files left by interrupted splits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			_, err := commands.Prune(dir, opts)
			return err
		},
	}

	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Only report what would be removed")

	return cmd
}
