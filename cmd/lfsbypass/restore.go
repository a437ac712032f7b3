package main

import (
	"fmt"

	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/commands"
	"github.com/spf13/cobra"
)

// NewRestoreCommand creates the 'restore' command for the CLI.
func NewRestoreCommand() *cobra.Command {
	var projectDir string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "restore <file-name>",
		Short: "Reassemble a chunked file back to disk.",
		Long: `Reassembles a chunked file from its manifest, verifying every chunk and
the whole-file hash, and writes it to the output path. The file name may be
abbreviated to any unambiguous prefix.`,
		Args:              cobra.ExactArgs(1), // Requires exactly one argument: the file name.
		ValidArgsFunction: manifestCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := commands.Restore(projectDir, args[0], outputPath)
			return err
		},
	}

	cmd.Flags().StringVarP(&projectDir, "directory", "d", ".", "The project directory containing the chunks")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "File or directory to write to (defaults to the current directory)")

	return cmd
}

// NewVerifyCommand creates the 'verify' command for the CLI.
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [project-directory]",
		Short: "Check that every chunked file reassembles to its recorded hash.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			failures, err := commands.Verify(dir)
			if err != nil {
				return err
			}
			if len(failures) > 0 {
				return fmt.Errorf("%d chunked file(s) failed verification", len(failures))
			}
			return nil
		},
	}
	return cmd
}
