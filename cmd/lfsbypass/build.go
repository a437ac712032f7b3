package main

import (
	"fmt"

	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/commands"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
	"github.com/spf13/cobra"
)

func NewBuildCommand() *cobra.Command {
	var opts commands.BuildOptions

	cmd := &cobra.Command{
		Use:   "build [build-directory]",
		Short: "Generate a server project from a WebGL build, splitting large files.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SourceDir = "."
			if len(args) > 0 {
				opts.SourceDir = args[0]
			}
			report, err := commands.Build(opts)
			if err != nil {
				return err
			}
			if len(report.Failures) > 0 {
				return fmt.Errorf("%d file(s) could not be split", len(report.Failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "./lfs-bypasser-server", "Output directory for the generated project")
	cmd.Flags().Int64VarP(&opts.ThresholdMB, "threshold", "t", lib.DefaultThresholdMB, "Size threshold in MB for splitting files")
	cmd.Flags().Int64Var(&opts.ChunkSize, "chunk-size", lib.DefaultChunkSize, "Chunk size in bytes")
	cmd.Flags().BoolVar(&opts.KeepOriginals, "keep-originals", false, "Keep split files in public/ as well")

	return cmd
}
