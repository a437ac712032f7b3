package main

import (
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/commands"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
	"github.com/spf13/cobra"
)

func NewSplitCommand() *cobra.Command {
	var chunksDir string
	var chunkSize int64

	cmd := &cobra.Command{
		Use:   "split <file>",
		Short: "Split a single file into chunks and a manifest.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := commands.Split(args[0], chunksDir, chunkSize)
			return err
		},
	}

	cmd.Flags().StringVarP(&chunksDir, "chunks-dir", "c", lib.ChunksDirName, "Directory to write chunks and the manifest to")
	cmd.Flags().Int64Var(&chunkSize, "chunk-size", lib.DefaultChunkSize, "Chunk size in bytes")

	return cmd
}
