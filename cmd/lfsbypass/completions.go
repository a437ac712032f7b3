package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/lib"
	"github.com/spf13/cobra"
)

// manifestCompletions provides dynamic tab completion for chunked file names.
func manifestCompletions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// This completion function is for the first argument only.
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	projectDir := "."
	if dirFlag, err := cmd.Flags().GetString("directory"); err == nil && dirFlag != "" {
		projectDir = dirFlag
	}
	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	cfg, err := lib.LoadConfig(absProject)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	manifests, err := lib.ListManifests(cfg.ResolvePaths(absProject).ChunksDir)
	if err != nil {
		// Don't return an error, just fail to complete.
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var suggestions []string
	for _, m := range manifests {
		suggestions = append(suggestions, fmt.Sprintf("%s\t%s, %d chunks", m.FileName, humanize.IBytes(uint64(m.OriginalSize)), m.ChunkCount))
	}
	return suggestions, cobra.ShellCompDirectiveNoFileComp
}
