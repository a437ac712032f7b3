package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verbose bool

func main() {
	var rootCmd = &cobra.Command{
		Use:   "lfsbypass",
		Short: "Split oversized WebGL assets into chunks and serve them reassembled.",
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add commands
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewSplitCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewRestoreCommand())
	rootCmd.AddCommand(NewVerifyCommand())
	rootCmd.AddCommand(NewPruneCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newLogger builds the server logger; --verbose switches to the development
// config with debug output.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
