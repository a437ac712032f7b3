package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gingerrexayers/lfsbypass/internal/lfsbypass/commands"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the 'serve' command for the CLI.
func NewServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [project-directory]",
		Short: "Serve a generated project, reassembling chunked files on demand.",
		Long: `Serves the public/ directory of a generated project. Requests for files
that were split are answered with the reassembled, hash-verified content,
which is cached in memory for the configured lifetime.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir := "."
			if len(args) > 0 {
				projectDir = args[0]
			}

			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return commands.Serve(ctx, commands.ServeOptions{
				ProjectDir: projectDir,
				Addr:       addr,
				Logger:     logger,
			})
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config and PORT)")

	return cmd
}
