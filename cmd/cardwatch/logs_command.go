package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"cardwatch/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logPath := filepath.Join(cfg.Paths.LogDir, "cardwatch.log")
			stdout := cmd.OutOrStdout()

			recent, offset, err := logs.Last(logPath, lines)
			if err != nil {
				return err
			}
			if len(recent) == 0 && !follow {
				fmt.Fprintf(stdout, "No log output at %s\n", logPath)
				return nil
			}
			for _, line := range recent {
				fmt.Fprintln(stdout, line)
			}
			if !follow {
				return nil
			}

			err = logs.Follow(cmd.Context(), logPath, offset, func(batch []string) {
				for _, line := range batch {
					fmt.Fprintln(stdout, line)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new log lines until interrupted")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	return cmd
}
