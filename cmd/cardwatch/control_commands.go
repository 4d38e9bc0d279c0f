package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardwatch/internal/ipc"
)

func newControlCommands(ctx *commandContext) []*cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Queue a manual full extraction of the current sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Scan()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Queued {
					fmt.Fprintln(stdout, "Full scan queued")
					return nil
				}
				if resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Scan not queued")
				return nil
			})
		},
	}

	ocrCmd := &cobra.Command{
		Use:   "ocr",
		Short: "Queue a one-off OCR preview without updating the task store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Extract()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Queued {
					fmt.Fprintln(stdout, "OCR preview queued; results are written to the daemon log (cardwatch logs -f)")
					return nil
				}
				if resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
					return nil
				}
				fmt.Fprintln(stdout, "OCR preview not queued")
				return nil
			})
		},
	}

	turboCmd := &cobra.Command{
		Use:   "turbo",
		Short: "Queue a manual fast-path status and order update",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Turbo()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Queued {
					fmt.Fprintln(stdout, "Turbo update queued")
					return nil
				}
				if resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Turbo update not queued")
				return nil
			})
		},
	}

	autoCmd := &cobra.Command{
		Use:   "auto",
		Short: "Toggle automatic triggering",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ToggleAuto()
				if err != nil {
					return err
				}
				if resp.Auto {
					fmt.Fprintln(cmd.OutOrStdout(), "Automatic triggering enabled")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Automatic triggering disabled")
				}
				return nil
			})
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the initial-scan latch and snapshot cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.ResetLatch(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Trigger state reset; next stable full view runs a fresh initial scan")
				return nil
			})
		},
	}

	return []*cobra.Command{scanCmd, ocrCmd, turboCmd, autoCmd, resetCmd}
}
