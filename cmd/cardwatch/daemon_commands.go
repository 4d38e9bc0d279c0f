package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cardwatch/internal/daemonctl"
	"cardwatch/internal/ipc"
	"cardwatch/internal/textutil"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the cardwatch daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
				} else {
					fmt.Fprintln(stdout, "Daemon already running")
				}
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the cardwatch daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			} else {
				fmt.Fprintln(stdout, "Stopping frame loop...")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the cardwatch daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and watch loop status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(cmd, ctx)
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func runStatusCommand(cmd *cobra.Command, ctx *commandContext) error {
	cfg := ctx.configValue()
	statusResp := daemonctl.FetchStatus(ctx.socketPath())

	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range daemonStatusLines(statusResp, cfg != nil && strings.TrimSpace(cfg.Notifications.NtfyTopic) != "") {
		fmt.Fprintln(stdout, line.render(colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Watch Loop", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range loopStatusLines(statusResp) {
		fmt.Fprintln(stdout, line.render(colorize))
	}

	if !statusResp.Running {
		return nil
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Today", colorize) {
		fmt.Fprintln(stdout, line)
	}
	return ctx.withClient(func(client *ipc.Client) error {
		tasks, err := client.Tasks("")
		if err != nil {
			return err
		}
		rows := buildTaskCountRows(tasks.Tasks)
		if len(rows) == 0 {
			fmt.Fprintf(stdout, "No tasks recorded for %s\n", tasks.DailyID)
			return nil
		}
		fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, "Count"))
		return nil
	})
}

type statusLine struct {
	label   string
	kind    statusKind
	message string
}

func (l statusLine) render(colorize bool) string {
	return renderStatusLine(l.label, l.kind, l.message, colorize)
}

func daemonStatusLines(resp *ipc.StatusResponse, notifyConfigured bool) []statusLine {
	lines := make([]statusLine, 0, 4)
	if resp.Running {
		lines = append(lines, statusLine{"Cardwatch", statusOK, fmt.Sprintf("Running (pid %d)", resp.PID)})
		lines = append(lines, statusLine{"Task Store", statusOK, resp.StoreDBPath})
	} else {
		lines = append(lines, statusLine{"Cardwatch", statusWarn, "Not running (run `cardwatch start`)"})
	}
	lines = append(lines, statusLine{
		"Notifications",
		textutil.Ternary(notifyConfigured, statusOK, statusWarn),
		textutil.Ternary(notifyConfigured, "Configured", "Not configured"),
	})
	return lines
}

func loopStatusLines(resp *ipc.StatusResponse) []statusLine {
	if !resp.Running {
		return []statusLine{{"Frame Loop", statusInfo, "Inactive (daemon not running)"}}
	}

	loop := resp.Loop
	lines := make([]statusLine, 0, 6)
	lines = append(lines, statusLine{
		"Auto Triggering",
		textutil.Ternary(loop.Auto, statusOK, statusWarn),
		textutil.Ternary(loop.Auto, "Enabled", "Disabled (run `cardwatch auto`)"),
	})
	if loop.HasScanned {
		lines = append(lines, statusLine{"Initial Scan", statusOK, fmt.Sprintf("Done for %s", loop.DailyID)})
	} else {
		lines = append(lines, statusLine{"Initial Scan", statusInfo, "Waiting for a stable full page view"})
	}
	if loop.BaselineSet {
		lines = append(lines, statusLine{"Baseline", statusOK, fmt.Sprintf("%d symbols", loop.Baseline)})
	} else {
		lines = append(lines, statusLine{"Baseline", statusInfo, "Not established"})
	}
	cooldown := "None"
	if loop.ScanCooldown > 0 || loop.TurboCooldown > 0 {
		cooldown = fmt.Sprintf("scan %d, turbo %d frames remaining", loop.ScanCooldown, loop.TurboCooldown)
	}
	lines = append(lines, statusLine{"Cooldowns", statusInfo, cooldown})
	if loop.LastDecision != "" {
		lines = append(lines, statusLine{"Last Decision", statusInfo, loop.LastDecision})
	}
	if loop.LastError != "" {
		lines = append(lines, statusLine{"Last Error", statusError, loop.LastError})
	}
	return lines
}

func buildTaskCountRows(tasks []ipc.TaskView) [][]string {
	if len(tasks) == 0 {
		return nil
	}
	counts := map[string]int{}
	order := []string{"NOT_STARTED", "IN_PROGRESS", "COMPLETED", "MEETING"}
	var walk func([]ipc.TaskView)
	walk = func(views []ipc.TaskView) {
		for _, v := range views {
			counts[v.Status]++
			walk(v.Subtasks)
		}
	}
	walk(tasks)

	rows := make([][]string, 0, len(order))
	for _, status := range order {
		if counts[status] == 0 {
			continue
		}
		rows = append(rows, []string{status, fmt.Sprintf("%d", counts[status])})
	}
	return rows
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
