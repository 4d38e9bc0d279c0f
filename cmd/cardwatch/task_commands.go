package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cardwatch/internal/ipc"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks [daily-id]",
		Short: "Show the stored task tree for a day (defaults to today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dailyID := ""
			if len(args) == 1 {
				dailyID = strings.TrimSpace(args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Tasks(dailyID)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Tasks) == 0 {
					fmt.Fprintf(stdout, "No tasks recorded for %s\n", resp.DailyID)
					return nil
				}
				fmt.Fprintf(stdout, "Tasks for %s\n", resp.DailyID)
				rows := taskRows(resp.Tasks, 0)
				fmt.Fprintln(stdout, renderTable(
					[]string{"Task", "Status", "Started", "Completed", "Project"},
					rows,
				))
				return nil
			})
		},
	}
}

func taskRows(tasks []ipc.TaskView, depth int) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		name := strings.Repeat("  ", depth) + t.Name
		rows = append(rows, []string{name, t.Status, t.StartedAt, t.CompletedAt, t.ProjectRef})
		rows = append(rows, taskRows(t.Subtasks, depth+1)...)
	}
	return rows
}

func newDailiesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dailies",
		Short: "List recorded days, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Dailies()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.DailyIDs) == 0 {
					fmt.Fprintln(stdout, "No daily records yet")
					return nil
				}
				for _, id := range resp.DailyIDs {
					fmt.Fprintln(stdout, id)
				}
				return nil
			})
		},
	}
}

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the project catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Projects()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Projects) == 0 {
					fmt.Fprintln(stdout, "Project catalog is empty")
					return nil
				}
				rows := make([][]string, 0, len(resp.Projects))
				for _, p := range resp.Projects {
					rows = append(rows, []string{p.Name, p.Description})
				}
				fmt.Fprintln(stdout, renderTable([]string{"Project", "Description"}, rows))
				return nil
			})
		},
	}
}
