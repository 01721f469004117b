package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskflow/taskflow/internal/task"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
	}

	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskCompleteCmd())
	cmd.AddCommand(newTaskStartCmd())
	cmd.AddCommand(newTaskReadyCmd())
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		configPath   string
		transcriptID string
		status       string
		priority     string
		assignee     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskList(cmd, configPath, task.ListFilters{
				TranscriptID: transcriptID,
				Status:       status,
				Priority:     priority,
				Assignee:     assignee,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskflow.yaml", "path to Taskflow config file")
	cmd.Flags().StringVar(&transcriptID, "transcript", "", "filter by transcript ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	cmd.Flags().StringVar(&assignee, "assignee", "", "filter by assignee")
	return cmd
}

func runTaskList(cmd *cobra.Command, configPath string, filters task.ListFilters) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	tasks, err := task.List(gormDB, filters)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return nil
	}

	titleWidth := titleColumnWidth()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRI\tEST\tASSIGNEE")
	for _, t := range tasks {
		a := t.Assignee
		if a == "" {
			a = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1fh\t%s\n",
			t.ID, truncate(t.Title, titleWidth), t.Status, t.Priority, t.EstimatedHours, a)
	}
	w.Flush()
	return nil
}

// titleColumnWidth sizes the title column to the terminal, leaving room
// for the fixed columns. Falls back to 40 when not attached to a tty.
func titleColumnWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 40
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 40
	}
	w := width - 70
	if w < 20 {
		return 20
	}
	if w > 80 {
		return 80
	}
	return w
}

func newTaskShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details and blockers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskflow.yaml", "path to Taskflow config file")
	return cmd
}

func runTaskShow(cmd *cobra.Command, configPath, id string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	t, err := task.Get(gormDB, id)
	if err != nil {
		return err
	}
	blocked, blockers, err := task.IsBlocked(gormDB, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:         %s\n", t.ID)
	fmt.Fprintf(out, "Title:      %s\n", t.Title)
	fmt.Fprintf(out, "Status:     %s\n", t.Status)
	fmt.Fprintf(out, "Priority:   %s\n", t.Priority)
	fmt.Fprintf(out, "Estimated:  %.1fh\n", t.EstimatedHours)
	if t.ActualHours > 0 {
		fmt.Fprintf(out, "Actual:     %.1fh\n", t.ActualHours)
	}
	if t.Assignee != "" {
		fmt.Fprintf(out, "Assignee:   %s\n", t.Assignee)
	}
	if t.Description != "" {
		fmt.Fprintf(out, "Description:\n  %s\n", t.Description)
	}
	if blocked {
		fmt.Fprintf(out, "Blocked by: %s\n", strings.Join(blockers, ", "))
	}
	return nil
}

func newTaskCompleteCmd() *cobra.Command {
	var (
		configPath  string
		actualHours float64
	)

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a task completed and unlock its dependents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskComplete(cmd, configPath, args[0], actualHours)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskflow.yaml", "path to Taskflow config file")
	cmd.Flags().Float64Var(&actualHours, "hours", 0, "actual hours spent")
	return cmd
}

func runTaskComplete(cmd *cobra.Command, configPath, id string, actualHours float64) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	res, err := task.Complete(gormDB, id, actualHours)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Completed %s\n", res.Task.ID)
	if len(res.Unlocked) > 0 {
		fmt.Fprintf(out, "Unlocked: %s\n", strings.Join(res.Unlocked, ", "))
	}
	return nil
}

func newTaskStartCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Move a task to in_progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			t, err := task.Start(gormDB, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started %s\n", t.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskflow.yaml", "path to Taskflow config file")
	return cmd
}

func newTaskReadyCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "ready <transcript-id>",
		Short: "List tasks whose prerequisites are all complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			tasks, err := task.ReadyTasks(gormDB, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No ready tasks.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tPRI\tEST")
			for _, t := range tasks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1fh\n",
					t.ID, truncate(t.Title, 40), t.Priority, t.EstimatedHours)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskflow.yaml", "path to Taskflow config file")
	return cmd
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
