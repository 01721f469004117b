package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/analysis"
	"github.com/taskflow/taskflow/internal/extract"
	"github.com/taskflow/taskflow/internal/schedule"
	"github.com/taskflow/taskflow/internal/transcript"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <transcript-file>",
		Short: "Upload and analyze a transcript in one step",
		Long:  "Reads a transcript file, stores it, runs the analysis synchronously, and prints the resulting task graph summary.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, configPath, args[0], force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskflow.yaml", "path to Taskflow config file")
	cmd.Flags().BoolVar(&force, "force", false, "re-analyze even if a completed analysis exists")
	return cmd
}

func runAnalyze(cmd *cobra.Command, configPath, path string, force bool) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	out := cmd.OutOrStdout()

	created, err := transcript.Create(gormDB, transcript.CreateOpts{
		Filename: filepath.Base(path),
		Content:  string(content),
	})
	if err != nil {
		return err
	}
	if created.Duplicate {
		fmt.Fprintf(out, "Transcript already uploaded as %s\n", created.Transcript.ID)
	} else {
		fmt.Fprintf(out, "Uploaded transcript %s\n", created.Transcript.ID)
	}

	key := "cli-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	started, err := analysis.Start(gormDB, created.Transcript.ID, key, force)
	if err != nil {
		return err
	}
	if started.IsExisting {
		fmt.Fprintf(out, "Reusing job %s (%s)\n", started.JobID, started.Status)
		if started.Status == "completed" {
			return nil
		}
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	runner := &analysis.Runner{
		DB:        gormDB,
		Extractor: extract.Heuristic{},
		Notifier:  notifier,
		Schedule:  schedule.Options{HoursPerDay: cfg.Schedule.HoursPerDay},
	}
	if err := runner.Run(context.Background(), started.JobID); err != nil {
		return err
	}

	view, err := analysis.ComputeGraph(gormDB, created.Transcript.ID,
		schedule.Options{HoursPerDay: cfg.Schedule.HoursPerDay})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Analysis complete: %d tasks, %d dependencies\n", view.NodesCount, view.EdgesCount)
	if !view.IsDAG {
		fmt.Fprintf(out, "Warning: cyclic dependencies detected (%s); cycle members were blocked\n",
			strings.Join(view.Cycle, " -> "))
		return nil
	}
	fmt.Fprintf(out, "Critical path (%d tasks, %.1fh / %.1f days):\n",
		view.CriticalPathLength, view.TotalDurationHours, view.TotalDurationDays)
	for _, id := range view.CriticalPath {
		fmt.Fprintf(out, "  %s\n", id)
	}
	return nil
}
