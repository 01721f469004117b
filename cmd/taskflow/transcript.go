package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/analysis"
	"github.com/taskflow/taskflow/internal/transcript"
)

func newTranscriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Transcript management commands",
	}

	cmd.AddCommand(newTranscriptListCmd())
	cmd.AddCommand(newTranscriptShowCmd())
	cmd.AddCommand(newTranscriptRetryCmd())
	return cmd
}

func newTranscriptListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscriptList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskflow.yaml", "path to Taskflow config file")
	return cmd
}

func runTranscriptList(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	transcripts, err := transcript.List(gormDB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(transcripts) == 0 {
		fmt.Fprintln(out, "No transcripts found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILENAME\tSTATUS\tUPLOADED")
	for _, tr := range transcripts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			tr.ID, truncate(tr.Filename, 40), tr.Status, tr.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	return nil
}

func newTranscriptShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show transcript details and analysis state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscriptShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskflow.yaml", "path to Taskflow config file")
	return cmd
}

func runTranscriptShow(cmd *cobra.Command, configPath, id string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	tr, err := transcript.Get(gormDB, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", tr.ID)
	fmt.Fprintf(out, "Filename: %s\n", tr.Filename)
	fmt.Fprintf(out, "Status:   %s\n", tr.Status)
	fmt.Fprintf(out, "Uploaded: %s\n", tr.CreatedAt.Format("2006-01-02 15:04:05"))
	if tr.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:    %s\n", tr.ErrorMessage)
	}
	if tr.AnalysisResult != "" {
		fmt.Fprintf(out, "Last analysis: %s\n", tr.AnalysisResult)
	}

	jobs, err := analysis.ListJobs(gormDB, analysis.JobFilters{TranscriptID: id})
	if err != nil {
		return err
	}
	if len(jobs) > 0 {
		fmt.Fprintf(out, "\nJobs (%d):\n", len(jobs))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tTYPE\tSTATUS\tPROGRESS")
		for _, j := range jobs {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%d%%\n", j.ID, j.JobType, j.Status, j.Progress)
		}
		w.Flush()
	}
	return nil
}

func newTranscriptRetryCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "retry <id>",
		Short: "Queue a fresh analysis for a failed transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscriptRetry(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskflow.yaml", "path to Taskflow config file")
	return cmd
}

func runTranscriptRetry(cmd *cobra.Command, configPath, id string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	res, err := analysis.Retry(gormDB, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Queued job %s\n", res.JobID)
	return nil
}
