package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		configPath string
		format     string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export <transcript-id>",
		Short: "Export a transcript's tasks and dependencies to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, configPath, args[0], format, outPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskflow.yaml", "path to Taskflow config file")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "export format (json or csv)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (defaults to the generated name)")
	return cmd
}

func runExport(cmd *cobra.Command, configPath, transcriptID, format, outPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	res, err := export.Transcript(gormDB, transcriptID, format)
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = res.Filename
	}
	if err := os.WriteFile(outPath, res.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(res.Data), outPath)
	return nil
}
