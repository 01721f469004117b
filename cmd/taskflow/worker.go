package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/analysis"
	"github.com/taskflow/taskflow/internal/extract"
	"github.com/taskflow/taskflow/internal/schedule"
	"github.com/taskflow/taskflow/internal/worker"
)

func newWorkerCmd() *cobra.Command {
	var (
		configPath string
		slots      int
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Start the analysis worker daemon",
		Long:  "Polls the job queue and executes analysis and export jobs. Run one or more of these alongside the API server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd, configPath, slots)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskflow.yaml", "path to Taskflow config file")
	cmd.Flags().IntVar(&slots, "slots", 0, "concurrent job slots (overrides config)")
	return cmd
}

func runWorker(cmd *cobra.Command, configPath string, slots int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if slots == 0 {
		slots = cfg.Worker.Slots
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, draining worker slots...\n", sig)
		cancel()
	}()

	daemon := &worker.Daemon{
		DB: gormDB,
		Runner: &analysis.Runner{
			DB:        gormDB,
			Extractor: extract.Heuristic{},
			Notifier:  notifier,
			Schedule:  schedule.Options{HoursPerDay: cfg.Schedule.HoursPerDay},
		},
		Slots:          slots,
		PollInterval:   time.Duration(cfg.Worker.PollIntervalSec) * time.Second,
		JobTimeout:     time.Duration(cfg.Worker.JobTimeoutSec) * time.Second,
		ReaperSchedule: cfg.Worker.ReaperSchedule,
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Worker started with %d slots\n", slots)
	return daemon.Start(ctx)
}
