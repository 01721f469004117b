package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db"
	"github.com/taskflow/taskflow/internal/notify"
	"github.com/taskflow/taskflow/internal/notify/discord"
	"github.com/taskflow/taskflow/internal/notify/slack"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taskflow",
		Short: "Taskflow — task graphs from meeting transcripts",
		Long:  "Taskflow extracts tasks and dependencies from meeting transcripts, builds the dependency graph, and schedules the critical path.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWorkerCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newTranscriptCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newExportCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskflow %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	return cfg, gormDB, nil
}

// buildNotifier assembles the configured notification targets. Returns nil
// when none are configured.
func buildNotifier(cfg *config.Config) (notify.Notifier, error) {
	var targets notify.Multi

	if cfg.Notifiers.Slack.BotToken != "" {
		n, err := slack.New(slack.Opts{
			BotToken:  cfg.Notifiers.Slack.BotToken,
			ChannelID: cfg.Notifiers.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		targets = append(targets, n)
	}
	if cfg.Notifiers.Discord.BotToken != "" {
		n, err := discord.New(discord.Opts{
			BotToken:  cfg.Notifiers.Discord.BotToken,
			ChannelID: cfg.Notifiers.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		targets = append(targets, n)
	}

	if len(targets) == 0 {
		return nil, nil
	}
	return targets, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
