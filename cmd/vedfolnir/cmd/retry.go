package cmd

import (
	"log/slog"

	"github.com/vedfolnir/console/internal/api"
	"github.com/vedfolnir/console/internal/output"

	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry <task-id>",
	Short: "Retry a failed caption generation task",
	Long: `Retry a failed caption generation task.
The server re-creates the task with its original parameters and returns
a new task ID to watch.`,
	Run:  retryRun,
	Args: cobra.ExactArgs(1),
}

func init() {
	rootCmd.AddCommand(retryCmd)
}

func retryRun(cmd *cobra.Command, args []string) {
	taskID := args[0]
	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		output.Errorf("failed to load configuration: %v", err)
		return
	}

	c := api.NewClient(cfg.APIEndpoint, api.Options{
		CSRFTokenSeed: cfg.CSRFTokenSeed,
		CSRFTokenTTL:  cfg.CSRFTokenTTL,
	}, slog.Default())

	resp, err := c.RetryTask(cmd.Context(), taskID)
	if err != nil {
		output.Errorf("failed to retry task: %v", err)
		return
	}

	output.Successf("Task retried")
	if resp.NewTaskID != "" {
		output.KeyValue("New task", resp.NewTaskID)
		output.Infof("Watch it with: %s", output.Bold("vedfolnir watch "+resp.NewTaskID))
	}
}
