package cmd

import (
	"log/slog"

	"github.com/vedfolnir/console/internal/api"
	"github.com/vedfolnir/console/internal/output"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel a running caption generation task",
	Long:  `Cancel a running caption generation task`,
	Run:   cancelRun,
	Args:  cobra.ExactArgs(1),
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func cancelRun(cmd *cobra.Command, args []string) {
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

	resp, err := c.CancelTask(cmd.Context(), taskID)
	if err != nil {
		output.Errorf("failed to cancel task: %v", err)
		return
	}

	output.Successf("Task %s cancelled", output.Bold(taskID))
	if resp.Message != "" {
		output.Infof("%s", resp.Message)
	}
}
