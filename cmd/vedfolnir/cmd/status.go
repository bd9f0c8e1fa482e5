package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vedfolnir/console/internal/api"
	"github.com/vedfolnir/console/internal/app"
	"github.com/vedfolnir/console/internal/config"
	"github.com/vedfolnir/console/internal/output"
	"github.com/vedfolnir/console/internal/realtime"

	"github.com/spf13/cobra"
)

var statusConnection bool

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show the current status of a caption generation task",
	Long: `Show the current status of a caption generation task.
With --connection, connect to the realtime endpoint and report the
connection statistics instead of (or in addition to) a task.`,
	Run:  statusRun,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	statusCmd.Flags().BoolVar(&statusConnection, "connection", false,
		"Show realtime connection statistics")
	rootCmd.AddCommand(statusCmd)
}

func statusRun(cmd *cobra.Command, args []string) {
	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		output.Errorf("failed to load configuration: %v", err)
		return
	}

	if statusConnection {
		showConnectionStatus(cmd, cfg)
	}

	if len(args) == 0 {
		if !statusConnection {
			output.Errorf("a task id is required unless --connection is set")
		}
		return
	}
	taskID := args[0]

	c := api.NewClient(cfg.APIEndpoint, api.Options{
		CSRFTokenSeed: cfg.CSRFTokenSeed,
		CSRFTokenTTL:  cfg.CSRFTokenTTL,
	}, slog.Default())

	status, err := c.GetTaskStatus(cmd.Context(), taskID)
	if err != nil {
		output.Errorf("failed to get task status: %v", err)
		return
	}

	printTaskStatus(status)
}

// showConnectionStatus connects to the realtime endpoint, waits for the
// connection to settle, and prints the cumulative statistics.
func showConnectionStatus(cmd *cobra.Command, cfg *config.Config) {
	a, err := app.New(cfg, slog.Default(), app.Options{})
	if err != nil {
		output.Errorf(err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	if err = a.Start(ctx); err != nil {
		output.Errorf("failed to connect: %v", err)
		return
	}
	defer a.Shutdown()

	for ctx.Err() == nil {
		switch a.Realtime().State() {
		case realtime.StateConnected, realtime.StateFailed, realtime.StateAuthError:
		default:
			time.Sleep(100 * time.Millisecond)
			continue
		}
		break
	}

	stats := a.Realtime().Stats()
	output.KeyValue("Connection", output.StatusBadge(string(stats.State)))
	output.KeyValue("Transport", stats.Transport)
	output.KeyValue("Reconnects", fmt.Sprintf("%d", stats.Reconnects))
	if stats.LastError != "" {
		output.KeyValue("Last error", stats.LastError)
	}
	if stats.ConnectedSinceS > 0 {
		uptime := time.Since(time.Unix(stats.ConnectedSinceS, 0))
		output.KeyValue("Uptime", output.Duration(uptime))
	}
	output.Blank()
}

func printTaskStatus(status *api.TaskStatus) {
	output.KeyValue("Task", status.TaskID)
	output.KeyValue("Status", output.StatusBadge(string(status.Status)))
	output.KeyValue("Progress", fmt.Sprintf("%.0f%%", status.ProgressPercent))
	if status.CurrentStep != "" {
		output.KeyValue("Current step", status.CurrentStep)
	}
	for k, v := range status.ProgressDetails {
		output.KeyValue(k, v)
	}

	if status.Results != nil {
		output.Blank()
		output.Successf("Generated %d captions across %d images",
			status.Results.CaptionsGenerated, status.Results.ImagesProcessed)
	}

	if status.ErrorMessage != "" {
		output.Blank()
		output.Errorf("%s", status.ErrorMessage)
		for _, s := range status.RecoverySuggestions {
			output.Infof("  %s", s)
		}
	}
}
