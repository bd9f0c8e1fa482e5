package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vedfolnir/console/internal/app"
	"github.com/vedfolnir/console/internal/constants"
	"github.com/vedfolnir/console/internal/output"

	"github.com/spf13/cobra"
)

var watchDebugServer bool

var watchCmd = &cobra.Command{
	Use:   "watch <task-id>",
	Short: "Track a caption generation task until it finishes",
	Long: `Track a caption generation task until it finishes.
Progress arrives over the realtime connection, with HTTP polling as a
staleness guard. On completion the review page URL is shown after a
short cancellable countdown.`,
	Run:  watchRun,
	Args: cobra.ExactArgs(1),
}

func init() {
	watchCmd.Flags().BoolVar(&watchDebugServer, "debug-server", false,
		"Serve error history and connection stats on the local debug endpoint")
	rootCmd.AddCommand(watchCmd)
}

func watchRun(cmd *cobra.Command, args []string) {
	taskID := args[0]
	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		output.Errorf("failed to load configuration: %v", err)
		return
	}

	a, err := app.New(cfg, slog.Default(), app.Options{DebugServer: watchDebugServer})
	if err != nil {
		output.Errorf(err.Error())
		return
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err = a.Start(ctx); err != nil {
		output.Errorf("failed to start: %v", err)
		return
	}
	defer a.Shutdown()

	output.Infof("Tracking task: %s", output.Bold(taskID))
	output.Infof("Press Ctrl+C to stop watching")
	output.Blank()

	state, err := a.Watch(ctx, taskID)
	if err != nil {
		if ctx.Err() != nil {
			output.Infof("Stopped watching")
			return
		}
		output.Errorf("tracking failed: %v", err)
		return
	}

	output.Blank()
	output.Infof("Task finished: %s", output.StatusBadge(string(state)))

	waitForRedirect(ctx, a)
}

// waitForRedirect keeps the process alive through the post-completion
// navigation countdown. Ctrl+C during the countdown cancels it.
func waitForRedirect(ctx context.Context, a *app.App) {
	if a.Redirector.Pending() == "" {
		return
	}

	output.Infof("Opening the review page in %s (Ctrl+C to cancel)",
		output.Duration(constants.RedirectCountdown))
	select {
	case <-ctx.Done():
		if a.Redirector.Cancel() {
			output.Infof("Navigation cancelled")
		}
	case <-time.After(constants.RedirectCountdown + time.Second):
	}
}
