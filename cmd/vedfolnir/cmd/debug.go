package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vedfolnir/console/internal/api"
	"github.com/vedfolnir/console/internal/app"
	"github.com/vedfolnir/console/internal/constants"
	"github.com/vedfolnir/console/internal/faults"
	"github.com/vedfolnir/console/internal/output"

	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Diagnostics: export error reports or serve them over HTTP",
}

var debugExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Probe the server and write a YAML diagnostic report",
	Long: `Probe the server endpoints, classify any failures, and write the
error history as a YAML report. Defaults to vedfolnir-debug.yaml.`,
	Run:  debugExportRun,
	Args: cobra.MaximumNArgs(1),
}

var debugServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the console with the local debug endpoint enabled",
	Long: `Run the realtime connection and session sync with the local debug
HTTP endpoint enabled, exposing /debug/errors, /debug/connection and
/debug/report until interrupted.`,
	Run: debugServeRun,
}

func init() {
	debugCmd.AddCommand(debugExportCmd)
	debugCmd.AddCommand(debugServeCmd)
	rootCmd.AddCommand(debugCmd)
}

func debugExportRun(cmd *cobra.Command, args []string) {
	outFile := "vedfolnir-debug.yaml"
	if len(args) == 1 {
		outFile = args[0]
	}

	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		output.Errorf("failed to load configuration: %v", err)
		return
	}

	c := api.NewClient(cfg.APIEndpoint, api.Options{
		CSRFTokenSeed: cfg.CSRFTokenSeed,
		CSRFTokenTTL:  cfg.CSRFTokenTTL,
	}, slog.Default())
	history := faults.NewHistory(constants.ErrorHistoryCap)

	// Probe the main endpoints so the report reflects current
	// connectivity, not just an empty history.
	probes := []struct {
		name string
		fn   func() error
	}{
		{"session", func() error {
			_, err := c.GetSessionState(cmd.Context())
			return err
		}},
		{"client-config", func() error {
			_, err := c.GetClientConfig(cmd.Context())
			return err
		}},
		{"csrf", func() error {
			_, err := c.CSRF().Token(cmd.Context())
			return err
		}},
	}

	failures := 0
	for _, p := range probes {
		if err := p.fn(); err != nil {
			failures++
			cat := history.Observe(err, p.name)
			output.Warningf("%s probe failed (%s): %v", p.name, cat, err)
		} else {
			output.Successf("%s probe ok", p.name)
		}
	}

	f, err := os.Create(outFile)
	if err != nil {
		output.Errorf("failed to create report file: %v", err)
		return
	}
	defer func() {
		_ = f.Close()
	}()

	if err = faults.WriteReport(f, faults.BuildReport(history)); err != nil {
		output.Errorf("failed to write report: %v", err)
		return
	}

	output.Blank()
	output.Successf("Report written to %s", output.Bold(outFile))
	output.KeyValue("Probes failed", fmt.Sprintf("%d of %d", failures, len(probes)))
}

func debugServeRun(cmd *cobra.Command, _ []string) {
	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		output.Errorf("failed to load configuration: %v", err)
		return
	}

	a, err := app.New(cfg, slog.Default(), app.Options{DebugServer: true})
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

	output.Successf("Debug endpoint listening on %s", output.Bold(cfg.DebugListenAddr))
	output.Infof("Try: curl http://%s/debug/connection", cfg.DebugListenAddr)
	output.Infof("Press Ctrl+C to stop")

	<-ctx.Done()
	output.Blank()
	output.Infof("Shutting down")
}
