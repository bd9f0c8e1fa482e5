package cmd

import (
	"log/slog"
	"strconv"

	"github.com/vedfolnir/console/internal/api"
	"github.com/vedfolnir/console/internal/output"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the current session state",
	Long:  `Show the server-authoritative session state: user and active platform`,
	Run:   sessionRun,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

func sessionRun(cmd *cobra.Command, _ []string) {
	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		output.Errorf("failed to load configuration: %v", err)
		return
	}

	c := api.NewClient(cfg.APIEndpoint, api.Options{
		CSRFTokenSeed: cfg.CSRFTokenSeed,
		CSRFTokenTTL:  cfg.CSRFTokenTTL,
	}, slog.Default())

	state, err := c.GetSessionState(cmd.Context())
	if err != nil {
		output.Errorf("failed to get session state: %v", err)
		return
	}

	if !state.Authenticated {
		output.Warningf("Not authenticated. Log in at %s", output.Cyan(cfg.WebURL+"/login"))
		return
	}

	output.Successf("Authenticated")
	if state.User != nil {
		output.KeyValue("User", state.User.Username)
		output.KeyValue("Email", state.User.Email)
	}
	if state.Platform != nil {
		output.KeyValue("Platform", state.Platform.Name)
		output.KeyValue("Type", state.Platform.PlatformType)
		output.KeyValue("Platform ID", strconv.Itoa(state.Platform.ID))
	} else {
		output.Infof("No active platform selected")
	}
}
