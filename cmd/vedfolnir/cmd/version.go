package cmd

import (
	"github.com/vedfolnir/console/internal/constants"
	"github.com/vedfolnir/console/internal/output"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the console version",
	Run: func(_ *cobra.Command, _ []string) {
		output.KeyValue("Version", *constants.GetVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
