package commands

import (
	"github.com/spf13/cobra"
)

// VERSION is set at build time with -ldflags "-X github.com/reconquista/mailing-sync/commands.VERSION=v1.0.0"
var VERSION = "v0.0.0-dev"

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Displays the current version",
		Long:  "Displays the " + APP + " version in the format v<major>.<minor>.<patch> e.g. v1.0.2",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s\n", VERSION)
		},
	}
}
