package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reconquista/mailing-sync/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := root().ExecuteContext(ctx)

	stop()

	if err != nil {
		if !commands.Logged(err) {
			_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}

		os.Exit(1)
	}
}

func root() *cobra.Command {
	options := commands.NewOptions()

	cmd := &cobra.Command{
		Use:           commands.APP,
		Short:         "Publishes the mailing list query result to a Google Sheets worksheet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()

	flags.BoolVar(&options.Debug, "debug", options.Debug, "Enables debug logging")
	flags.StringVar(&options.BaseDir, "basedir", options.BaseDir, "Directory containing the .env file and the config/ and queries/ directories")
	flags.StringVar(&options.EnvFile, "env-file", options.EnvFile, "Environment file. Defaults to <basedir>/.env")
	flags.StringVar(&options.LogFormat, "log-format", options.LogFormat, "Log format (json or console)")

	cmd.AddCommand(commands.NewSyncCmd(options))
	cmd.AddCommand(commands.NewGetCmd(options))
	cmd.AddCommand(commands.NewVersionCmd())

	return cmd
}
