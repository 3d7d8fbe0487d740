// Command reportfire runs the schedule dispatcher and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/RezaEskandarii/reportfire/app"
	"github.com/RezaEskandarii/reportfire/types/config"
	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "reportfire",
		Short:         "Recurring report scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $REPORTFIRE_CONFIG)")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newHistoryCommand(),
		newSchedulesCommand(),
	)
	return root
}

// loadContainer reads the configuration and wires every dependency.
func loadContainer(ctx context.Context) (*app.Container, error) {
	cfg, err := config.Load(config.ConfigPath(cfgFile))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.NewContainer(ctx, cfg)
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
