package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/caseops-api/internal/config"
	"github.com/jwalitptl/caseops-api/pkg/logger"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "caseops",
		Short:         "Case access and manager assignment API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml (defaults to ./config/config.yaml)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newEventsCmd(opts))
	return cmd
}

// load reads configuration and installs the global zerolog logger.
func (o *rootOptions) load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	lg := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	})
	lg.SetGlobal()
	return cfg, lg, nil
}
