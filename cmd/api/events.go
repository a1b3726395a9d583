package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/caseops-api/internal/model"
)

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect published domain events",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "tail",
		Short: "Print case manager replacement events as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Redis.URL == "" {
				return fmt.Errorf("redis.url is required to tail events")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			broker, err := openBroker(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer broker.Close()

			msgs, err := broker.Subscribe(ctx, model.AssignmentEventChannel)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for msg := range msgs {
				fmt.Fprintln(out, string(msg))
			}
			return nil
		},
	})

	return cmd
}
