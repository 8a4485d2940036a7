package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/velvet-rope/internal/observability"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted pipeline stage and artifact counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(context.Background(), cfg, appOptions{Offline: true})
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		observability.NewPrinter(cmd.OutOrStdout()).PrintStatus(a.orchestrator.State())
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the persisted pipeline and start over at upload",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(context.Background(), cfg, appOptions{Offline: true})
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		state, err := a.orchestrator.Reset(cmd.Context())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pipeline reset to %s (%s)\n", state.CurrentStage, state.CurrentStage.Label())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, resetCmd)
}
