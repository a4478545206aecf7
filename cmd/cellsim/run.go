// cmd/cellsim/run.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the simulator against the configured controller",
		Long: `Run the simulator until interrupted.

The simulation runs whether or not the controller is reachable; the link is
retried in the background with exponential backoff.

Example:
  cellsim run --config cell.yaml
  CELLSIM_ADDRESS=10.0.0.5 cellsim run -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulator(cmd, opts)
		},
	}
}

func runSimulator(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts, os.Getenv)
	if err != nil {
		return err
	}

	log := slog.Default()

	c, err := build(cfg, clockwork.NewRealClock(), log)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := cfg.Simulator.Link
	log.Info("simulator starting",
		"address", l.Address,
		"rack", l.Rack,
		"slot", l.Slot,
		"command_block", l.CommandBlock,
		"status_block", l.StatusBlock,
		"monitor", cfg.Simulator.Monitor.Listen,
	)

	if err := c.run(ctx); err != nil {
		return err
	}

	log.Info("simulator stopped")
	return nil
}
