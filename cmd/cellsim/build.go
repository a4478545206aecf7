// cmd/cellsim/build.go
package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/cellsim/internal/config"
	"github.com/tamzrod/cellsim/internal/device"
	"github.com/tamzrod/cellsim/internal/exchange"
	"github.com/tamzrod/cellsim/internal/link"
	"github.com/tamzrod/cellsim/internal/monitor"
	"github.com/tamzrod/cellsim/internal/process"
)

// ---- config -> runtime config ----

func processConfig(c *config.Config) process.Config {
	m := c.Simulator.Motion
	return process.Config{
		Motion: device.MotionConfig{
			Min:          m.MinPosition,
			Max:          m.MaxPosition,
			Steps:        m.Steps,
			StepDuration: m.StepDuration(),
		},
		MotorDelay: c.Simulator.Motor.TransitionDelay(),
	}
}

func linkConfig(c *config.Config) link.Config {
	l := c.Simulator.Link
	return link.Config{
		Address: l.Address,
		Rack:    l.Rack,
		Slot:    l.Slot,
		Timeout: l.Timeout(),
	}
}

func backoffConfig(c *config.Config) link.BackoffConfig {
	b := c.Simulator.Link.Backoff
	return link.BackoffConfig{
		Initial: b.Initial(),
		Max:     b.Max(),
	}
}

func exchangeConfig(c *config.Config) exchange.Config {
	l := c.Simulator.Link
	e := c.Simulator.Exchange
	return exchange.Config{
		CommandBlock:  l.CommandBlock,
		StatusBlock:   l.StatusBlock,
		Offset:        l.BlockOffset,
		ReadInterval:  e.ReadInterval(),
		WriteInterval: e.WriteInterval(),
	}
}

// cell is one fully wired simulator.
type cell struct {
	model      *process.Model
	link       *link.Modbus
	supervisor *link.Supervisor
	reader     *exchange.Reader
	writer     *exchange.Writer
	monitor    *monitor.Monitor // nil when disabled
	listen     string
	log        *slog.Logger
}

// build wires every component. Nothing runs and nothing is dialed yet.
// Assumes config has already passed Validate and Normalize.
func build(c *config.Config, clk clockwork.Clock, log *slog.Logger) (*cell, error) {
	if log == nil {
		log = slog.Default()
	}

	model, err := process.New(processConfig(c), clk, log)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	mb, err := link.NewModbus(linkConfig(c), log)
	if err != nil {
		return nil, fmt.Errorf("build link: %w", err)
	}

	xcfg := exchangeConfig(c)
	reader, err := exchange.NewReader(xcfg, mb, model, clk, log)
	if err != nil {
		return nil, fmt.Errorf("build read loop: %w", err)
	}
	writer, err := exchange.NewWriter(xcfg, mb, model, clk, log)
	if err != nil {
		return nil, fmt.Errorf("build write loop: %w", err)
	}

	cl := &cell{
		model:      model,
		link:       mb,
		supervisor: link.NewSupervisor(mb, backoffConfig(c), clk, log),
		reader:     reader,
		writer:     writer,
		listen:     c.Simulator.Monitor.Listen,
		log:        log,
	}

	if cl.listen != "" {
		mon, err := monitor.New(model, mb, []monitor.HealthSource{reader.Health(), writer.Health()}, log)
		if err != nil {
			return nil, fmt.Errorf("build monitor: %w", err)
		}
		cl.monitor = mon
	}

	return cl, nil
}

// run blocks until ctx is done or a component fails, then lets in-flight
// transitions finish and closes the link.
func (c *cell) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { c.supervisor.Run(gctx); return nil })
	g.Go(func() error { c.reader.Run(gctx); return nil })
	g.Go(func() error { c.writer.Run(gctx); return nil })
	g.Go(func() error { c.reader.Health().Run(gctx); return nil })
	g.Go(func() error { c.writer.Health().Run(gctx); return nil })

	if c.monitor != nil {
		g.Go(func() error { return c.monitor.Serve(gctx, c.listen) })
	}

	err := g.Wait()

	// Loops are stopped, so no new command can start a transition.
	c.model.Wait()

	if cerr := c.link.Close(); cerr != nil {
		c.log.Warn("link close failed", "err", cerr)
	}
	return err
}
