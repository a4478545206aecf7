// internal/exchange/writer.go
package exchange

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/tamzrod/cellsim/internal/signals"
	"github.com/tamzrod/cellsim/internal/status"
)

// LoopWrite names the write loop in logs and health.
const LoopWrite = "write"

// Writer pushes the simulated sensor state into the status block.
// It carries no state between ticks: a failed tick is simply redone by the next one.
type Writer struct {
	cfg    Config
	link   Link
	source StatusSource
	clk    clockwork.Clock
	log    *slog.Logger
	health *status.Tracker
}

// NewWriter creates a write loop with immutable config.
func NewWriter(cfg Config, link Link, source StatusSource, clk clockwork.Clock, log *slog.Logger) (*Writer, error) {
	if cfg.WriteInterval <= 0 {
		return nil, errors.New("exchange: write interval must be > 0")
	}
	if link == nil || source == nil {
		return nil, errors.New("exchange: writer needs a link and a status source")
	}
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Writer{
		cfg:    cfg,
		link:   link,
		source: source,
		clk:    clk,
		log:    log.With("loop", LoopWrite, "block", cfg.StatusBlock),
		health: status.NewTracker(LoopWrite, clk),
	}, nil
}

// Health returns the loop's health tracker.
func (w *Writer) Health() *status.Tracker { return w.health }

// WriteOnce performs exactly one write tick.
// The status block is always computed; it is written only while connected.
func (w *Writer) WriteOnce() TickResult {
	res := TickResult{Loop: LoopWrite, At: w.clk.Now()}

	buf := make([]byte, signals.BlockSize)
	if err := signals.EncodeStatusInto(buf, w.source.CurrentSignals()); err != nil {
		res.Err = err
		return res
	}
	res.Block = buf

	if !w.link.Connected() {
		res.Skipped = true
		return res
	}

	if err := w.link.WriteBlock(w.cfg.StatusBlock, w.cfg.Offset, buf); err != nil {
		res.Err = err
	}
	return res
}

// Run starts the ticker loop, independent of the read loop's period.
func (w *Writer) Run(ctx context.Context) {
	ticker := w.clk.NewTicker(w.cfg.WriteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			report(w.log, w.health, w.WriteOnce())
		}
	}
}
