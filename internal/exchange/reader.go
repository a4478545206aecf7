// internal/exchange/reader.go
package exchange

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/tamzrod/cellsim/internal/signals"
	"github.com/tamzrod/cellsim/internal/status"
)

// LoopRead names the read loop in logs and health.
const LoopRead = "read"

// Reader is a dumb, clock-driven reader of the command block.
type Reader struct {
	cfg    Config
	link   Link
	sink   CommandSink
	clk    clockwork.Clock
	log    *slog.Logger
	health *status.Tracker
}

// NewReader creates a read loop with immutable config.
func NewReader(cfg Config, link Link, sink CommandSink, clk clockwork.Clock, log *slog.Logger) (*Reader, error) {
	if cfg.ReadInterval <= 0 {
		return nil, errors.New("exchange: read interval must be > 0")
	}
	if link == nil || sink == nil {
		return nil, errors.New("exchange: reader needs a link and a command sink")
	}
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reader{
		cfg:    cfg,
		link:   link,
		sink:   sink,
		clk:    clk,
		log:    log.With("loop", LoopRead, "block", cfg.CommandBlock),
		health: status.NewTracker(LoopRead, clk),
	}, nil
}

// Health returns the loop's health tracker.
func (r *Reader) Health() *status.Tracker { return r.health }

// ReadOnce performs exactly one read tick.
// All-or-nothing: commands are applied only if the read and decode succeed.
func (r *Reader) ReadOnce() TickResult {
	res := TickResult{Loop: LoopRead, At: r.clk.Now()}

	if !r.link.Connected() {
		res.Skipped = true
		return res
	}

	buf, err := r.link.ReadBlock(r.cfg.CommandBlock, r.cfg.Offset, signals.BlockSize)
	if err != nil {
		res.Err = err
		return res
	}
	res.Block = buf

	cmd, err := signals.DecodeCommands(buf)
	if err != nil {
		res.Err = err
		return res
	}

	r.sink.ApplyCommands(cmd)
	return res
}

// Run starts the ticker loop. One goroutine. No overlap.
// No error ends the loop; only ctx does.
func (r *Reader) Run(ctx context.Context) {
	ticker := r.clk.NewTicker(r.cfg.ReadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			report(r.log, r.health, r.ReadOnce())
		}
	}
}
