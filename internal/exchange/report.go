// internal/exchange/report.go
package exchange

import (
	"errors"
	"log/slog"

	"github.com/tamzrod/cellsim/internal/signals"
	"github.com/tamzrod/cellsim/internal/status"
)

// report feeds a tick into the loop's health and logs health changes only,
// so a dead link does not produce a line per tick.
func report(log *slog.Logger, health *status.Tracker, res TickResult) {
	switch {
	case res.Skipped:
		if health.Skip() {
			log.Info("link down, skipping device I/O")
		}

	case res.Err != nil:
		changed := health.Observe(res.Err)

		// Block layout mismatch is a configuration error, not a transient one.
		var sizeErr *signals.SizeError
		if errors.As(res.Err, &sizeErr) {
			if changed {
				log.Error("block size mismatch, check block configuration", "err", res.Err)
			}
			return
		}
		if changed {
			log.Warn("tick failed, retrying next tick", "err", res.Err)
		}

	default:
		if health.Observe(nil) {
			log.Info("exchange ok")
		}
	}
}
