// internal/link/supervisor.go
package link

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
)

// Connector is a link that can (re)connect itself.
type Connector interface {
	Connected() bool
	Connect() error
}

// BackoffConfig bounds reconnect attempts.
type BackoffConfig struct {
	Initial time.Duration
	Max     time.Duration
}

// DefaultBackoff retries after 500ms, growing by 1.5x per failure up to 10s.
var DefaultBackoff = BackoffConfig{
	Initial: 500 * time.Millisecond,
	Max:     10 * time.Second,
}

// Supervisor keeps a link connected.
// While connected it only checks every Initial; after a failed attempt it
// waits an exponentially growing, jittered delay capped at Max. The delay
// resets after each successful connect. It never gives up.
type Supervisor struct {
	conn Connector
	cfg  BackoffConfig
	clk  clockwork.Clock
	log  *slog.Logger
}

// NewSupervisor creates a supervisor; zero config fields take defaults.
func NewSupervisor(conn Connector, cfg BackoffConfig, clk clockwork.Clock, log *slog.Logger) *Supervisor {
	if cfg.Initial <= 0 {
		cfg.Initial = DefaultBackoff.Initial
	}
	if cfg.Max <= 0 {
		cfg.Max = DefaultBackoff.Max
	}
	if cfg.Max < cfg.Initial {
		cfg.Max = cfg.Initial
	}
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{conn: conn, cfg: cfg, clk: clk, log: log}
}

// nextWait is the jittered delay before the next attempt, never above Max.
func (s *Supervisor) nextWait(b backoff.BackOff) time.Duration {
	d := b.NextBackOff()
	if d > s.cfg.Max {
		d = s.cfg.Max
	}
	return d
}

func (s *Supervisor) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.Initial
	b.MaxInterval = s.cfg.Max
	b.MaxElapsedTime = 0 // never stop
	b.Reset()
	return b
}

// Run checks the link immediately, then keeps checking until ctx is done.
func (s *Supervisor) Run(ctx context.Context) {
	b := s.newBackoff()
	failures := 0

	for {
		wait := s.cfg.Initial

		if !s.conn.Connected() {
			if err := s.conn.Connect(); err != nil {
				failures++
				wait = s.nextWait(b)
				// first failure and every tenth after that, to keep logs readable
				if failures == 1 || failures%10 == 0 {
					s.log.Warn("link connect failed", "err", err, "attempt", failures, "retry_in", wait)
				}
			} else {
				if failures > 0 {
					s.log.Info("link reconnected", "attempts", failures+1)
				}
				failures = 0
				b.Reset()
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-s.clk.After(wait):
		}
	}
}
