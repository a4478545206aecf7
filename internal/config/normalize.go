// internal/config/normalize.go
package config

import (
	"net"
	"strings"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	l := &cfg.Simulator.Link
	l.Address = strings.TrimSpace(l.Address)

	// ------------------------------------------------------------
	// ADDRESS NORMALIZATION
	// ------------------------------------------------------------

	// Bare hosts and bare IPs (v4 or v6) get the Modbus TCP port.
	if _, _, err := net.SplitHostPort(l.Address); err != nil {
		l.Address = net.JoinHostPort(l.Address, DefaultModbusPort)
	}

	// Backoff cap never below the first delay.
	if l.Backoff.MaxMs < l.Backoff.InitialMs {
		l.Backoff.MaxMs = l.Backoff.InitialMs
	}
}
