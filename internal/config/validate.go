// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// maxBlockID is the largest block id the Modbus link can address (one unit id per block).
const maxBlockID = 255

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	s := cfg.Simulator

	// ------------------------------------------------------------
	// LINK VALIDATION
	// ------------------------------------------------------------

	if err := validateAddress(s.Link.Address); err != nil {
		return err
	}

	nonNegative := []struct {
		name string
		v    int
	}{
		{"link.rack", s.Link.Rack},
		{"link.slot", s.Link.Slot},
		{"link.command_block", s.Link.CommandBlock},
		{"link.status_block", s.Link.StatusBlock},
		{"link.block_offset", s.Link.BlockOffset},
	}
	for _, f := range nonNegative {
		if f.v < 0 {
			return fmt.Errorf("config: %s must be >= 0, got %d", f.name, f.v)
		}
	}

	if s.Link.CommandBlock > maxBlockID || s.Link.StatusBlock > maxBlockID {
		return fmt.Errorf(
			"config: block ids must be <= %d (command_block=%d status_block=%d)",
			maxBlockID,
			s.Link.CommandBlock,
			s.Link.StatusBlock,
		)
	}
	if s.Link.CommandBlock == s.Link.StatusBlock {
		return fmt.Errorf(
			"config: command_block and status_block must differ, both are %d",
			s.Link.CommandBlock,
		)
	}
	if s.Link.BlockOffset%2 != 0 {
		return fmt.Errorf("config: link.block_offset must be even, got %d", s.Link.BlockOffset)
	}

	if s.Link.TimeoutMs <= 0 {
		return fmt.Errorf("config: link.timeout_ms must be > 0, got %d", s.Link.TimeoutMs)
	}
	if s.Link.Backoff.InitialMs <= 0 {
		return fmt.Errorf("config: link.backoff.initial_ms must be > 0, got %d", s.Link.Backoff.InitialMs)
	}
	if s.Link.Backoff.MaxMs < s.Link.Backoff.InitialMs {
		return fmt.Errorf(
			"config: link.backoff.max_ms (%d) must be >= initial_ms (%d)",
			s.Link.Backoff.MaxMs,
			s.Link.Backoff.InitialMs,
		)
	}

	// ------------------------------------------------------------
	// EXCHANGE VALIDATION
	// ------------------------------------------------------------

	if s.Exchange.ReadIntervalMs <= 0 {
		return fmt.Errorf("config: exchange.read_interval_ms must be > 0, got %d", s.Exchange.ReadIntervalMs)
	}
	if s.Exchange.WriteIntervalMs <= 0 {
		return fmt.Errorf("config: exchange.write_interval_ms must be > 0, got %d", s.Exchange.WriteIntervalMs)
	}

	// ------------------------------------------------------------
	// DEVICE VALIDATION
	// ------------------------------------------------------------

	if s.Motion.MaxPosition <= s.Motion.MinPosition {
		return fmt.Errorf(
			"config: motion.max_position (%g) must be greater than min_position (%g)",
			s.Motion.MaxPosition,
			s.Motion.MinPosition,
		)
	}
	if s.Motion.Steps < 2 {
		return fmt.Errorf("config: motion.steps must be >= 2, got %d", s.Motion.Steps)
	}
	if s.Motion.StepMs < 0 {
		return fmt.Errorf("config: motion.step_ms must be >= 0, got %d", s.Motion.StepMs)
	}
	if s.Motor.TransitionMs < 0 {
		return fmt.Errorf("config: motor.transition_ms must be >= 0, got %d", s.Motor.TransitionMs)
	}

	// ------------------------------------------------------------
	// MONITOR VALIDATION (OPT-IN)
	// ------------------------------------------------------------

	if s.Monitor.Listen != "" {
		if _, _, err := net.SplitHostPort(s.Monitor.Listen); err != nil {
			return fmt.Errorf("config: monitor.listen %q: %w", s.Monitor.Listen, err)
		}
	}

	return nil
}

// validateAddress accepts "host" or "host:port".
func validateAddress(addr string) error {
	if addr == "" {
		return errors.New("config: link.address is required")
	}
	if strings.ContainsAny(addr, " \t/") {
		return fmt.Errorf("config: link.address %q is not a host or host:port", addr)
	}

	host, port := addr, ""
	if strings.Contains(addr, ":") && net.ParseIP(addr) == nil {
		h, p, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("config: link.address %q: %w", addr, err)
		}
		host, port = h, p
	}

	if host == "" {
		return fmt.Errorf("config: link.address %q has no host", addr)
	}
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("config: link.address %q: invalid port %q", addr, port)
		}
	}
	return nil
}
