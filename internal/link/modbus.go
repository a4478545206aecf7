// internal/link/modbus.go
package link

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goburrow/modbus"
)

// Config is minimal transport config.
type Config struct {
	Address string // host:port
	Rack    int
	Slot    int
	Timeout time.Duration
}

// session is one open connection. Blocks are addressed by unit id.
type session interface {
	SetUnit(unit byte)
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
	Close() error
}

type dialer func(cfg Config) (session, error)

var _ Link = (*Modbus)(nil)

type tcpSession struct {
	modbus.Client
	handler *modbus.TCPClientHandler
}

func (s *tcpSession) SetUnit(unit byte) { s.handler.SlaveId = unit }

func (s *tcpSession) Close() error { return s.handler.Close() }

func dialTCP(cfg Config) (session, error) {
	h := modbus.NewTCPClientHandler(cfg.Address)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &tcpSession{
		Client:  modbus.NewClient(h),
		handler: h,
	}, nil
}

// Modbus is a Link over Modbus TCP.
//
// A block id is the Modbus unit id of the controller's memory area, and the
// block bytes are its holding registers: byte 2k is the high byte of
// register k, so block byte order is preserved on the wire. Rack and slot
// identify the controller behind the gateway and are reported only.
//
// Requests are serialized because the unit id is mutated per request.
type Modbus struct {
	cfg  Config
	log  *slog.Logger
	dial dialer

	mu   sync.Mutex
	sess session

	connected atomic.Bool
	status    atomic.Value // string
}

// NewModbus creates an unconnected link. Call Connect, or run a Supervisor.
func NewModbus(cfg Config, log *slog.Logger) (*Modbus, error) {
	return newModbus(cfg, log, dialTCP)
}

func newModbus(cfg Config, log *slog.Logger, dial dialer) (*Modbus, error) {
	if cfg.Address == "" {
		return nil, errors.New("link modbus: address required")
	}
	if log == nil {
		log = slog.Default()
	}
	m := &Modbus{
		cfg:  cfg,
		log:  log.With("address", cfg.Address),
		dial: dial,
	}
	m.status.Store(StatusNotConnected)
	return m, nil
}

// Connect opens the connection if it is not already open.
// Failure returns a *ConnError and leaves the link disconnected.
func (m *Modbus) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess != nil && m.connected.Load() {
		return nil
	}
	m.dropLocked()

	sess, err := m.dial(m.cfg)
	if err != nil {
		cerr := &ConnError{Address: m.cfg.Address, Rack: m.cfg.Rack, Slot: m.cfg.Slot, Err: err}
		m.status.Store(err.Error())
		return cerr
	}

	m.sess = sess
	m.connected.Store(true)
	m.status.Store(StatusConnected)
	m.log.Info("link connected", "rack", m.cfg.Rack, "slot", m.cfg.Slot)
	return nil
}

// Connected reports whether the last connect or I/O left the link usable.
// It never blocks behind an in-flight request.
func (m *Modbus) Connected() bool {
	return m.connected.Load()
}

// Status is a human-readable connection status.
func (m *Modbus) Status() string {
	return m.status.Load().(string)
}

// Close drops the connection.
func (m *Modbus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.dropLocked()
	m.status.Store(StatusNotConnected)
	return err
}

// ReadBlock reads length bytes of block starting at the even byte offset.
func (m *Modbus) ReadBlock(block, offset, length int) ([]byte, error) {
	addr, qty, err := registerSpan(block, offset, length)
	if err != nil {
		return nil, &IOError{Op: "read", Block: block, Offset: offset, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return nil, &IOError{Op: "read", Block: block, Offset: offset, Err: errNotConnected}
	}

	m.sess.SetUnit(byte(block))
	raw, err := m.sess.ReadHoldingRegisters(addr, qty)
	if err != nil {
		m.failLocked(err)
		return nil, &IOError{Op: "read", Block: block, Offset: offset, Err: err}
	}
	if len(raw) < length {
		return nil, &IOError{
			Op: "read", Block: block, Offset: offset,
			Err: fmt.Errorf("short response: got %d bytes, want %d", len(raw), length),
		}
	}

	return raw[:length], nil
}

// WriteBlock writes data into block starting at the even byte offset.
// An odd-length payload is padded with one zero byte.
func (m *Modbus) WriteBlock(block, offset int, data []byte) error {
	addr, qty, err := registerSpan(block, offset, len(data))
	if err != nil {
		return &IOError{Op: "write", Block: block, Offset: offset, Err: err}
	}

	payload := data
	if len(payload)%2 != 0 {
		payload = append(append([]byte(nil), data...), 0)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return &IOError{Op: "write", Block: block, Offset: offset, Err: errNotConnected}
	}

	m.sess.SetUnit(byte(block))
	if _, err := m.sess.WriteMultipleRegisters(addr, qty, payload); err != nil {
		m.failLocked(err)
		return &IOError{Op: "write", Block: block, Offset: offset, Err: err}
	}

	return nil
}

var errNotConnected = errors.New("not connected")

// failLocked drops the session on transport errors.
// A Modbus exception means the device answered, so the connection is kept.
func (m *Modbus) failLocked(err error) {
	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return
	}

	m.log.Warn("link lost", "err", err)
	_ = m.dropLocked()
	m.status.Store(err.Error())
}

func (m *Modbus) dropLocked() error {
	m.connected.Store(false)
	if m.sess == nil {
		return nil
	}
	err := m.sess.Close()
	m.sess = nil
	return err
}

// registerSpan converts a byte range to a holding register range.
func registerSpan(block, offset, length int) (addr, qty uint16, err error) {
	switch {
	case block < 0 || block > 255:
		return 0, 0, fmt.Errorf("block id %d out of unit id range", block)
	case offset < 0 || offset%2 != 0:
		return 0, 0, fmt.Errorf("offset %d must be even and >= 0", offset)
	case length <= 0:
		return 0, 0, fmt.Errorf("length %d must be > 0", length)
	}

	regs := (length + 1) / 2
	if offset/2+regs > 0x10000 {
		return 0, 0, fmt.Errorf("range %d+%d exceeds register space", offset, length)
	}
	return uint16(offset / 2), uint16(regs), nil
}
