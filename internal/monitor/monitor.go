// internal/monitor/monitor.go

// Package monitor serves the cell state as JSON for displays and lets an
// operator inject a command block when no controller is attached.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tamzrod/cellsim/internal/link"
	"github.com/tamzrod/cellsim/internal/process"
	"github.com/tamzrod/cellsim/internal/signals"
	"github.com/tamzrod/cellsim/internal/status"
)

// Model is the part of the process model the monitor reads and drives.
type Model interface {
	Snapshot() process.Snapshot
	ApplyCommands(cmd signals.CommandSignals)
}

// LinkStatus reports the controller connection.
type LinkStatus interface {
	Connected() bool
	Status() string
}

// HealthSource is one loop's health, usually a *status.Tracker.
type HealthSource interface {
	Snapshot() status.Snapshot
}

// LinkView is the connection part of a snapshot.
type LinkView struct {
	Connected bool   `json:"connected"`
	Status    string `json:"status"`
}

// SnapshotResponse is the body of GET /api/snapshot.
type SnapshotResponse struct {
	Link   LinkView          `json:"link"`
	Health []status.Snapshot `json:"health"`
	Cell   process.Snapshot  `json:"cell"`
}

// SignalsResponse is the body of GET /api/signals.
type SignalsResponse struct {
	Commands []signals.Named `json:"commands"`
	Status   []signals.Named `json:"status"`
}

// CommandRequest is the body of POST /api/commands.
// Bytes is the raw command block, one JSON number per byte.
type CommandRequest struct {
	Bytes []int `json:"bytes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Monitor is the HTTP presentation feed.
type Monitor struct {
	model  Model
	conn   LinkStatus
	health []HealthSource
	log    *slog.Logger
}

// New creates a monitor. conn may be nil when running without a controller.
func New(model Model, conn LinkStatus, health []HealthSource, log *slog.Logger) (*Monitor, error) {
	if model == nil {
		return nil, errors.New("monitor: model is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		model:  model,
		conn:   conn,
		health: health,
		log:    log,
	}, nil
}

// Handler returns the router with every route registered.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/snapshot", m.snapshot).Methods(http.MethodGet)
	r.HandleFunc("/api/cylinders/{n:[0-9]+}", m.cylinder).Methods(http.MethodGet)
	r.HandleFunc("/api/motors/{n:[0-9]+}", m.motor).Methods(http.MethodGet)
	r.HandleFunc("/api/signals", m.namedSignals).Methods(http.MethodGet)
	r.HandleFunc("/api/commands", m.commands).Methods(http.MethodPost)

	return r
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (m *Monitor) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("monitor: listen %s: %w", addr, err)
	}
	return m.serve(ctx, ln)
}

func (m *Monitor) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	m.log.Info("monitor listening", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("monitor: serve: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("monitor: shutdown: %w", err)
		}
		return nil
	}
}

// ---- handlers ----

func (m *Monitor) snapshot(w http.ResponseWriter, _ *http.Request) {
	rsp := SnapshotResponse{
		Link:   m.linkView(),
		Health: make([]status.Snapshot, 0, len(m.health)),
		Cell:   m.model.Snapshot(),
	}
	for _, h := range m.health {
		rsp.Health = append(rsp.Health, h.Snapshot())
	}
	m.writeJSON(w, http.StatusOK, rsp)
}

func (m *Monitor) cylinder(w http.ResponseWriter, r *http.Request) {
	n, ok := m.unitOr404(w, r, signals.NumCylinders)
	if !ok {
		return
	}
	m.writeJSON(w, http.StatusOK, m.model.Snapshot().Cylinders[n-1])
}

func (m *Monitor) motor(w http.ResponseWriter, r *http.Request) {
	n, ok := m.unitOr404(w, r, signals.NumMotors)
	if !ok {
		return
	}
	m.writeJSON(w, http.StatusOK, m.model.Snapshot().Motors[n-1])
}

func (m *Monitor) namedSignals(w http.ResponseWriter, _ *http.Request) {
	snap := m.model.Snapshot()
	m.writeJSON(w, http.StatusOK, SignalsResponse{
		Commands: snap.Commands.Named(),
		Status:   snap.Status.Named(),
	})
}

func (m *Monitor) commands(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		m.writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	block := make([]byte, len(req.Bytes))
	for i, v := range req.Bytes {
		if v < 0 || v > 0xFF {
			m.writeError(w, http.StatusBadRequest, fmt.Errorf("byte %d out of range: %d", i, v))
			return
		}
		block[i] = byte(v)
	}

	cmd, err := signals.DecodeCommands(block)
	if err != nil {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	m.log.Info("manual command block applied", "block", fmt.Sprintf("%08b", block))
	m.model.ApplyCommands(cmd)
	m.writeJSON(w, http.StatusAccepted, cmd.Named())
}

// ---- helpers ----

func (m *Monitor) linkView() LinkView {
	if m.conn == nil {
		return LinkView{Status: link.StatusNotConnected}
	}
	return LinkView{Connected: m.conn.Connected(), Status: m.conn.Status()}
}

// unitOr404 parses the one-based {n} route variable.
func (m *Monitor) unitOr404(w http.ResponseWriter, r *http.Request, count int) (int, bool) {
	raw := mux.Vars(r)["n"]
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > count {
		m.writeError(w, http.StatusNotFound, fmt.Errorf("no unit %q, valid range is 1..%d", raw, count))
		return 0, false
	}
	return n, true
}

func (m *Monitor) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.log.Warn("monitor response write failed", "err", err)
	}
}

func (m *Monitor) writeError(w http.ResponseWriter, code int, err error) {
	m.writeJSON(w, code, errorResponse{Error: err.Error()})
}
