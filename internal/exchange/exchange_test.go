// internal/exchange/exchange_test.go
package exchange

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/cellsim/internal/device"
	"github.com/tamzrod/cellsim/internal/process"
	"github.com/tamzrod/cellsim/internal/signals"
	"github.com/tamzrod/cellsim/internal/status"
)

// ---- fakes ----

type fakeLink struct {
	mu         sync.Mutex
	connected  bool
	command    []byte
	readErr    error
	failWrites int // number of upcoming writes that fail
	reads      int
	writes     int
	written    [][]byte
}

func (f *fakeLink) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeLink) ReadBlock(block, offset, length int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]byte(nil), f.command...), nil
}

func (f *fakeLink) WriteBlock(block, offset int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.failWrites > 0 {
		f.failWrites--
		return errors.New("write timeout")
	}
	f.written = append(f.written, append([]byte(nil), data...))
	return nil
}

func (f *fakeLink) io() (reads, writes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads, f.writes
}

func (f *fakeLink) lastWritten() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.written) == 0 {
		return nil
	}
	return f.written[len(f.written)-1]
}

type fakeSink struct {
	mu   sync.Mutex
	cmds []signals.CommandSignals
}

func (f *fakeSink) ApplyCommands(cmd signals.CommandSignals) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
}

type fixedSource struct {
	s signals.StatusSignals
}

func (f fixedSource) CurrentSignals() signals.StatusSignals { return f.s }

var testCfg = Config{
	CommandBlock:  3,
	StatusBlock:   2,
	ReadInterval:  time.Millisecond,
	WriteInterval: 2 * time.Millisecond,
}

func fastModel(t *testing.T) *process.Model {
	t.Helper()
	m, err := process.New(process.Config{
		Motion:     device.MotionConfig{Min: 0, Max: 10, Steps: 3, StepDuration: time.Millisecond},
		MotorDelay: 5 * time.Millisecond,
	}, nil, nil)
	require.NoError(t, err)
	return m
}

// ---- single ticks ----

func TestNewReader_Validation(t *testing.T) {
	_, err := NewReader(Config{}, &fakeLink{}, &fakeSink{}, nil, nil)
	assert.Error(t, err)
	_, err = NewReader(testCfg, nil, &fakeSink{}, nil, nil)
	assert.Error(t, err)
	_, err = NewWriter(Config{ReadInterval: time.Second}, &fakeLink{}, fixedSource{}, nil, nil)
	assert.Error(t, err)
}

func TestReadOnce_AppliesDecodedCommands(t *testing.T) {
	link := &fakeLink{connected: true, command: []byte{0b00000010, 0b00001000}}
	sink := &fakeSink{}
	r, err := NewReader(testCfg, link, sink, nil, nil)
	require.NoError(t, err)

	res := r.ReadOnce()
	require.NoError(t, res.Err)
	assert.False(t, res.Skipped)
	assert.Equal(t, []byte{0b00000010, 0b00001000}, res.Block)

	require.Len(t, sink.cmds, 1)
	assert.True(t, sink.cmds[0].Cylinders[0].ToPlus)
	assert.True(t, sink.cmds[0].MotorStart[3])
}

func TestReadOnce_SkipsWhenDisconnected(t *testing.T) {
	link := &fakeLink{connected: false, command: []byte{0xFF, 0xFF}}
	sink := &fakeSink{}
	r, err := NewReader(testCfg, link, sink, nil, nil)
	require.NoError(t, err)

	res := r.ReadOnce()
	assert.True(t, res.Skipped)
	assert.NoError(t, res.Err)
	assert.Empty(t, sink.cmds)

	reads, writes := link.io()
	assert.Zero(t, reads)
	assert.Zero(t, writes)
}

func TestReadOnce_FailureAppliesNothing(t *testing.T) {
	link := &fakeLink{connected: true, readErr: errors.New("reset by peer")}
	sink := &fakeSink{}
	r, err := NewReader(testCfg, link, sink, nil, nil)
	require.NoError(t, err)

	res := r.ReadOnce()
	assert.Error(t, res.Err)
	assert.Empty(t, sink.cmds)
}

func TestReadOnce_ShortBlockIsSizeError(t *testing.T) {
	link := &fakeLink{connected: true, command: []byte{0x02}}
	sink := &fakeSink{}
	r, err := NewReader(testCfg, link, sink, nil, nil)
	require.NoError(t, err)

	res := r.ReadOnce()
	var sizeErr *signals.SizeError
	require.True(t, errors.As(res.Err, &sizeErr))
	assert.Empty(t, sink.cmds)
}

func TestWriteOnce_FailureThenSuccess(t *testing.T) {
	link := &fakeLink{connected: true, failWrites: 1}
	src := fixedSource{s: signals.StatusSignals{MotorRunning: [signals.NumMotors]bool{true}}}
	w, err := NewWriter(testCfg, link, src, nil, nil)
	require.NoError(t, err)

	first := w.WriteOnce()
	assert.Error(t, first.Err)

	second := w.WriteOnce()
	require.NoError(t, second.Err)
	assert.Equal(t, []byte{0b00000100, 0}, link.lastWritten())
}

func TestWriteOnce_EncodesButSkipsWhenDisconnected(t *testing.T) {
	link := &fakeLink{connected: false}
	src := fixedSource{s: signals.StatusSignals{Cylinders: [signals.NumCylinders]signals.CylinderStatus{{AtMin: true}}}}
	w, err := NewWriter(testCfg, link, src, nil, nil)
	require.NoError(t, err)

	res := w.WriteOnce()
	assert.True(t, res.Skipped)
	assert.Equal(t, []byte{0b00000001, 0}, res.Block)

	_, writes := link.io()
	assert.Zero(t, writes)
}

// ---- loops ----

func runLoops(t *testing.T, r *Reader, w *Writer) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); r.Run(ctx) }()
	go func() { defer wg.Done(); w.Run(ctx) }()
	return func() {
		cancel()
		wg.Wait()
	}
}

func TestLoops_ExtendScenarioEndToEnd(t *testing.T) {
	model := fastModel(t)
	link := &fakeLink{connected: true, command: []byte{0b00000010, 0b00000000}}

	r, err := NewReader(testCfg, link, model, nil, nil)
	require.NoError(t, err)
	w, err := NewWriter(testCfg, link, model, nil, nil)
	require.NoError(t, err)

	stop := runLoops(t, r, w)
	defer stop()

	require.Eventually(t, func() bool {
		block := link.lastWritten()
		if block == nil {
			return false
		}
		s, err := signals.DecodeStatus(block)
		return err == nil && s.Cylinders[0].AtMax && !s.Cylinders[0].AtMin
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, status.HealthOK, r.Health().Snapshot().Health)
	assert.Equal(t, status.HealthOK, w.Health().Snapshot().Health)
}

func TestLoops_DisconnectedSimulationStillRuns(t *testing.T) {
	model := fastModel(t)
	link := &fakeLink{connected: false, command: []byte{0xFF, 0xFF}}

	r, err := NewReader(testCfg, link, model, nil, nil)
	require.NoError(t, err)
	w, err := NewWriter(testCfg, link, model, nil, nil)
	require.NoError(t, err)

	stop := runLoops(t, r, w)

	// commands from a separate source, not the link
	cmd, err := signals.DecodeCommands([]byte{0b00000110, 0})
	require.NoError(t, err)
	model.ApplyCommands(cmd)

	require.Eventually(t, func() bool {
		s := model.CurrentSignals()
		return s.Cylinders[0].AtMax && s.MotorRunning[0]
	}, 2*time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return r.Health().Snapshot().Skipped > 0 && w.Health().Snapshot().Skipped > 0
	}, time.Second, time.Millisecond)

	stop()

	reads, writes := link.io()
	assert.Zero(t, reads)
	assert.Zero(t, writes)
	assert.Equal(t, status.HealthStale, r.Health().Snapshot().Health)
	assert.Equal(t, status.HealthStale, w.Health().Snapshot().Health)
}

func TestLoops_WriteFailuresDoNotStopTheLoop(t *testing.T) {
	model := fastModel(t)
	link := &fakeLink{connected: true, command: []byte{0, 0}, failWrites: 3}

	r, err := NewReader(testCfg, link, model, nil, nil)
	require.NoError(t, err)
	w, err := NewWriter(testCfg, link, model, nil, nil)
	require.NoError(t, err)

	stop := runLoops(t, r, w)
	defer stop()

	require.Eventually(t, func() bool {
		return link.lastWritten() != nil && w.Health().Snapshot().Health == status.HealthOK
	}, 2*time.Second, time.Millisecond)

	snap := w.Health().Snapshot()
	assert.Equal(t, uint64(3), snap.Failures)
	assert.Empty(t, snap.LastError)
}

func TestLoops_IndependentPeriodsOnVirtualClock(t *testing.T) {
	fc := clockwork.NewFakeClock()
	cfg := testCfg
	cfg.ReadInterval = 10 * time.Millisecond
	cfg.WriteInterval = 20 * time.Millisecond

	link := &fakeLink{connected: true, command: []byte{0, 0}}
	r, err := NewReader(cfg, link, &fakeSink{}, fc, nil)
	require.NoError(t, err)
	w, err := NewWriter(cfg, link, fixedSource{}, fc, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{}, 2)
	go func() { r.Run(ctx); done <- struct{}{} }()
	go func() { w.Run(ctx); done <- struct{}{} }()

	// both tickers armed, nothing exchanged before the first period
	fc.BlockUntil(2)
	reads, writes := link.io()
	assert.Zero(t, reads)
	assert.Zero(t, writes)

	// t=10ms: read period only
	fc.Advance(10 * time.Millisecond)
	require.Eventually(t, func() bool {
		reads, _ := link.io()
		return reads == 1
	}, time.Second, time.Millisecond)
	_, writes = link.io()
	assert.Zero(t, writes)

	// t=20ms: second read, first write
	fc.BlockUntil(2)
	fc.Advance(10 * time.Millisecond)
	require.Eventually(t, func() bool {
		reads, writes := link.io()
		return reads == 2 && writes == 1
	}, time.Second, time.Millisecond)

	cancel()
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("loop did not stop on cancel")
		}
	}

	// stopped loops do not tick any more
	fc.Advance(100 * time.Millisecond)
	reads, writes = link.io()
	assert.Equal(t, 2, reads)
	assert.Equal(t, 1, writes)
}
