package app

import (
	"sync/atomic"
	"time"

	"github.com/dshills/termsprite/internal/render"
)

// Metrics accumulates tick and host loop counters. Safe for concurrent use.
type Metrics struct {
	// Tick timing
	tickCount   atomic.Uint64
	tickTotalNs atomic.Int64
	tickMinNs   atomic.Int64
	tickMaxNs   atomic.Int64
	lastTickNs  atomic.Int64
	failedTicks atomic.Uint64
	emptyTicks  atomic.Uint64
	resyncs     atomic.Uint64

	// Output volume
	commands     atomic.Uint64
	cellsChanged atomic.Uint64
	diagnostics  atomic.Uint64

	// Input
	inputCount   atomic.Uint64
	inputDropped atomic.Uint64

	// Assets
	reloads      atomic.Uint64
	reloadErrors atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a zeroed tracker.
func NewMetrics() *Metrics {
	m := &Metrics{startTime: time.Now()}
	m.tickMinNs.Store(1<<63 - 1)
	return m
}

// RecordTick records a completed or failed tick.
func (m *Metrics) RecordTick(stats render.Stats, diagnostics int, failed bool) {
	ns := stats.Duration.Nanoseconds()

	m.tickCount.Add(1)
	m.tickTotalNs.Add(ns)
	m.lastTickNs.Store(ns)
	m.commands.Add(uint64(stats.Commands))
	m.diagnostics.Add(uint64(diagnostics))

	if failed {
		m.failedTicks.Add(1)
	} else {
		m.cellsChanged.Add(uint64(stats.Changed))
	}
	if stats.Commands == 0 {
		m.emptyTicks.Add(1)
	}
	if stats.Resync {
		m.resyncs.Add(1)
	}

	for {
		old := m.tickMinNs.Load()
		if ns >= old || m.tickMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.tickMaxNs.Load()
		if ns <= old || m.tickMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordInput records a forwarded input event.
func (m *Metrics) RecordInput() {
	m.inputCount.Add(1)
}

// RecordInputDropped records an input event lost to a full queue.
func (m *Metrics) RecordInputDropped() {
	m.inputDropped.Add(1)
}

// RecordReload records an asset hot reload.
func (m *Metrics) RecordReload() {
	m.reloads.Add(1)
}

// RecordReloadError records a failed asset reload.
func (m *Metrics) RecordReloadError() {
	m.reloadErrors.Add(1)
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	count := m.tickCount.Load()

	var avg int64
	if count > 0 {
		avg = m.tickTotalNs.Load() / int64(count)
	}
	minNs := m.tickMinNs.Load()
	if minNs == 1<<63-1 {
		minNs = 0
	}

	return MetricsSnapshot{
		Uptime:       time.Since(m.startTime),
		TickCount:    count,
		AvgTickNs:    avg,
		MinTickNs:    minNs,
		MaxTickNs:    m.tickMaxNs.Load(),
		LastTickNs:   m.lastTickNs.Load(),
		FailedTicks:  m.failedTicks.Load(),
		EmptyTicks:   m.emptyTicks.Load(),
		Resyncs:      m.resyncs.Load(),
		Commands:     m.commands.Load(),
		CellsChanged: m.cellsChanged.Load(),
		Diagnostics:  m.diagnostics.Load(),
		InputCount:   m.inputCount.Load(),
		InputDropped: m.inputDropped.Load(),
		Reloads:      m.reloads.Load(),
		ReloadErrors: m.reloadErrors.Load(),
	}
}

// Reset zeroes every counter.
func (m *Metrics) Reset() {
	m.tickCount.Store(0)
	m.tickTotalNs.Store(0)
	m.tickMinNs.Store(1<<63 - 1)
	m.tickMaxNs.Store(0)
	m.lastTickNs.Store(0)
	m.failedTicks.Store(0)
	m.emptyTicks.Store(0)
	m.resyncs.Store(0)
	m.commands.Store(0)
	m.cellsChanged.Store(0)
	m.diagnostics.Store(0)
	m.inputCount.Store(0)
	m.inputDropped.Store(0)
	m.reloads.Store(0)
	m.reloadErrors.Store(0)
	m.startTime = time.Now()
}

// MetricsSnapshot is a point-in-time view of Metrics.
type MetricsSnapshot struct {
	Uptime       time.Duration
	TickCount    uint64
	AvgTickNs    int64
	MinTickNs    int64
	MaxTickNs    int64
	LastTickNs   int64
	FailedTicks  uint64
	EmptyTicks   uint64
	Resyncs      uint64
	Commands     uint64
	CellsChanged uint64
	Diagnostics  uint64
	InputCount   uint64
	InputDropped uint64
	Reloads      uint64
	ReloadErrors uint64
}

// AvgCommandsPerTick is the mean batch size.
func (s MetricsSnapshot) AvgCommandsPerTick() float64 {
	if s.TickCount == 0 {
		return 0
	}
	return float64(s.Commands) / float64(s.TickCount)
}

// IdleRate is the percentage of ticks that sent nothing to the device.
func (s MetricsSnapshot) IdleRate() float64 {
	if s.TickCount == 0 {
		return 0
	}
	return float64(s.EmptyTicks) / float64(s.TickCount) * 100
}

// FailureRate is the percentage of ticks the device rejected.
func (s MetricsSnapshot) FailureRate() float64 {
	if s.TickCount == 0 {
		return 0
	}
	return float64(s.FailedTicks) / float64(s.TickCount) * 100
}
