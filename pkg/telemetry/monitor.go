// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package telemetry

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/openvelo/turbostat/pkg/turbohmi"
)

// DefaultQueueSize bounds the pull-side delivery queue. Consumers that
// fall behind lose the newest messages, never the producer.
const DefaultQueueSize = 64

// Observer receives every successfully applied message together with the
// snapshot it mutated. Invoked synchronously from the delivery path.
type Observer func(*turbohmi.Message, *Snapshot)

// Monitor is a live monitoring session. The transport feeds it raw
// notification buffers through HandleNotification; consumers either poll
// Snapshot() or range over Stream().
type Monitor struct {
	mu       sync.Mutex
	running  bool
	done     chan struct{}
	queue    chan *turbohmi.Message
	snapshot *Snapshot
	stats    *Statistics
	observer Observer
	log      *logrus.Entry
}

// NewMonitor creates a stopped monitor with the default queue size.
func NewMonitor() *Monitor {
	return NewMonitorWithQueue(DefaultQueueSize)
}

// NewMonitorWithQueue creates a stopped monitor with a specific delivery
// queue capacity.
func NewMonitorWithQueue(size int) *Monitor {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Monitor{
		snapshot: NewSnapshot(),
		stats:    NewStatistics(),
		queue:    make(chan *turbohmi.Message, size),
		log:      logrus.WithField("component", "monitor"),
	}
}

// OnUpdate registers the session observer. Must be called before Start.
func (m *Monitor) OnUpdate(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = fn
}

// Start flips the session running. Idempotent.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.done = make(chan struct{})
	m.stats.Reset()
	m.log.Debug("monitor started")
}

// Stop ends the session and unblocks anyone waiting on Stream. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	close(m.done)
	m.log.Debug("monitor stopped")
}

// Running reports whether the session is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Snapshot returns the live snapshot. Readers polling it during delivery
// may observe a value one message stale, never a torn field.
func (m *Monitor) Snapshot() *Snapshot {
	return m.snapshot
}

// Statistics returns the session counters.
func (m *Monitor) Statistics() *Statistics {
	return m.stats
}

// HandleNotification decodes one inbound notification buffer and applies
// it to the snapshot. Decode failures are logged and the buffer dropped;
// framing garbage must never terminate the session. The transport is
// expected to call this serially.
func (m *Monitor) HandleNotification(data []byte) {
	if !m.Running() {
		return
	}

	msg, err := turbohmi.Decode(data)
	if err != nil {
		m.log.WithError(err).WithField("data", turbohmi.FormatHex(data)).
			Warn("discarding undecodable notification")
		m.stats.Update(nil, err, nil)
		return
	}

	m.snapshot.Apply(msg)
	m.stats.Update(msg, nil, turbohmi.ValidateMessage(msg))

	m.notifyObserver(msg)

	// Drop-newest when the consumer lags. The snapshot already carries
	// the value, so a dropped queue entry loses ordering detail only.
	select {
	case m.queue <- msg:
	default:
		m.stats.DroppedMessages++
		m.log.WithField("field", msg.Name).Debug("delivery queue full, dropping message")
	}
}

// notifyObserver invokes the observer with panic isolation. A misbehaving
// observer must not propagate into the transport callback.
func (m *Monitor) notifyObserver(msg *turbohmi.Message) {
	m.mu.Lock()
	observer := m.observer
	m.mu.Unlock()
	if observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.log.WithField("panic", r).Error("observer panicked")
		}
	}()
	observer(msg, m.snapshot)
}

// Stream returns a channel of decoded messages for pull-based consumers.
// The channel is closed after Stop once pending messages are drained.
func (m *Monitor) Stream() <-chan *turbohmi.Message {
	out := make(chan *turbohmi.Message)

	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done == nil {
		// Never started.
		close(out)
		return out
	}

	// Consumers must drain the channel until it closes; sends block so
	// that queued messages survive a Stop racing the reader.
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-m.queue:
				out <- msg
			case <-done:
				for {
					select {
					case msg := <-m.queue:
						out <- msg
					default:
						return
					}
				}
			}
		}
	}()
	return out
}
