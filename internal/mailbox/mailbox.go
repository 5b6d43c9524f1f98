// Package mailbox implements a single-slot frame handoff between the
// capture-side gate and the downstream describer.
//
// Publish never blocks: a frame the consumer has not picked up yet is
// overwritten by the newer one and counted as a drop. Latency over
// completeness; the consumer always works on the freshest emitted frame.
package mailbox

import (
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// Frame is one emitted frame and its capture timestamp.
type Frame struct {
	Image *image.RGBA
	At    time.Time
}

// Mailbox is a single-slot, overwrite-on-publish frame buffer.
type Mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frame  *Frame
	closed bool
	drops  atomic.Uint64
}

// New returns an empty mailbox.
func New() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Publish places a frame in the slot, overwriting any unconsumed one.
// Non-blocking; safe to call from the capture goroutine. Publishing to a
// closed mailbox is a no-op.
func (m *Mailbox) Publish(f *Frame) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.frame != nil {
		m.drops.Add(1)
	}
	m.frame = f
	m.cond.Signal()
	m.mu.Unlock()
}

// Receive blocks until a frame is available and returns it, or returns nil
// once the mailbox is closed. Intended for a single consumer goroutine.
func (m *Mailbox) Receive() *Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.frame == nil && !m.closed {
		m.cond.Wait()
	}
	f := m.frame
	m.frame = nil
	return f
}

// Close wakes any blocked Receive and makes further publishes no-ops. A frame
// already in the slot is still delivered; after that Receive returns nil.
// Idempotent.
func (m *Mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()
}

// Drops reports how many unconsumed frames were overwritten.
func (m *Mailbox) Drops() uint64 {
	return m.drops.Load()
}
