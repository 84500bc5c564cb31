// Package rewind implements the bounded ring buffer of serialized engine
// snapshots the worker captures periodically and the controller can pop
// through to step backward in time.
package rewind

import (
	"sync"

	"github.com/orion-emu/gbasup/engine"
)

// Buffer is a fixed-capacity LIFO ring of serialized engine states,
// captured every frameStep frames. It mirrors the capture-every-N-frames,
// pop-and-restore shape the rewind helper example implements, rewritten
// against engine.SaveStater instead of a concrete save-stater type.
type Buffer struct {
	mu        sync.Mutex
	states    [][]byte
	capacity  int
	frameStep int
	frameTick int
}

// New builds a Buffer holding up to capacity snapshots, captured once
// every frameStep calls to Capture.
func New(capacity, frameStep int) *Buffer {
	if frameStep < 1 {
		frameStep = 1
	}
	return &Buffer{
		states:    make([][]byte, 0, capacity),
		capacity:  capacity,
		frameStep: frameStep,
	}
}

// Capture serializes saver's state and pushes it, unless this call falls
// between capture ticks. When the ring is full, the oldest snapshot is
// dropped to make room — rewind trades depth for a bounded footprint.
func (b *Buffer) Capture(saver engine.SaveStater) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frameTick++
	if b.frameTick < b.frameStep {
		return nil
	}
	b.frameTick = 0

	if b.capacity == 0 {
		return nil
	}

	data, err := saver.Serialize()
	if err != nil {
		return err
	}

	if len(b.states) == b.capacity {
		b.states = append(b.states[1:], data)
		return nil
	}
	b.states = append(b.states, data)
	return nil
}

// Rewind pops up to n snapshots and restores the oldest of those popped,
// then lets the caller re-run one frame to regenerate pixel output — a
// restored save state has no pending framebuffer of its own. It reports
// how many snapshots were actually available to pop.
func (b *Buffer) Rewind(saver engine.SaveStater, n int) (popped int, err error) {
	b.mu.Lock()
	if n > len(b.states) {
		n = len(b.states)
	}
	if n == 0 {
		b.mu.Unlock()
		return 0, nil
	}
	target := b.states[len(b.states)-n]
	b.states = b.states[:len(b.states)-n]
	b.mu.Unlock()

	if err := saver.Deserialize(target); err != nil {
		return 0, err
	}
	return n, nil
}

// Reset discards every captured snapshot.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.states = b.states[:0]
	b.frameTick = 0
	b.mu.Unlock()
}

// Count returns the number of snapshots currently held.
func (b *Buffer) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.states)
}

// Capacity returns the configured maximum snapshot count.
func (b *Buffer) Capacity() int { return b.capacity }
