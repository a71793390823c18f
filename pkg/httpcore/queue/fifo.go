// Package queue implements the single-producer/single-consumer byte FIFOs
// that stand in for the transport-session and app-session byte queues the
// core is bridged to. The real queue implementations belong to the
// transport-session and application-session layers; ByteFIFO is the
// concrete, testable collaborator used to drive and test the state
// machine in this module.
package queue

import (
	"sync"
)

// sizedPools pools ring-buffer backing arrays by size class: a handful of
// power-of-two classes rather than one pool per exact size.
var sizedPools = map[int]*sync.Pool{
	4 * 1024:   newBytePool(4 * 1024),
	16 * 1024:  newBytePool(16 * 1024),
	64 * 1024:  newBytePool(64 * 1024),
	256 * 1024: newBytePool(256 * 1024),
}

func newBytePool(size int) *sync.Pool {
	return &sync.Pool{New: func() any {
		b := make([]byte, size)
		return &b
	}}
}

func getBacking(size int) []byte {
	for _, class := range []int{4 * 1024, 16 * 1024, 64 * 1024, 256 * 1024} {
		if size <= class {
			b := *sizedPools[class].Get().(*[]byte)
			return b[:size]
		}
	}
	return make([]byte, size)
}

func putBacking(b []byte) {
	size := cap(b)
	if pool, ok := sizedPools[size]; ok {
		b = b[:size]
		pool.Put(&b)
	}
}

// ByteFIFO is a fixed-capacity ring buffer with partial read/write
// semantics: Enqueue and Dequeue never block and may transfer fewer bytes
// than requested. Single producer, single consumer, non-blocking, with a
// one-shot drain notification for backpressure re-arm.
type ByteFIFO struct {
	mu       sync.Mutex
	buf      []byte
	head     int // next byte to dequeue
	tail     int // next free slot to enqueue into
	size     int // occupied bytes
	lowWater int // NotifyOnDrain fires once occupancy drops at or below this

	onDrain func()
}

// NewByteFIFO allocates a ring buffer of the given capacity. lowWater is
// the occupancy threshold (in bytes) at or below which a registered
// NotifyOnDrain callback fires.
func NewByteFIFO(capacity, lowWater int) *ByteFIFO {
	return &ByteFIFO{
		buf:      getBacking(capacity),
		lowWater: lowWater,
	}
}

// Cap returns the FIFO's total byte capacity.
func (q *ByteFIFO) Cap() int { return len(q.buf) }

// Len returns the number of bytes currently queued.
func (q *ByteFIFO) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Free returns the number of bytes of free space remaining.
func (q *ByteFIFO) Free() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf) - q.size
}

// Enqueue copies as much of p as fits and returns the number of bytes
// copied. It never blocks; a short enqueue means the consumer has not
// drained enough space.
func (q *ByteFIFO) Enqueue(p []byte) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := min(len(p), len(q.buf)-q.size)
	for i := 0; i < n; i++ {
		q.buf[q.tail] = p[i]
		q.tail = (q.tail + 1) % len(q.buf)
	}
	q.size += n
	return n
}

// Dequeue copies up to len(p) queued bytes into p and returns the number of
// bytes copied, firing the drain notification if registered and the
// occupancy after the read falls to or below the low-water mark.
func (q *ByteFIFO) Dequeue(p []byte) int {
	q.mu.Lock()
	n := min(len(p), q.size)
	for i := 0; i < n; i++ {
		p[i] = q.buf[q.head]
		q.head = (q.head + 1) % len(q.buf)
	}
	q.size -= n

	var cb func()
	if n > 0 && q.size <= q.lowWater && q.onDrain != nil {
		cb = q.onDrain
		q.onDrain = nil
	}
	q.mu.Unlock()

	if cb != nil {
		cb()
	}
	return n
}

// Peek returns all Len unread bytes as one contiguous slice: a zero-copy
// view when the occupied region does not wrap around the ring, a flat copy
// when it does. The parser calls Peek repeatedly as more bytes arrive; it never mutates
// the queue.
func (q *ByteFIFO) Peek() []byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return nil
	}
	if q.head+q.size <= len(q.buf) {
		return q.buf[q.head : q.head+q.size]
	}
	// Wrapped: compact into a flat copy so the parser sees one contiguous
	// region. Rare in practice because Drop (called after every handoff,
	// per the no-pipelining invariant) keeps head near zero.
	out := make([]byte, q.size)
	n := copy(out, q.buf[q.head:])
	copy(out[n:], q.buf[:q.size-n])
	return out
}

// Drop discards n unread bytes without copying them out, used to enforce
// a no-pipelining rule (discard trailing rx bytes after a handoff).
func (q *ByteFIFO) Drop(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > q.size {
		n = q.size
	}
	q.head = (q.head + n) % len(q.buf)
	q.size -= n
}

// NotifyOnDrain registers a one-shot callback invoked the next time Dequeue
// drains occupancy to or below the low-water mark. Registering again
// overwrites any previously registered, still-pending callback — the state
// machine never has more than one outstanding re-arm per queue.
func (q *ByteFIFO) NotifyOnDrain(cb func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onDrain = cb
}

// CancelNotify unregisters any outstanding drain notification, used on
// teardown so a late callback cannot reach a freed connection.
func (q *ByteFIFO) CancelNotify() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onDrain = nil
}

// Release returns the backing array to its size-class pool. The FIFO must
// not be used afterwards.
func (q *ByteFIFO) Release() {
	q.mu.Lock()
	b := q.buf
	q.buf = nil
	q.mu.Unlock()
	if b != nil {
		putBacking(b)
	}
}
