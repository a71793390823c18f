// Package txbuf implements a transmit-buffer abstraction: an in-flight
// response/request body is either bytes already sitting inline in the app
// tx queue, or a single pointer the app enqueued that the transport
// dereferences once and streams from.
package txbuf

// Kind discriminates the two variants of the transmit buffer's tagged
// union.
type Kind uint8

const (
	// Inline means the bytes live contiguously in the app tx queue and are
	// drained directly from there into the downstream tx queue.
	Inline Kind = iota
	// Pointer means the app enqueued a reference to an out-of-band byte
	// vector that the transport streams from.
	Pointer
)

// AppTxQueue is the minimal surface txbuf needs from the app-session tx
// queue: a zero-copy peek of unread bytes and a way to advance past what
// was consumed. The real app-session byte queue (queue.ByteFIFO in this
// module) implements this.
type AppTxQueue interface {
	Peek() []byte
	Drop(n int)
}

// Segment is one scatter-gather view into the data a TxBuf still has left
// to drain, handed to the transport tx queue's vectored enqueue.
type Segment struct {
	Data []byte
}

// TxBuf streams a body of totalLen bytes out of either an AppTxQueue
// (Inline) or a borrowed byte slice (Pointer), tracking how much has been
// drained so far. Invariant: Drained()+Remaining() == TotalLen always.
type TxBuf struct {
	kind     Kind
	appTx    AppTxQueue
	ptr      []byte
	totalLen int64
	drained  int64
}

// Init initializes buf as an Inline transmit buffer draining totalLen bytes
// out of appTx.
func (b *TxBuf) Init(appTx AppTxQueue, totalLen int64) {
	*b = TxBuf{kind: Inline, appTx: appTx, totalLen: totalLen}
}

// InitPointer initializes buf as a Pointer transmit buffer streaming
// directly from data (which the transport dereferenced once out of the
// app's enqueued pointer word).
func (b *TxBuf) InitPointer(data []byte) {
	*b = TxBuf{kind: Pointer, ptr: data, totalLen: int64(len(data))}
}

// TotalLen returns the full body length this buffer was initialized with.
func (b *TxBuf) TotalLen() int64 { return b.totalLen }

// Drained returns how many bytes have been consumed so far.
func (b *TxBuf) Drained() int64 { return b.drained }

// Remaining returns totalLen - drained.
func (b *TxBuf) Remaining() int64 { return b.totalLen - b.drained }

// IsDrained reports whether the whole body has been consumed.
func (b *TxBuf) IsDrained() bool { return b.drained >= b.totalLen }

// GetSegs returns up to maxLen bytes of the next undrained data as a single
// scatter-gather segment. For Inline buffers this is a zero-copy peek into
// the app tx queue; for Pointer buffers it is a slice of the borrowed data.
// The caller must call Drain with however much of the segment it actually
// consumed before requesting the next one.
func (b *TxBuf) GetSegs(maxLen int64) []Segment {
	if b.IsDrained() {
		return nil
	}
	want := b.Remaining()
	if want > maxLen {
		want = maxLen
	}

	switch b.kind {
	case Inline:
		avail := b.appTx.Peek()
		if int64(len(avail)) > want {
			avail = avail[:want]
		}
		if len(avail) == 0 {
			return nil
		}
		return []Segment{{Data: avail}}
	case Pointer:
		return []Segment{{Data: b.ptr[b.drained : b.drained+want]}}
	default:
		return nil
	}
}

// Drain advances the consumed counter by n bytes (n must be <= the length
// of the most recently returned segment) and, for Inline buffers, reports
// those bytes dequeued from the app tx queue.
func (b *TxBuf) Drain(n int64) {
	if n <= 0 {
		return
	}
	if b.kind == Inline {
		b.appTx.Drop(int(n))
	}
	b.drained += n
}

// Free resets the buffer to its zero value. Neither variant owns a
// separate allocation, so nothing else is released, but callers should
// still call it on every path (including error paths) so refactors that
// add pooling don't need every call site revisited.
func (b *TxBuf) Free() {
	*b = TxBuf{}
}
