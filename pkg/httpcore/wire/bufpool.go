package wire

import "github.com/valyala/bytebufferpool"

// stagePool pools the growable staging buffers a transport adapter reads
// downstream bytes into (or copies queue.ByteFIFO bytes out through)
// before they cross the net.Conn boundary, avoiding one allocation per
// Read/Write call per connection.
var stagePool bytebufferpool.Pool

// AcquireStage returns a pooled buffer sized to at least size bytes,
// reusing its backing array across Gets when the pool has one large
// enough already.
func AcquireStage(size int) *bytebufferpool.ByteBuffer {
	buf := stagePool.Get()
	if cap(buf.B) < size {
		buf.B = make([]byte, size)
	} else {
		buf.B = buf.B[:size]
	}
	return buf
}

// ReleaseStage returns buf to the pool for reuse by a later
// AcquireStage call.
func ReleaseStage(buf *bytebufferpool.ByteBuffer) {
	stagePool.Put(buf)
}
