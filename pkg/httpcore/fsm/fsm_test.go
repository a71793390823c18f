package fsm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yourusername/httpcore/pkg/httpcore/queue"
	"github.com/yourusername/httpcore/pkg/httpcore/session"
	"github.com/yourusername/httpcore/pkg/httpcore/wire"
)

func newTestConn(role session.Role, cap int) *session.Connection {
	c := session.New(role)
	c.TransportRx = queue.NewByteFIFO(cap, DrainThreshold(cap))
	c.TransportTx = queue.NewByteFIFO(cap, DrainThreshold(cap))
	c.AppRx = queue.NewByteFIFO(cap, DrainThreshold(cap))
	c.AppTx = queue.NewByteFIFO(cap, DrainThreshold(cap))
	c.AppName = "httpcore-test"
	return c
}

func TestDriveServerRoundTrip(t *testing.T) {
	conn := newTestConn(session.RoleServer, 4096)

	req := []byte("GET /widgets HTTP/1.1\r\nHost: example.com\r\n\r\n")
	conn.TransportRx.Enqueue(req)

	if out := Drive(conn, nil, nil); out != Stop {
		t.Fatalf("first Drive: got %v, want Stop (waiting on app reply)", out)
	}
	if conn.HTTP != session.StateWaitAppReply {
		t.Fatalf("state = %v, want WAIT_APP_REPLY", conn.HTTP)
	}

	peek := conn.AppRx.Peek()
	h, ok := session.DecodeHandoff(peek)
	if !ok {
		t.Fatalf("DecodeHandoff on AppRx: not ok")
	}
	if h.Method != wire.MethodGET {
		t.Errorf("Method = %v, want GET", h.Method)
	}
	if string(h.PathBytes(peek)) != "widgets" {
		t.Errorf("path = %q, want %q", h.PathBytes(peek), "widgets")
	}

	conn.AppTx.Enqueue(session.EncodeReply(wire.StatusOK, nil, []byte("hello")))

	if out := Drive(conn, nil, nil); out != Stop {
		t.Fatalf("second Drive: got %v, want Stop (no more work)", out)
	}
	if conn.HTTP != session.StateWaitClientMethod {
		t.Fatalf("state = %v, want WAIT_CLIENT_METHOD (IDLE is unreachable post-transaction)", conn.HTTP)
	}

	got := make([]byte, conn.TransportTx.Len())
	conn.TransportTx.Dequeue(got)
	if !bytes.HasPrefix(got, []byte("HTTP/1.1 200 OK\r\n")) {
		t.Fatalf("transport tx = %q, want prefix %q", got, "HTTP/1.1 200 OK\r\n")
	}
	if !bytes.Contains(got, []byte("Date: ")) {
		t.Errorf("transport tx missing synthesized Date header: %q", got)
	}
	if !bytes.Contains(got, []byte("Server: httpcore-test")) {
		t.Errorf("transport tx missing synthesized Server header: %q", got)
	}
	if !bytes.Contains(got, []byte("Content-Length: 5")) {
		t.Errorf("transport tx missing synthesized Content-Length: %q", got)
	}
	if !bytes.HasSuffix(got, []byte("hello")) {
		t.Errorf("transport tx = %q, want suffix %q", got, "hello")
	}
}

func TestDriveServerMalformedRequestRejected(t *testing.T) {
	conn := newTestConn(session.RoleServer, 4096)
	conn.TransportRx.Enqueue([]byte("frob /x HTTP/1.1\r\n\r\n"))

	out := Drive(conn, nil, nil)
	if out != ErrorOutcome {
		t.Fatalf("Drive() = %v, want ErrorOutcome", out)
	}
	if conn.TransportTx.Len() == 0 {
		t.Errorf("expected a minimal error reply to be written to transport tx")
	}
}

func TestDriveClientRoundTrip(t *testing.T) {
	conn := newTestConn(session.RoleClient, 4096)
	conn.Host = "example.com"

	conn.AppTx.Enqueue(session.EncodeRequest(wire.MethodPOST, wire.TargetOrigin,
		[]byte("submit"), nil, nil, []byte("body")))

	if out := Drive(conn, nil, nil); out != Stop {
		t.Fatalf("first Drive: got %v, want Stop (waiting on server reply)", out)
	}
	if conn.HTTP != session.StateWaitServerReply {
		t.Fatalf("state = %v, want WAIT_SERVER_REPLY", conn.HTTP)
	}

	sent := make([]byte, conn.TransportTx.Len())
	conn.TransportTx.Dequeue(sent)
	if !bytes.HasPrefix(sent, []byte("POST /submit HTTP/1.1\r\n")) {
		t.Fatalf("transport tx = %q, missing request-line prefix", sent)
	}
	if !bytes.Contains(sent, []byte("Host: example.com")) {
		t.Errorf("transport tx missing synthesized Host header: %q", sent)
	}
	if !bytes.Contains(sent, []byte("User-Agent: httpcore-test")) {
		t.Errorf("transport tx missing synthesized User-Agent header: %q", sent)
	}
	if !bytes.Contains(sent, []byte("Content-Length: 4")) {
		t.Errorf("transport tx missing synthesized Content-Length: %q", sent)
	}
	if !bytes.HasSuffix(sent, []byte("body")) {
		t.Errorf("transport tx = %q, want suffix %q", sent, "body")
	}

	reply := []byte("HTTP/1.1 204 No Content\r\n\r\n")
	conn.TransportRx.Enqueue(reply)

	if out := Drive(conn, nil, nil); out != Stop {
		t.Fatalf("second Drive: got %v, want Stop (no more work)", out)
	}
	if conn.HTTP != session.StateWaitAppMethod {
		t.Fatalf("state = %v, want WAIT_APP_METHOD (IDLE is unreachable post-transaction)", conn.HTTP)
	}

	peek := conn.AppRx.Peek()
	h, ok := session.DecodeHandoff(peek)
	if !ok {
		t.Fatalf("DecodeHandoff on AppRx: not ok")
	}
	if h.Type != session.MessageReply {
		t.Fatalf("Type = %v, want MessageReply", h.Type)
	}
	if h.Code != wire.StatusNoContent {
		t.Errorf("Code = %d, want 204", h.Code)
	}
	if h.RawReplyCode != 204 {
		t.Errorf("RawReplyCode = %d, want 204", h.RawReplyCode)
	}
}

// TestDriveServerBackpressureStreamsBodyAcrossDrives exercises §8 scenario
// 3: a body larger than the app rx queue's free space must stream in over
// several CLIENT_IO_MORE_DATA passes, never revisiting WAIT_CLIENT_METHOD
// while to_recv is still positive.
func TestDriveServerBackpressureStreamsBodyAcrossDrives(t *testing.T) {
	conn := newTestConn(session.RoleServer, 4096)
	// 67 = HeaderSize(28) + this request's ControlDataLen(39): just
	// enough to ever hold the control data, but only 19 bytes of free
	// space remain for the 20-byte body once it's enqueued.
	conn.AppRx = queue.NewByteFIFO(67, 8)

	line := "POST / HTTP/1.1\r\nContent-Length: 20\r\n\r\n"
	body := strings.Repeat("x", 20)
	conn.TransportRx.Enqueue([]byte(line + body))

	out := Drive(conn, nil, nil)
	if out != Stop {
		t.Fatalf("Drive() = %v, want Stop (backpressure)", out)
	}
	if conn.HTTP != session.StateClientIOMoreData {
		t.Fatalf("state = %v, want CLIENT_IO_MORE_DATA (streaming, not WAIT_CLIENT_METHOD)", conn.HTTP)
	}
	if conn.ToRecv <= 0 {
		t.Fatalf("ToRecv = %d, want > 0 (body not fully delivered yet)", conn.ToRecv)
	}

	// Drain the app rx queue as the application would, freeing room for
	// the rest of the streamed body, then resume driving directly (a real
	// transport.Worker would be re-invoked via conn.Redrive/ArmDrain; fsm
	// tests drive a bare connection with no transport layer attached, so
	// conn.Redrive is nil and ArmDrain's callback is a no-op).
	drained := make([]byte, conn.AppRx.Len())
	conn.AppRx.Dequeue(drained)

	out = Drive(conn, nil, nil)
	if out != Stop {
		t.Fatalf("Drive() after draining = %v, want Stop", out)
	}
	if conn.HTTP != session.StateWaitAppReply {
		t.Fatalf("state = %v, want WAIT_APP_REPLY once body fully streamed", conn.HTTP)
	}
	if conn.ToRecv != 0 {
		t.Errorf("ToRecv = %d, want 0", conn.ToRecv)
	}
}

func TestDriveIdleWithNothingQueuedStops(t *testing.T) {
	conn := newTestConn(session.RoleServer, 4096)
	if out := Drive(conn, nil, nil); out != Stop {
		t.Fatalf("Drive() = %v, want Stop", out)
	}
}
