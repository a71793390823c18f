package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/httpcore/pkg/httpcore/queue"
	"github.com/yourusername/httpcore/pkg/httpcore/txbuf"
)

// Role distinguishes a server connection (accepting requests, producing
// replies) from a client connection (producing requests, consuming
// replies).
type Role uint8

const (
	RoleServer Role = iota
	RoleClient
)

func (r Role) String() string {
	if r == RoleClient {
		return "client"
	}
	return "server"
}

// Phase is the coarse protocol phase of a connection's lifecycle.
type Phase uint8

const (
	PhaseListen Phase = iota
	PhaseConnecting
	PhaseEstablished
	PhaseTransportClosed
	PhaseAppClosed
	PhaseClosed
)

// HTTPState is the fine-grained state of the per-connection HTTP/1.1
// dispatcher.
type HTTPState uint8

const (
	StateIdle HTTPState = iota
	StateWaitAppMethod
	StateWaitClientMethod
	StateWaitServerReply
	StateWaitAppReply
	StateClientIOMoreData
	StateAppIOMoreData
)

func (s HTTPState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateWaitAppMethod:
		return "WAIT_APP_METHOD"
	case StateWaitClientMethod:
		return "WAIT_CLIENT_METHOD"
	case StateWaitServerReply:
		return "WAIT_SERVER_REPLY"
	case StateWaitAppReply:
		return "WAIT_APP_REPLY"
	case StateClientIOMoreData:
		return "CLIENT_IO_MORE_DATA"
	case StateAppIOMoreData:
		return "APP_IO_MORE_DATA"
	default:
		return "UNKNOWN"
	}
}

// ParsedOffsets records the most recently parsed request or reply's
// control-data, header, and body offsets for diagnostics, shared by the
// request and response parse paths.
type ParsedOffsets struct {
	ControlDataLen int
	HeadersOffset  int
	HeadersLen     int
	BodyOffset     int
	BodyLen        int64

	// Request-only.
	TargetPathOffset  int
	TargetPathLen     int
	TargetQueryOffset int
	TargetQueryLen    int
	TargetForm        int
	Method            int

	// Response-only.
	StatusCode int
}

// Connection is the per-connection record bridging a transport session's
// byte queues to an application session's byte queues: both session
// handles, parsed-metadata offsets, protocol phase, idle-timer state,
// role, and identity strings.
type Connection struct {
	ID   string
	Role Role

	// Downstream transport-session byte queues and upstream app-session
	// byte queues. Both are opaque to the rest of the core beyond the
	// queue.ByteFIFO contract.
	TransportRx *queue.ByteFIFO
	TransportTx *queue.ByteFIFO
	AppRx       *queue.ByteFIFO
	AppTx       *queue.ByteFIFO

	Phase    Phase
	HTTP     HTTPState
	Offsets  ParsedOffsets
	ToRecv   int64 // remaining body bytes expected, streaming sub-state
	TxBuf    txbuf.TxBuf
	HasTxBuf bool

	// Identity. AppName names this side of the connection on the wire:
	// the Server header the core synthesizes for a reply (server role) or
	// the User-Agent header it synthesizes for a request (client role).
	// Host is the request-line Host header value, client role only.
	AppName string
	Host    string

	IdleTimeoutSeconds int
	PendingTimer       bool

	// Redrive, when non-nil, re-invokes fsm.Drive for this connection; it
	// is installed by the transport worker driving the connection so that
	// ArmDrain's callback can resume a handoff stalled on a full queue,
	// not just wait for the next unrelated transport/app I/O event.
	// Connections driven directly (e.g. by fsm package tests with no
	// transport.Worker) leave this nil and arm a no-op instead.
	Redrive func()

	// CreatedAt aids debug logging/metrics correlation.
	CreatedAt time.Time
}

// ArmDrain registers this connection's Redrive callback on q's one-shot
// drain notification, so a queue that was full when a handler stalled on
// it causes fsm.Drive to be re-invoked once it drains, instead of leaving
// the handoff stuck until some unrelated transport or app event happens
// to redrive the dispatcher.
func (c *Connection) ArmDrain(q *queue.ByteFIFO) {
	if c.Redrive != nil {
		q.NotifyOnDrain(c.Redrive)
		return
	}
	q.NotifyOnDrain(func() {})
}

// New allocates a fresh connection record. Server records are typically
// created by copying a listener template and client records by copying a
// half-open record — both callers use New as the common allocation path
// and then overwrite the identity/queue fields.
func New(role Role) *Connection {
	return &Connection{
		ID:        uuid.NewString(),
		Role:      role,
		Phase:     PhaseListen,
		HTTP:      StateIdle,
		CreatedAt: time.Now(),
	}
}

// Reset clears per-transaction parse state so the connection is ready for
// the next request at the no-pipelining boundary between transactions.
func (c *Connection) Reset() {
	c.Offsets = ParsedOffsets{}
	c.ToRecv = 0
	if c.HasTxBuf {
		c.TxBuf.Free()
		c.HasTxBuf = false
	}
}

// Close transitions the connection to PhaseClosed, freeing any pending
// transmit buffer and cancelling every queue's outstanding drain
// notification. The queues themselves stay usable; their backing storage
// is not released here. Idempotent.
func (c *Connection) Close() {
	if c.Phase == PhaseClosed {
		return
	}
	if c.HasTxBuf {
		c.TxBuf.Free()
		c.HasTxBuf = false
	}
	for _, q := range []*queue.ByteFIFO{c.TransportRx, c.TransportTx, c.AppRx, c.AppTx} {
		if q != nil {
			q.CancelNotify()
		}
	}
	c.Phase = PhaseClosed
}
