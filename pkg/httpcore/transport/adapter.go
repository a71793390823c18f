// Package transport translates downstream-session callbacks (accept,
// connect, rx-ready, tx-ready, disconnect, reset, cleanup) and upstream
// app-session callbacks (custom_tx, close) into fsm.Drive advances,
// grounded on the teacher's server.go accept loop and socket/tuning.go
// fifo-threshold sizing, generalized from an http11.Request/ResponseWriter
// server to a role-agnostic byte-queue bridge over a real net.Conn.
package transport

import (
	"crypto/tls"
	"errors"
	"io"
	"math"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/bytebufferpool"

	"github.com/yourusername/httpcore/pkg/httpcore/appsession"
	"github.com/yourusername/httpcore/pkg/httpcore/fsm"
	"github.com/yourusername/httpcore/pkg/httpcore/idletimer"
	"github.com/yourusername/httpcore/pkg/httpcore/queue"
	"github.com/yourusername/httpcore/pkg/httpcore/session"
	"github.com/yourusername/httpcore/pkg/httpcore/transport/socket"
	"github.com/yourusername/httpcore/pkg/httpcore/wire"
)

// MinMSS is the byte budget one scheduler "MSS unit" represents when the
// app session's custom_tx callback reports its burst budget in MSS units,
// per §4.5's translation rule.
const MinMSS = 1460

// pumpBufferSize is the chunk size used when copying bytes between a
// net.Conn and a connection's transport-session queues.
const pumpBufferSize = 16 * 1024

// Adapter owns the accept loop and per-connection pumps bridging real
// net.Conn I/O to the fsm package. One Adapter can serve many listeners.
type Adapter struct {
	idleTimeout time.Duration
	fifoSize    int
	socketCfg   *socket.Config
	tlsCfg      *tls.Config
	log         *logrus.Entry
	metrics     *Metrics
}

// Option configures an Adapter at construction time.
type Option func(*Adapter)

// WithIdleTimeout overrides the default 120s idle timeout applied to
// every connection the adapter accepts or dials, mirroring the config
// surface's per-endpoint HTTP.timeout extended option.
func WithIdleTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.idleTimeout = d }
}

// WithFIFOSize overrides the default per-queue capacity (64 KiB).
func WithFIFOSize(n int) Option {
	return func(a *Adapter) { a.fifoSize = n }
}

// WithSocketConfig overrides the TCP tuning applied to every accepted or
// dialed connection.
func WithSocketConfig(cfg *socket.Config) Option {
	return func(a *Adapter) { a.socketCfg = cfg }
}

// WithTLSConfig makes the adapter bind/dial over TLS, backing the config
// surface's per-endpoint CRYPTO extended option.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(a *Adapter) { a.tlsCfg = cfg }
}

// WithLogger supplies a logrus entry pre-populated with caller fields
// (listener address, endpoint name) for lifecycle logging.
func WithLogger(log *logrus.Entry) Option {
	return func(a *Adapter) { a.log = log }
}

// WithMetrics wires lifecycle counters. Without this option the adapter
// runs with metrics disabled.
func WithMetrics(m *Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// New builds an Adapter with sane defaults: 120s idle timeout, 64 KiB
// queues, default socket tuning, no TLS, the standard logrus logger.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		idleTimeout: 120 * time.Second,
		fifoSize:    64 * 1024,
		socketCfg:   socket.DefaultConfig(),
		log:         logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ServeListener runs the accept loop against ln until it returns an
// error (including from a Close call during shutdown). Every accepted
// connection is given the server role and bound to a Session the
// factory builds for it.
func (a *Adapter) ServeListener(ln net.Listener, factory appsession.Factory) error {
	if err := socket.ApplyListener(ln, a.socketCfg); err != nil {
		a.log.WithError(err).Debug("listener socket tuning not fully applied")
	}
	if a.tlsCfg != nil {
		ln = tls.NewListener(ln, a.tlsCfg)
	}

	for {
		netConn, err := ln.Accept()
		if err != nil {
			return err
		}
		go a.acceptConn(netConn, factory)
	}
}

// DialClient dials addr, performs optional TLS, and drives the resulting
// connection with the client role bound to a Session the factory builds.
// It returns once the transport handshake (including TLS) completes; the
// connection continues to be driven on a background goroutine until
// closed.
func (a *Adapter) DialClient(network, addr string, factory appsession.Factory) (*Worker, error) {
	var netConn net.Conn
	var err error
	if a.tlsCfg != nil {
		netConn, err = tls.Dial(network, addr, a.tlsCfg)
	} else {
		netConn, err = net.Dial(network, addr)
	}
	if err != nil {
		if a.metrics != nil {
			a.metrics.TransportResets.Inc()
		}
		return nil, err
	}
	if tcpConn, ok := underlyingTCPConn(netConn); ok {
		_ = socket.Apply(tcpConn, a.socketCfg)
	}

	w := a.newWorker(netConn, session.RoleClient)
	app := factory(w.conn)
	w.app = app
	if a.metrics != nil {
		a.metrics.ConnectionsConnected.Inc()
		a.metrics.ActiveConnections.Inc()
	}
	app.Connected(w.conn, w)
	go w.pumpRx()
	return w, nil
}

func (a *Adapter) acceptConn(netConn net.Conn, factory appsession.Factory) {
	if tcpConn, ok := underlyingTCPConn(netConn); ok {
		_ = socket.Apply(tcpConn, a.socketCfg)
	}

	w := a.newWorker(netConn, session.RoleServer)
	app := factory(w.conn)
	w.app = app
	if a.metrics != nil {
		a.metrics.ConnectionsAccepted.Inc()
		a.metrics.ActiveConnections.Inc()
	}
	app.Accepted(w.conn, w)
	w.pumpRx()
}

func underlyingTCPConn(c net.Conn) (*net.TCPConn, bool) {
	if tc, ok := c.(*net.TCPConn); ok {
		return tc, true
	}
	// A *tls.Conn wraps its underlying net.Conn but does not expose it, so
	// this case is intentionally a miss: a TLS listener gets only the
	// listener-level options (ApplyListener, before it is wrapped), and
	// the per-connection options of socket.Apply are not applied to TLS
	// connections, accepted or dialed.
	return nil, false
}

func (a *Adapter) newWorker(netConn net.Conn, role session.Role) *Worker {
	conn := session.New(role)
	conn.TransportRx = queue.NewByteFIFO(a.fifoSize, fsm.DrainThreshold(a.fifoSize))
	conn.TransportTx = queue.NewByteFIFO(a.fifoSize, fsm.DrainThreshold(a.fifoSize))
	conn.AppRx = queue.NewByteFIFO(a.fifoSize, fsm.DrainThreshold(a.fifoSize))
	conn.AppTx = queue.NewByteFIFO(a.fifoSize, fsm.DrainThreshold(a.fifoSize))
	conn.IdleTimeoutSeconds = int(a.idleTimeout.Seconds())

	w := &Worker{
		adapter: a,
		conn:    conn,
		netConn: netConn,
		log:     a.log.WithField("conn", conn.ID).WithField("role", conn.Role.String()),
		txStage: wire.AcquireStage(pumpBufferSize),
	}
	w.timer = idletimer.New(a.idleTimeout, w.onIdleExpire)
	conn.Redrive = func() { go w.redrive() }
	return w
}

// Worker owns one connection's serialized access to the state machine:
// fsm.Drive is never reentered concurrently for the same connection,
// matching the spec's single-worker cooperative scheduling model.
type Worker struct {
	adapter *Adapter
	conn    *session.Connection
	netConn net.Conn
	timer   *idletimer.Timer
	log     *logrus.Entry
	app     appsession.Session

	mu      sync.Mutex
	closed  bool
	txStage *bytebufferpool.ByteBuffer
}

// Connection exposes the bridged connection record so the bound app
// session can read AppRx / write AppTx directly.
func (w *Worker) Connection() *session.Connection { return w.conn }

func (w *Worker) onIdleExpire() {
	w.log.Info("idle timer expired, closing connection")
	if w.adapter.metrics != nil {
		w.adapter.metrics.IdleTimeouts.Inc()
	}
	w.teardown(func() { w.app.Closing(); w.app.Closed() })
}

// pumpRx reads downstream bytes into the transport rx queue and drives
// the dispatcher, until the transport connection closes or resets.
func (w *Worker) pumpRx() {
	defer w.teardown(func() { w.app.Closing(); w.app.Closed() })

	stage := wire.AcquireStage(pumpBufferSize)
	defer wire.ReleaseStage(stage)
	buf := stage.B
	for {
		n, err := w.netConn.Read(buf)
		if n > 0 {
			w.mu.Lock()
			if w.closed {
				w.mu.Unlock()
				return
			}
			w.conn.TransportRx.Enqueue(buf[:n])
			if w.adapter.metrics != nil {
				w.adapter.metrics.BytesReceived.Add(float64(n))
			}
			outcome := fsm.Drive(w.conn, w.timer, w.log)
			w.recordOutcomeLocked(outcome)
			w.flushTxLocked()
			w.mu.Unlock()

			if outcome == fsm.Stop {
				w.app.RxReady()
			}
			if outcome == fsm.ErrorOutcome {
				if w.adapter.metrics != nil {
					w.adapter.metrics.ParseErrors.Inc()
				}
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				w.log.WithError(err).Debug("transport read ended")
			}
			return
		}
	}
}

// CustomTx is called by the bound app session after it has written bytes
// into conn.AppTx. budgetMSS, the scheduler's burst budget in MSS units,
// is not read: fsm.Drive has no byte-budget parameter, so how much one
// call sends is bounded only by the transport tx queue's capacity — a
// simplification noted in the design ledger. CustomTx returns the bytes
// actually sent converted to MSS units (MinMSS bytes each), rounded up,
// at least 1 if any bytes were sent.
func (w *Worker) CustomTx(budgetMSS int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0
	}

	outcome := fsm.Drive(w.conn, w.timer, w.log)
	w.recordOutcomeLocked(outcome)
	sent := w.flushTxLocked()

	if outcome == fsm.ErrorOutcome {
		if w.adapter.metrics != nil {
			w.adapter.metrics.ParseErrors.Inc()
		}
	}
	if sent == 0 {
		return 0
	}
	return int(math.Ceil(float64(sent) / float64(MinMSS)))
}

// redrive is installed as conn.Redrive so a handler that stalled on a full
// queue (session.Connection.ArmDrain) re-invokes fsm.Drive once that queue
// later drains, rather than waiting for the next unrelated transport read
// or CustomTx call — without it, a handoff stuck behind a full app/transport
// queue would deadlock forever once no further I/O events occur on either
// side. conn.Redrive runs it on its own goroutine, because the transport tx
// queue's drain callback fires inside flushTxLocked while w.mu is held.
func (w *Worker) redrive() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	outcome := fsm.Drive(w.conn, w.timer, w.log)
	w.recordOutcomeLocked(outcome)
	w.flushTxLocked()
	w.mu.Unlock()

	if outcome == fsm.Stop {
		w.app.RxReady()
	}
	if outcome == fsm.ErrorOutcome {
		if w.adapter.metrics != nil {
			w.adapter.metrics.ParseErrors.Inc()
		}
	}
}

// Close implements the app-initiated close path: if nothing remains in
// the app tx queue, it disconnects immediately. Otherwise it returns
// without tearing down and records nothing; the connection stays open
// until the peer disconnects, the idle timer fires, or the dispatcher
// fails.
func (w *Worker) Close() {
	w.mu.Lock()
	drained := w.conn.AppTx.Len() == 0
	w.mu.Unlock()
	if drained {
		w.teardown(func() {})
	}
}

func (w *Worker) recordOutcomeLocked(outcome fsm.Outcome) {
	if w.adapter.metrics != nil {
		w.adapter.metrics.StateTransitions.WithLabelValues(outcome.String()).Inc()
	}
}

// flushTxLocked drains whatever fsm.Drive placed in the transport tx
// queue out to the real connection. Caller must hold w.mu.
func (w *Worker) flushTxLocked() int {
	total := 0
	for {
		n := w.conn.TransportTx.Dequeue(w.txStage.B)
		if n == 0 {
			return total
		}
		if _, err := w.netConn.Write(w.txStage.B[:n]); err != nil {
			w.log.WithError(err).Debug("transport write failed")
			return total
		}
		total += n
		if w.adapter.metrics != nil {
			w.adapter.metrics.BytesSent.Add(float64(n))
		}
	}
}

func (w *Worker) teardown(notify func()) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.timer.Stop()
	w.conn.Close()
	wire.ReleaseStage(w.txStage)
	w.mu.Unlock()

	w.netConn.Close()
	if w.adapter.metrics != nil {
		w.adapter.metrics.ActiveConnections.Dec()
	}
	notify()
}
