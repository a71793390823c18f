// Package appsession defines the upstream collaborator the transport
// adapter drives: whatever attaches above the core as a server (consuming
// requests, producing replies) or a client (producing requests, consuming
// replies). The core only ever touches the app side through a
// session.Connection's AppRx/AppTx queues and this notification interface
// — the queue contents and their framing are this package's business, not
// the adapter's.
package appsession

import "github.com/yourusername/httpcore/pkg/httpcore/session"

// Driver is the handle a Session uses to call back into the transport
// adapter: custom_tx after writing to conn.AppTx, and an app-initiated
// close. The transport.Worker that drives a connection satisfies this
// interface; appsession does not import transport to avoid a cycle.
type Driver interface {
	// CustomTx runs the dispatcher after the app has written bytes into
	// AppTx. budgetMSS is the scheduler's burst budget in MSS units; the
	// return value is the budget consumed, in MSS units, rounded up to
	// at least 1 if anything was sent.
	CustomTx(budgetMSS int) int

	// Close requests an app-initiated teardown.
	Close()
}

// Session is the set of lifecycle notifications the transport adapter
// sends to the upstream application session bound to one connection. An
// application implements Session once per connection and hands the
// adapter a factory that produces one.
type Session interface {
	// Accepted is called once a server connection has been established
	// and its rx/tx queues are ready to read/write.
	Accepted(conn *session.Connection, driver Driver)

	// Connected is called once a client connection's transport handshake
	// has completed, or ConnectFailed if it never will.
	Connected(conn *session.Connection, driver Driver)
	ConnectFailed(err error)

	// RxReady is called after the adapter has pushed new handoff bytes
	// into conn.AppRx — the application's cue to wake up and read.
	RxReady()

	// Closing is called once the transport side has started tearing down
	// (peer disconnect, idle timeout, protocol error) so the application
	// can stop producing new app tx bytes. Closed follows once the
	// connection record itself is about to be freed.
	Closing()
	Closed()

	// Reset is called on an abrupt transport reset, distinct from the
	// orderly Closing/Closed pair.
	Reset()
}

// Factory builds the Session bound to a freshly accepted or connected
// session.Connection. The adapter calls it exactly once per connection,
// before the first RxReady notification can fire.
type Factory func(conn *session.Connection) Session

// NopSession is a Session that ignores every notification, useful for
// tests and for the client role when nothing but the raw queues matter.
type NopSession struct{}

func (NopSession) Accepted(*session.Connection, Driver)  {}
func (NopSession) Connected(*session.Connection, Driver) {}
func (NopSession) ConnectFailed(error)                   {}
func (NopSession) RxReady()                              {}
func (NopSession) Closing()                              {}
func (NopSession) Closed()                               {}
func (NopSession) Reset()                                {}
