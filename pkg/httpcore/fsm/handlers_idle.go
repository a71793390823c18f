package fsm

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/httpcore/pkg/httpcore/idletimer"
	"github.com/yourusername/httpcore/pkg/httpcore/session"
)

// handleIdle picks the first state of a connection's next transaction once
// the relevant queue has bytes available: a server waits on its transport
// rx queue for the next client request, a client waits on its app rx
// queue for the next outgoing request.
func handleIdle(conn *session.Connection, timer *idletimer.Timer, log *logrus.Entry) Outcome {
	switch conn.Role {
	case session.RoleServer:
		if conn.TransportRx.Len() == 0 {
			return Stop
		}
		conn.HTTP = session.StateWaitClientMethod
		return Continue
	case session.RoleClient:
		if conn.AppTx.Len() == 0 {
			return Stop
		}
		conn.HTTP = session.StateWaitAppMethod
		return Continue
	default:
		log.Error("connection has no role set")
		return ErrorOutcome
	}
}
