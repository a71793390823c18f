package fsm

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/httpcore/pkg/httpcore/idletimer"
	"github.com/yourusername/httpcore/pkg/httpcore/session"
)

// handleClientIOMoreData is the generic streaming sub-state shared by both
// roles: a pure byte pump moving whatever body bytes have arrived in the
// transport rx queue into the app rx queue, decrementing conn.ToRecv as it
// goes. It never re-parses control data — WAIT_CLIENT_METHOD/WAIT_SERVER_
// REPLY already handed that off — and it is the only handler that mutates
// ToRecv after the initial parse. A transport peer that delivers more body
// bytes than the Content-Length it declared is a protocol error.
func handleClientIOMoreData(conn *session.Connection, timer *idletimer.Timer, log *logrus.Entry) Outcome {
	avail := conn.TransportRx.Len()
	if avail == 0 {
		return Stop
	}
	if int64(avail) > conn.ToRecv {
		log.Error("peer sent more body data than its declared length")
		return ErrorOutcome
	}

	free := conn.AppRx.Free()
	if free == 0 {
		conn.ArmDrain(conn.AppRx)
		return Stop
	}

	chunk := conn.TransportRx.Peek()
	stalled := len(chunk) > free
	if stalled {
		chunk = chunk[:free]
	}
	n := conn.AppRx.Enqueue(chunk)
	conn.TransportRx.Drop(n)
	conn.ToRecv -= int64(n)

	if stalled || n < len(chunk) {
		conn.ArmDrain(conn.AppRx)
		return Stop
	}
	if conn.ToRecv > 0 {
		return Stop
	}

	switch conn.Role {
	case session.RoleServer:
		conn.HTTP = session.StateWaitAppReply
	case session.RoleClient:
		conn.HTTP = session.StateWaitAppMethod
		conn.Reset()
	}
	return Continue
}
