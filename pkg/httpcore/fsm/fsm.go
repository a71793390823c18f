// Package fsm implements the cooperative per-connection state machine that
// bridges a transport session's byte queues to an application session's
// byte queues: each state handler advances a session.Connection exactly one
// step per invocation and reports whether the dispatcher should keep driving
// it, stop and wait for more I/O, or tear the connection down; the
// dispatcher (Drive) keeps invoking handlers until one reports Stop or
// ErrorOutcome.
package fsm

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/httpcore/pkg/httpcore/idletimer"
	"github.com/yourusername/httpcore/pkg/httpcore/session"
	"github.com/yourusername/httpcore/pkg/httpcore/wire"
)

// dateFormat is RFC 9110's fixed-length IMF-fixdate, used verbatim for
// every synthesized Date header (minimal error replies and WAIT_APP_REPLY's
// formatted reply alike).
const dateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// Outcome is the three-way result every state handler returns to the
// dispatcher: whether the connection made progress and should be run again
// immediately, whether it has exhausted the data currently available and
// the caller should return control to its event loop, or whether the
// connection must be torn down.
type Outcome uint8

const (
	// Continue means the handler made progress and the dispatcher should
	// immediately invoke the handler for the new state.
	Continue Outcome = iota
	// Stop means no more progress is possible right now (need more rx
	// bytes, queue full, or the whole request/reply has been handed off);
	// the caller returns to its own event loop.
	Stop
	// ErrorOutcome means the connection hit an unrecoverable protocol or
	// I/O failure and must be closed.
	ErrorOutcome
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "CONTINUE"
	case Stop:
		return "STOP"
	case ErrorOutcome:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FifoThreshold is the occupancy a full queue must drain back down to
// before its one-shot drain notification fires and the write side is woken,
// the smaller of a fixed cap and the queue's own capacity.
const FifoThreshold = 16 * 1024

// DrainThreshold returns min(FifoThreshold, capacity), the low-water mark a
// queue should be constructed with.
func DrainThreshold(capacity int) int {
	if capacity < FifoThreshold {
		return capacity
	}
	return FifoThreshold
}

// handler advances conn by exactly one logical step from its current
// session.HTTP state and returns the outcome. Handlers never block; a
// handler that cannot make progress without more data returns Stop rather
// than spinning.
type handler func(conn *session.Connection, timer *idletimer.Timer, log *logrus.Entry) Outcome

var handlers = map[session.HTTPState]handler{
	session.StateIdle:             handleIdle,
	session.StateWaitAppMethod:    handleWaitAppMethod,
	session.StateWaitClientMethod: handleWaitClientMethod,
	session.StateWaitServerReply:  handleWaitServerReply,
	session.StateWaitAppReply:     handleWaitAppReply,
	session.StateClientIOMoreData: handleClientIOMoreData,
	session.StateAppIOMoreData:    handleAppIOMoreData,
}

// Drive runs the dispatcher loop for conn: it repeatedly looks up the
// handler for conn's current state and invokes it until a handler reports
// Stop or ErrorOutcome. On ErrorOutcome it closes conn and returns the
// outcome so the caller can log/count the failure; the caller remains
// responsible for disconnecting the transport session.
func Drive(conn *session.Connection, timer *idletimer.Timer, log *logrus.Entry) Outcome {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	for {
		h, ok := handlers[conn.HTTP]
		if !ok {
			log.WithField("state", conn.HTTP).Error("no handler registered for state")
			conn.Close()
			return ErrorOutcome
		}
		outcome := h(conn, timer, log.WithField("conn", conn.ID).WithField("state", conn.HTTP.String()))
		switch outcome {
		case Continue:
			continue
		case Stop:
			if timer != nil {
				timer.Refresh()
			}
			return Stop
		case ErrorOutcome:
			conn.Close()
			return ErrorOutcome
		}
	}
}

// writeMinimalErrorReply formats a bare status-line-plus-Date reply (no
// body, Connection: close, Content-Length: 0) directly into conn's
// transport tx queue per §7.1, used when a request is too malformed to
// hand to the application at all.
func writeMinimalErrorReply(conn *session.Connection, code wire.StatusCode) {
	line := "HTTP/1.1 " + itoa(int(code)) + " " + wire.ReasonPhrase(code) + "\r\n" +
		"Date: " + time.Now().UTC().Format(dateFormat) + "\r\n" +
		"Connection: close\r\n" +
		"Content-Length: 0\r\n\r\n"
	conn.TransportTx.Enqueue([]byte(line))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func itoa64(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// classifyParseErr maps a wire parse error to the status code an error
// reply should carry, or reports that no reply is possible when the parser
// only needs more data (ErrNeedMoreData). Every other error yields
// respond=true.
func classifyParseErr(err error) (code wire.StatusCode, respond bool) {
	if errors.Is(err, wire.ErrNeedMoreData) {
		return 0, false
	}
	return wire.StatusFor(err), true
}
