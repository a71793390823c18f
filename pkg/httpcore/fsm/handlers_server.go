package fsm

import (
	"bytes"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/httpcore/pkg/httpcore/idletimer"
	"github.com/yourusername/httpcore/pkg/httpcore/queue"
	"github.com/yourusername/httpcore/pkg/httpcore/session"
	"github.com/yourusername/httpcore/pkg/httpcore/wire"
)

// handleWaitClientMethod parses the next request out of a server
// connection's transport rx queue and hands it to the application as a
// real handoff message on the app rx queue: a fixed header (carrying
// method, target, and header offsets/lengths) followed by the path,
// query, and app header-line bytes, followed by as much of the body as
// has arrived so far. If the whole body was available and handed off in
// this one pass, the connection moves straight to WAIT_APP_REPLY; if
// the body is still arriving or the app rx queue backpressures partway
// through, it moves to CLIENT_IO_MORE_DATA to stream the remainder.
func handleWaitClientMethod(conn *session.Connection, timer *idletimer.Timer, log *logrus.Entry) Outcome {
	peek := conn.TransportRx.Peek()
	if len(peek) < 8 {
		return Stop
	}

	req, err := wire.ParseRequest(peek)
	if err != nil {
		if errors.Is(err, wire.ErrNeedMoreData) {
			if len(peek) > wire.MaxRequestLineSize+wire.MaxHeadersSize {
				writeMinimalErrorReply(conn, wire.StatusBadRequest)
				return ErrorOutcome
			}
			return Stop
		}
		if code, respond := classifyParseErr(err); respond {
			writeMinimalErrorReply(conn, code)
		}
		log.WithError(err).Debug("rejecting malformed client request")
		return ErrorOutcome
	}

	if conn.AppRx.Cap() < session.HeaderSize+req.ControlDataLen {
		writeMinimalErrorReply(conn, wire.StatusInternalServerError)
		log.Error("app rx queue too small to ever hold this request's control data")
		return ErrorOutcome
	}

	control := session.EncodeParsedRequestHeader(req, peek)
	if conn.AppRx.Free() < len(control) {
		conn.ArmDrain(conn.AppRx)
		return Stop
	}
	conn.AppRx.Enqueue(control)

	bodyAvail := len(peek) - req.BodyOffset
	if int64(bodyAvail) > req.BodyLen {
		bodyAvail = int(req.BodyLen)
	}
	n := conn.AppRx.Enqueue(peek[req.BodyOffset : req.BodyOffset+bodyAvail])

	conn.TransportRx.Drop(req.ControlDataLen + n)
	conn.ToRecv = req.BodyLen - int64(n)

	conn.Offsets = session.ParsedOffsets{
		ControlDataLen:    req.ControlDataLen,
		HeadersOffset:     req.HeadersOffset,
		HeadersLen:        req.HeadersLen,
		BodyOffset:        req.BodyOffset,
		BodyLen:           req.BodyLen,
		TargetPathOffset:  req.Target.PathOffset,
		TargetPathLen:     req.Target.PathLen,
		TargetQueryOffset: req.Target.QueryOffset,
		TargetQueryLen:    req.Target.QueryLen,
		TargetForm:        int(req.Target.Form),
		Method:            int(req.Method),
	}
	log.WithFields(logrus.Fields{
		"method":  req.Method,
		"target":  req.Target.Form,
		"bodyLen": req.BodyLen,
	}).Debug("handing request off to application")

	if conn.ToRecv == 0 {
		if rem := conn.TransportRx.Len(); rem > 0 {
			conn.TransportRx.Drop(rem)
		}
		conn.HTTP = session.StateWaitAppReply
		return Continue
	}
	conn.HTTP = session.StateClientIOMoreData
	return Continue
}

// handleWaitAppReply waits for the application to have written a REPLY
// handoff message into the app tx queue, synthesizes the Date/Server/
// Content-Length headers §4.4 requires, splices in the app's own header
// lines, and sends the formatted status-line onto the transport tx queue.
func handleWaitAppReply(conn *session.Connection, timer *idletimer.Timer, log *logrus.Entry) Outcome {
	peek := conn.AppTx.Peek()
	h, ok := session.DecodeHandoff(peek)
	if !ok {
		return Stop
	}
	if h.Type != session.MessageReply || h.Code == 0 {
		log.Error("application wrote an invalid reply handoff")
		conn.AppTx.Drop(conn.AppTx.Len())
		return ErrorOutcome
	}

	headerLines := h.HeaderLineBytes(peek)

	var buf bytes.Buffer
	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(itoa(int(h.Code)))
	buf.WriteByte(' ')
	buf.WriteString(wire.ReasonPhrase(h.Code))
	buf.WriteString("\r\nDate: ")
	buf.WriteString(time.Now().UTC().Format(dateFormat))
	buf.WriteString("\r\nServer: ")
	buf.WriteString(conn.AppName)
	buf.WriteString("\r\nContent-Length: ")
	buf.WriteString(itoa64(h.BodyLen))
	buf.WriteString("\r\n")
	buf.Write(headerLines)
	buf.WriteString("\r\n")

	formatted := buf.Bytes()
	if n := conn.TransportTx.Enqueue(formatted); n < len(formatted) {
		log.Error("short enqueue formatting reply onto transport tx")
		return ErrorOutcome
	}

	conn.AppTx.Drop(session.HeaderSize + h.HeadersLen)

	if h.BodyLen > 0 {
		conn.TxBuf.Init(conn.AppTx, h.BodyLen)
		conn.HasTxBuf = true
		conn.HTTP = session.StateAppIOMoreData
		return Continue
	}
	conn.HTTP = session.StateWaitClientMethod
	conn.Reset()
	return Stop
}

// handleAppIOMoreData streams a transmit buffer into the transport tx
// queue until fully drained, then returns the connection to the state
// appropriate to its role: back to WAIT_CLIENT_METHOD for the next
// request (server) or on to WAIT_SERVER_REPLY (client). Per the
// no-pipelining rule, on the server side any bytes the client sent ahead
// of the reply being fully sent are discarded rather than parsed as a
// second request.
func handleAppIOMoreData(conn *session.Connection, timer *idletimer.Timer, log *logrus.Entry) Outcome {
	if outcome, done := drainTxBuf(conn, conn.TransportTx); !done {
		return outcome
	}

	conn.TxBuf.Free()
	conn.HasTxBuf = false

	switch conn.Role {
	case session.RoleServer:
		conn.Reset()
		if n := conn.TransportRx.Len(); n > 0 {
			conn.TransportRx.Drop(n)
		}
		conn.HTTP = session.StateWaitClientMethod
	case session.RoleClient:
		conn.HTTP = session.StateWaitServerReply
	}
	return Continue
}

// drainTxBuf pushes as much of conn.TxBuf as dst will currently accept.
// It returns (Continue, true) once the buffer is fully drained, or
// (Stop, false) once dst's free space or the source queue's available
// bytes are exhausted for now. When dst's free space is the limit it first
// arms dst's drain notification so fsm.Drive is re-invoked once there is
// room again; an exhausted source arms nothing.
func drainTxBuf(conn *session.Connection, dst *queue.ByteFIFO) (Outcome, bool) {
	for !conn.TxBuf.IsDrained() {
		free := dst.Free()
		if free == 0 {
			conn.ArmDrain(dst)
			return Stop, false
		}
		segs := conn.TxBuf.GetSegs(int64(free))
		if len(segs) == 0 || len(segs[0].Data) == 0 {
			return Stop, false
		}
		n := dst.Enqueue(segs[0].Data)
		conn.TxBuf.Drain(int64(n))
		if n < len(segs[0].Data) {
			conn.ArmDrain(dst)
			return Stop, false
		}
	}
	return Continue, true
}
