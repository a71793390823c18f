package fsm

import (
	"bytes"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/httpcore/pkg/httpcore/idletimer"
	"github.com/yourusername/httpcore/pkg/httpcore/session"
	"github.com/yourusername/httpcore/pkg/httpcore/wire"
)

// handleWaitAppMethod waits for the local application to have written a
// REQUEST handoff message into the app tx queue, synthesizes the Host,
// User-Agent, and (for POST) Content-Length headers §4.4 requires,
// splices in the app's own header lines, and sends the formatted
// request-line onto the transport tx queue.
func handleWaitAppMethod(conn *session.Connection, timer *idletimer.Timer, log *logrus.Entry) Outcome {
	peek := conn.AppTx.Peek()
	h, ok := session.DecodeHandoff(peek)
	if !ok {
		return Stop
	}
	if h.Type != session.MessageRequest || h.Method == wire.MethodUnknown {
		log.Error("application wrote an invalid request handoff")
		conn.AppTx.Drop(conn.AppTx.Len())
		return ErrorOutcome
	}

	target := formatTarget(h.TargetForm, h.PathBytes(peek), h.QueryBytes(peek))
	headerLines := h.HeaderLineBytes(peek)

	var buf bytes.Buffer
	buf.WriteString(h.Method.String())
	buf.WriteByte(' ')
	buf.Write(target)
	buf.WriteString(" HTTP/1.1\r\nHost: ")
	buf.WriteString(conn.Host)
	buf.WriteString("\r\nUser-Agent: ")
	buf.WriteString(conn.AppName)
	if h.Method == wire.MethodPOST {
		buf.WriteString("\r\nContent-Length: ")
		buf.WriteString(itoa64(h.BodyLen))
	}
	buf.WriteString("\r\n")
	buf.Write(headerLines)
	buf.WriteString("\r\n")

	formatted := buf.Bytes()
	if n := conn.TransportTx.Enqueue(formatted); n < len(formatted) {
		log.Error("short enqueue formatting request onto transport tx")
		return ErrorOutcome
	}

	conn.AppTx.Drop(session.HeaderSize + h.PathLen + h.QueryLen + h.HeadersLen)

	if h.BodyLen > 0 {
		conn.TxBuf.Init(conn.AppTx, h.BodyLen)
		conn.HasTxBuf = true
		conn.HTTP = session.StateAppIOMoreData
		return Continue
	}
	conn.HTTP = session.StateWaitServerReply
	return Continue
}

// handleWaitServerReply parses the next reply's control data out of the
// transport rx queue and hands it to the application as a handoff
// message, streaming the body in over CLIENT_IO_MORE_DATA when it is
// still arriving or the app rx queue backpressures.
func handleWaitServerReply(conn *session.Connection, timer *idletimer.Timer, log *logrus.Entry) Outcome {
	peek := conn.TransportRx.Peek()
	if len(peek) < 12 {
		return Stop
	}

	reply, err := wire.ParseReply(peek)
	if err != nil {
		if err == wire.ErrNeedMoreData {
			if len(peek) > wire.MaxRequestLineSize+wire.MaxHeadersSize {
				log.Error("server reply exceeded size limits without terminating")
				return ErrorOutcome
			}
			return Stop
		}
		log.WithError(err).Debug("server sent a malformed reply")
		return ErrorOutcome
	}

	if conn.AppRx.Cap() < session.HeaderSize+reply.ControlDataLen {
		log.Error("app rx queue too small to ever hold this reply's control data")
		return ErrorOutcome
	}

	control := session.EncodeParsedReplyHeader(reply, peek)
	if conn.AppRx.Free() < len(control) {
		conn.ArmDrain(conn.AppRx)
		return Stop
	}
	conn.AppRx.Enqueue(control)

	bodyAvail := len(peek) - reply.BodyOffset
	if int64(bodyAvail) > reply.BodyLen {
		bodyAvail = int(reply.BodyLen)
	}
	n := conn.AppRx.Enqueue(peek[reply.BodyOffset : reply.BodyOffset+bodyAvail])

	conn.TransportRx.Drop(reply.ControlDataLen + n)
	conn.ToRecv = reply.BodyLen - int64(n)

	conn.Offsets = session.ParsedOffsets{
		ControlDataLen: reply.ControlDataLen,
		HeadersOffset:  reply.HeadersOffset,
		HeadersLen:     reply.HeadersLen,
		BodyOffset:     reply.BodyOffset,
		BodyLen:        reply.BodyLen,
		StatusCode:     int(reply.StatusCode),
	}
	log.WithFields(logrus.Fields{
		"code":    reply.StatusCode,
		"bodyLen": reply.BodyLen,
	}).Debug("handing reply off to application")

	if conn.ToRecv == 0 {
		if rem := conn.TransportRx.Len(); rem > 0 {
			conn.TransportRx.Drop(rem)
		}
		conn.HTTP = session.StateWaitAppMethod
		conn.Reset()
		return Continue
	}
	conn.HTTP = session.StateClientIOMoreData
	return Continue
}

// formatTarget reconstructs the wire request-target string from a
// handoff's already-split form/path/query fields, the inverse of
// wire.ClassifyTarget.
func formatTarget(form wire.TargetForm, path, query []byte) []byte {
	if form == wire.TargetAsterisk {
		return []byte("*")
	}
	var buf bytes.Buffer
	if form == wire.TargetOrigin {
		buf.WriteByte('/')
	}
	buf.Write(path)
	if len(query) > 0 {
		buf.WriteByte('?')
		buf.Write(query)
	}
	return buf.Bytes()
}
