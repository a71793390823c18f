package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/httpcore/pkg/httpcore/appsession"
	"github.com/yourusername/httpcore/pkg/httpcore/session"
)

// echoSession is the example application: every request gets a 200 OK
// reply with a tiny plain-text body naming the parsed method and target
// path, demonstrating the full accept -> rx -> RxReady -> custom_tx -> tx
// round trip a real application session drives.
type echoSession struct {
	log    *logrus.Entry
	connID string
	conn   *session.Connection
	driver appsession.Driver
}

func newEchoSession(log *logrus.Entry, connID string) *echoSession {
	return &echoSession{log: log.WithField("conn", connID), connID: connID}
}

func (s *echoSession) Accepted(conn *session.Connection, driver appsession.Driver) {
	s.conn = conn
	s.driver = driver
	s.log.Debug("connection accepted")
}

func (s *echoSession) Connected(conn *session.Connection, driver appsession.Driver) {
	s.conn = conn
	s.driver = driver
}

func (s *echoSession) ConnectFailed(err error) {
	s.log.WithError(err).Warn("connect failed")
}

func (s *echoSession) RxReady() {
	peek := s.conn.AppRx.Peek()
	h, ok := session.DecodeHandoff(peek)
	if !ok {
		// Not all of this request's handoff message has arrived yet
		// (still streaming in over CLIENT_IO_MORE_DATA); wait for the
		// next RxReady once more of it lands.
		return
	}

	path := string(h.PathBytes(peek))
	if path == "" {
		path = "/"
	}
	body := fmt.Sprintf("method=%s path=%s\n", h.Method.String(), path)

	s.conn.AppRx.Drop(h.TotalLen())
	s.conn.AppTx.Enqueue(session.EncodeReply(200, nil, []byte(body)))
	s.driver.CustomTx(1)
}

func (s *echoSession) Closing() { s.log.Debug("connection closing") }
func (s *echoSession) Closed()  { s.log.Debug("connection closed") }
func (s *echoSession) Reset()   { s.log.Debug("connection reset") }
