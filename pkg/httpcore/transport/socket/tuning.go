// Package socket applies cross-platform TCP tuning to the raw connections
// a transport-session listener accepts or dials, before they are wrapped
// into a connection record. Platform-specific knobs live in
// tuning_linux.go and tuning_darwin.go.
package socket

import (
	"net"
	"syscall"
)

// Config describes the socket options to apply to an accepted or dialed
// TCP connection. Zero values mean "use the system default".
type Config struct {
	// NoDelay disables Nagle's algorithm (TCP_NODELAY). HTTP/1.1 request
	// and reply framing is small and latency-sensitive, so this defaults
	// to true.
	NoDelay bool

	// RecvBuffer and SendBuffer set SO_RCVBUF/SO_SNDBUF in bytes. 0 uses
	// the system default.
	RecvBuffer int
	SendBuffer int

	// QuickAck sends immediate ACKs rather than waiting for the delayed-ACK
	// timer (Linux only).
	QuickAck bool

	// DeferAccept avoids waking the accept loop until the first byte of a
	// request has actually arrived (Linux only).
	DeferAccept bool

	// FastOpen enables TCP Fast Open where the kernel supports it.
	FastOpen bool

	// KeepAlive enables SO_KEEPALIVE, important for connections that sit
	// idle between requests under a keep-alive idle timer.
	KeepAlive bool
}

// DefaultConfig returns tuning suited to a request/reply HTTP/1.1
// transport: low latency, keepalive on, moderate buffers.
func DefaultConfig() *Config {
	return &Config{
		NoDelay:     true,
		RecvBuffer:  256 * 1024,
		SendBuffer:  256 * 1024,
		QuickAck:    true,
		DeferAccept: true,
		FastOpen:    true,
		KeepAlive:   true,
	}
}

// Apply applies cfg to conn. It returns an error only if the critical
// TCP_NODELAY option fails to set; platform-specific options are
// best-effort and never fail the call. Connections that are not
// *net.TCPConn (e.g. already-wrapped TLS connections passed the
// underlying conn) are left untouched.
func Apply(conn net.Conn, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return err
	}

	var lastErr error
	err = rawConn.Control(func(fd uintptr) {
		if cfg.NoDelay {
			if err := syscall.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1); err != nil {
				lastErr = err
				return
			}
		}
		if cfg.RecvBuffer > 0 {
			_ = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_RCVBUF, cfg.RecvBuffer)
		}
		if cfg.SendBuffer > 0 {
			_ = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_SNDBUF, cfg.SendBuffer)
		}
		if cfg.KeepAlive {
			_ = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_KEEPALIVE, 1)
		}
		applyPlatformOptions(int(fd), cfg)
	})
	if err != nil {
		return err
	}
	return lastErr
}

// ApplyListener applies the options that must be set on the listening
// socket itself (TCP_DEFER_ACCEPT, TCP_FASTOPEN) before Accept is called.
func ApplyListener(listener net.Listener, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tcpListener, ok := listener.(*net.TCPListener)
	if !ok {
		return nil
	}

	file, err := tcpListener.File()
	if err != nil {
		return err
	}
	defer file.Close()

	return applyListenerOptions(int(file.Fd()), cfg)
}
