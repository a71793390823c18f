//go:build linux

package socket

import "golang.org/x/sys/unix"

// applyPlatformOptions applies Linux-specific socket options. Called from
// Apply in tuning.go.
func applyPlatformOptions(fd int, cfg *Config) {
	if cfg.QuickAck {
		// TCP_QUICKACK is not persistent — it is cleared after the next
		// ACK — so this is a best-effort optimization set once at accept
		// time rather than re-armed after every read.
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
	}

	// Detect dead connections faster than the default retransmit timeout.
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_USER_TIMEOUT, 10000)

	if cfg.KeepAlive {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, 60)
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, 10)
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, 3)
	}
}

// applyListenerOptions applies Linux-specific listener options. Called
// from ApplyListener in tuning.go.
func applyListenerOptions(fd int, cfg *Config) error {
	var lastErr error

	if cfg.DeferAccept {
		// Don't wake the accept loop until request bytes have actually
		// arrived; mitigates SYN-flood-style empty connections.
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_DEFER_ACCEPT, 5); err != nil {
			lastErr = err
		}
	}
	if cfg.FastOpen {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_FASTOPEN, 256); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// SetQuickAck re-arms TCP_QUICKACK on fd. Callers that want persistent
// quick-ack behavior (the option clears itself after the next ACK) call
// this after each read.
func SetQuickAck(fd int) error {
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
}
