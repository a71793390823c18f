//go:build darwin

package socket

import "syscall"

const (
	tcpFastopen  = 0x105
	tcpKeepalive = 0x10
	soNoSigpipe  = 0x1022
)

// applyPlatformOptions applies Darwin-specific socket options. Called
// from Apply in tuning.go.
func applyPlatformOptions(fd int, cfg *Config) {
	// Linux gets equivalent protection via MSG_NOSIGNAL on send; Darwin
	// needs the socket option instead.
	_ = syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, soNoSigpipe, 1)

	if cfg.KeepAlive {
		_ = syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpKeepalive, 60)
	}
}

// applyListenerOptions applies Darwin-specific listener options. Called
// from ApplyListener in tuning.go.
func applyListenerOptions(fd int, cfg *Config) error {
	var lastErr error
	if cfg.FastOpen {
		if err := syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpFastopen, 256); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// SetQuickAck is a no-op on Darwin; there is no TCP_QUICKACK equivalent.
// It exists so callers do not need a build-tag switch of their own.
func SetQuickAck(fd int) error {
	return nil
}
