//go:build !linux && !darwin

package socket

// applyPlatformOptions is a no-op on platforms without specific tuning
// knobs.
func applyPlatformOptions(fd int, cfg *Config) {}

// applyListenerOptions is a no-op on platforms without specific tuning
// knobs.
func applyListenerOptions(fd int, cfg *Config) error { return nil }

// SetQuickAck is a no-op on platforms without TCP_QUICKACK.
func SetQuickAck(fd int) error { return nil }
