// Package config decodes the core's small external configuration surface
// — segment sizing, default queue capacity, and per-endpoint idle-timeout
// and TLS options — from a YAML file plus environment overrides, using
// viper the way a gateway-shaped service binds a typed options struct
// from file and env.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	minSegmentSize = 1 << 20        // 1 MiB
	minFIFOSize    = 4 << 10        // 4 KiB
	maxFIFOSize    = 2 << 30        // 2 GiB
	defaultTimeout = 120 * time.Second
)

// Endpoint holds the per-listener/per-dial extended options: an idle
// timeout override and, if Crypto is non-nil, the certificate pair a
// listener binds over TLS instead of plain TCP.
type Endpoint struct {
	Name    string        `mapstructure:"name"`
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
	Crypto  *Crypto       `mapstructure:"crypto"`
}

// Crypto is the CRYPTO extended option: certificate/key file paths for a
// TLS-bound endpoint.
type Crypto struct {
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// Config is the core's full config surface: the two app-session segment
// sizes, the default fifo size new connections' queues are sized at, and
// the set of configured endpoints.
type Config struct {
	FirstSegmentSize int        `mapstructure:"first-segment-size"`
	AddSegmentSize   int        `mapstructure:"add-segment-size"`
	FIFOSize         int        `mapstructure:"fifo-size"`
	Endpoints        []Endpoint `mapstructure:"endpoints"`
}

// Defaults returns a Config with 1 MiB segments (the stated minimum), a
// 64 KiB default fifo size, and no endpoints configured.
func Defaults() *Config {
	return &Config{
		FirstSegmentSize: minSegmentSize,
		AddSegmentSize:   minSegmentSize,
		FIFOSize:         64 << 10,
	}
}

// Load reads path (YAML) plus HTTPCORE_-prefixed environment overrides
// into a Config seeded with Defaults, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("HTTPCORE")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("first-segment-size", d.FirstSegmentSize)
	v.SetDefault("add-segment-size", d.AddSegmentSize)
	v.SetDefault("fifo-size", d.FIFOSize)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	for i := range cfg.Endpoints {
		if cfg.Endpoints[i].Timeout == 0 {
			cfg.Endpoints[i].Timeout = defaultTimeout
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against the bounds the config surface
// states: segment sizes at least 1 MiB, fifo size within [4 KiB, 2 GiB],
// every endpoint naming a non-empty address and, if Crypto is set, both
// certificate file paths.
func (c *Config) Validate() error {
	if c.FirstSegmentSize < minSegmentSize {
		return fmt.Errorf("config: first-segment-size must be >= %d bytes", minSegmentSize)
	}
	if c.AddSegmentSize < minSegmentSize {
		return fmt.Errorf("config: add-segment-size must be >= %d bytes", minSegmentSize)
	}
	if c.FIFOSize < minFIFOSize || c.FIFOSize > maxFIFOSize {
		return fmt.Errorf("config: fifo-size must be within [%d, %d] bytes", minFIFOSize, maxFIFOSize)
	}
	for _, ep := range c.Endpoints {
		if ep.Addr == "" {
			return fmt.Errorf("config: endpoint %q missing addr", ep.Name)
		}
		if ep.Crypto != nil && (ep.Crypto.CertFile == "" || ep.Crypto.KeyFile == "") {
			return fmt.Errorf("config: endpoint %q crypto requires cert_file and key_file", ep.Name)
		}
	}
	return nil
}
