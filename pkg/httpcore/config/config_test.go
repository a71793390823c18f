package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "httpcore.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.FirstSegmentSize != minSegmentSize {
		t.Errorf("FirstSegmentSize = %d, want %d", d.FirstSegmentSize, minSegmentSize)
	}
	if d.FIFOSize != 64<<10 {
		t.Errorf("FIFOSize = %d, want %d", d.FIFOSize, 64<<10)
	}
}

func TestLoadAppliesDefaultsAndEndpointTimeout(t *testing.T) {
	path := writeConfig(t, `
endpoints:
  - name: public
    addr: ":8443"
    crypto:
      cert_file: /tmp/cert.pem
      key_file: /tmp/key.pem
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FirstSegmentSize != minSegmentSize {
		t.Errorf("FirstSegmentSize not defaulted: %d", cfg.FirstSegmentSize)
	}
	if len(cfg.Endpoints) != 1 {
		t.Fatalf("Endpoints = %d, want 1", len(cfg.Endpoints))
	}
	ep := cfg.Endpoints[0]
	if ep.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want default %v", ep.Timeout, defaultTimeout)
	}
	if ep.Crypto == nil || ep.Crypto.CertFile != "/tmp/cert.pem" {
		t.Errorf("Crypto not decoded: %+v", ep.Crypto)
	}
}

func TestLoadHonorsExplicitTimeout(t *testing.T) {
	path := writeConfig(t, `
endpoints:
  - name: internal
    addr: ":8080"
    timeout: 30s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoints[0].Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Endpoints[0].Timeout)
	}
}

func TestValidateRejectsUndersizedFIFO(t *testing.T) {
	cfg := Defaults()
	cfg.FIFOSize = 1024
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an undersized fifo-size")
	}
}

func TestValidateRejectsUndersizedSegment(t *testing.T) {
	cfg := Defaults()
	cfg.FirstSegmentSize = 1024
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an undersized first-segment-size")
	}
}

func TestValidateRejectsEndpointMissingAddr(t *testing.T) {
	cfg := Defaults()
	cfg.Endpoints = []Endpoint{{Name: "bad"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an endpoint missing addr")
	}
}

func TestValidateRejectsIncompleteCrypto(t *testing.T) {
	cfg := Defaults()
	cfg.Endpoints = []Endpoint{{Name: "bad", Addr: ":443", Crypto: &Crypto{CertFile: "only-cert.pem"}}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for crypto missing key_file")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
