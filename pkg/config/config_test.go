package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Suhaibinator/SNexus/pkg/middleware"
	"go.uber.org/zap"
)

func TestParseValid(t *testing.T) {
	yaml := `
server:
  address: ":9090"
  shutdown_timeout: 5s
limits:
  max_body_size: 1048576
rate_limit:
  limit: 100
  window: 1m
cors:
  origins:
    - https://app.example.com
  methods: [GET, POST]
ip:
  source: x_real_ip
  trust_proxy: true
trace_id: true
metrics:
  enabled: true
  namespace: snexus
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if cfg.Server.Address != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Server.Address)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Limits.MaxBodySize != 1<<20 {
		t.Errorf("expected 1048576, got %d", cfg.Limits.MaxBodySize)
	}
	if cfg.RateLimit == nil || cfg.RateLimit.Window != time.Minute || cfg.RateLimit.Limit != 100 {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.Bucket != "global" {
		t.Errorf("expected default bucket global, got %s", cfg.RateLimit.Bucket)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("expected default metrics path /metrics, got %s", cfg.Metrics.Path)
	}
	if !cfg.TraceID {
		t.Error("expected trace_id to be enabled")
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if cfg.Server.Address != DefaultAddress {
		t.Errorf("expected %s, got %s", DefaultAddress, cfg.Server.Address)
	}
	if cfg.Server.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("expected %s, got %s", DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	}
	if cfg.RateLimit != nil || cfg.CORS != nil || cfg.IP != nil {
		t.Error("expected optional sections to stay nil")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed yaml", "server: [unterminated"},
		{"negative body size", "limits:\n  max_body_size: -1"},
		{"zero rate limit", "rate_limit:\n  limit: 0\n  window: 1s"},
		{"missing window", "rate_limit:\n  limit: 10"},
		{"cors without origins", "cors:\n  methods: [GET]"},
		{"unknown ip source", "ip:\n  source: carrier_pigeon"},
		{"custom header without name", "ip:\n  source: custom_header"},
		{"bad duration", "server:\n  shutdown_timeout: soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snexus.yaml")
	if err := os.WriteFile(path, []byte("server:\n  address: \":7070\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Errorf("expected :7070, got %s", cfg.Server.Address)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestToMuxConfig(t *testing.T) {
	cfg, err := Parse([]byte(`
limits:
  max_body_size: 512
rate_limit:
  bucket: api
  limit: 5
  window: 10s
cors:
  origins: ["*"]
ip:
  source: custom_header
  custom_header: X-Client-IP
  trust_proxy: true
trace_id: true
metrics:
  enabled: true
  namespace: test
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	logger := zap.NewNop()
	mc, collector, err := cfg.ToMuxConfig(logger)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if mc.Logger != logger {
		t.Error("expected the logger to be passed through")
	}
	if mc.GlobalMaxBodySize != 512 {
		t.Errorf("expected 512, got %d", mc.GlobalMaxBodySize)
	}
	if mc.GlobalRateLimit == nil || mc.GlobalRateLimit.BucketName != "api" || mc.GlobalRateLimit.Strategy != middleware.StrategyIP {
		t.Fatalf("unexpected rate limit: %+v", mc.GlobalRateLimit)
	}
	if mc.CORS == nil || mc.CORS.Origins[0] != "*" {
		t.Fatalf("unexpected CORS config: %+v", mc.CORS)
	}
	if mc.IPConfig == nil || mc.IPConfig.Source != middleware.IPSourceCustomHeader || mc.IPConfig.CustomHeader != "X-Client-IP" {
		t.Fatalf("unexpected IP config: %+v", mc.IPConfig)
	}
	if !mc.EnableTraceID || !mc.EnableMetrics {
		t.Error("expected trace ID and metrics to be enabled")
	}
	if collector == nil || mc.Metrics != collector {
		t.Error("expected the collector to be created and set on the mux config")
	}
}

func TestToMuxConfigWithoutMetrics(t *testing.T) {
	cfg, err := Parse([]byte(`trace_id: false`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	mc, collector, err := cfg.ToMuxConfig(nil)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if collector != nil || mc.Metrics != nil {
		t.Error("expected no collector when metrics are disabled")
	}
	if mc.GlobalRateLimit != nil || mc.CORS != nil || mc.IPConfig != nil {
		t.Error("expected optional sections to stay unset")
	}
}
