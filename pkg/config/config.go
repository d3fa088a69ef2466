// Package config loads the hosting mux configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Suhaibinator/SNexus/pkg/metrics"
	"github.com/Suhaibinator/SNexus/pkg/middleware"
	"github.com/Suhaibinator/SNexus/pkg/router"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is left out of the file.
const (
	DefaultAddress         = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// ServerConfig holds listener settings.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LimitsConfig holds request limits.
type LimitsConfig struct {
	MaxBodySize int64 `yaml:"max_body_size"`
}

// RateLimitConfig is the global rate limit. Only the IP strategy can be configured from a file.
type RateLimitConfig struct {
	Bucket string        `yaml:"bucket"`
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// CORSConfig is the cross-origin policy.
type CORSConfig struct {
	Origins          []string `yaml:"origins"`
	Methods          []string `yaml:"methods,omitempty"`
	Headers          []string `yaml:"headers,omitempty"`
	AllowCredentials bool     `yaml:"allow_credentials,omitempty"`
	MaxAge           int      `yaml:"max_age,omitempty"`
}

// IPConfig selects where the client IP is read from.
type IPConfig struct {
	Source       string `yaml:"source"`
	CustomHeader string `yaml:"custom_header,omitempty"`
	TrustProxy   bool   `yaml:"trust_proxy"`
}

// MetricsConfig enables request logging and Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace,omitempty"`
	Path      string `yaml:"path,omitempty"`
}

// File is the top-level YAML configuration.
type File struct {
	Server    ServerConfig     `yaml:"server"`
	Limits    LimitsConfig     `yaml:"limits"`
	RateLimit *RateLimitConfig `yaml:"rate_limit,omitempty"`
	CORS      *CORSConfig      `yaml:"cors,omitempty"`
	IP        *IPConfig        `yaml:"ip,omitempty"`
	TraceID   bool             `yaml:"trace_id"`
	Metrics   MetricsConfig    `yaml:"metrics"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML bytes into a File, fills in defaults and validates it.
func Parse(data []byte) (*File, error) {
	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *File) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultAddress
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.RateLimit != nil && cfg.RateLimit.Bucket == "" {
		cfg.RateLimit.Bucket = "global"
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// validate checks that the config is semantically valid.
func validate(cfg *File) error {
	if cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout cannot be negative")
	}
	if cfg.Limits.MaxBodySize < 0 {
		return fmt.Errorf("limits.max_body_size cannot be negative")
	}

	if rl := cfg.RateLimit; rl != nil {
		if rl.Limit <= 0 {
			return fmt.Errorf("rate_limit.limit must be positive, got %d", rl.Limit)
		}
		if rl.Window <= 0 {
			return fmt.Errorf("rate_limit.window must be positive, got %s", rl.Window)
		}
	}

	if cfg.CORS != nil && len(cfg.CORS.Origins) == 0 {
		return fmt.Errorf("cors: must have at least one origin")
	}

	if ip := cfg.IP; ip != nil {
		switch middleware.IPSourceType(ip.Source) {
		case "", middleware.IPSourceRemoteAddr, middleware.IPSourceXForwardedFor, middleware.IPSourceXRealIP:
		case middleware.IPSourceCustomHeader:
			if ip.CustomHeader == "" {
				return fmt.Errorf("ip: custom_header is required when source is %q", ip.Source)
			}
		default:
			return fmt.Errorf("ip: unknown source %q", ip.Source)
		}
	}

	return nil
}

// ToMuxConfig converts the file into a router.MuxConfig. When metrics are enabled a
// Prometheus collector is created in a fresh registry; it is also returned so the caller
// can use it as the engines' Observer and serve its handler.
func (f *File) ToMuxConfig(logger *zap.Logger) (router.MuxConfig, *metrics.Collector, error) {
	mc := router.MuxConfig{
		Logger:            logger,
		GlobalMaxBodySize: f.Limits.MaxBodySize,
		EnableTraceID:     f.TraceID,
		EnableMetrics:     f.Metrics.Enabled,
	}

	if rl := f.RateLimit; rl != nil {
		mc.GlobalRateLimit = &middleware.RateLimitConfig{
			BucketName: rl.Bucket,
			Limit:      rl.Limit,
			Window:     rl.Window,
			Strategy:   middleware.StrategyIP,
		}
	}

	if c := f.CORS; c != nil {
		mc.CORS = &middleware.CORSConfig{
			Origins:          c.Origins,
			Methods:          c.Methods,
			Headers:          c.Headers,
			AllowCredentials: c.AllowCredentials,
			MaxAge:           c.MaxAge,
		}
	}

	if ip := f.IP; ip != nil {
		mc.IPConfig = &middleware.IPConfig{
			Source:       middleware.IPSourceType(ip.Source),
			CustomHeader: ip.CustomHeader,
			TrustProxy:   ip.TrustProxy,
		}
	}

	if !f.Metrics.Enabled {
		return mc, nil, nil
	}

	collector, err := metrics.NewCollector(metrics.Config{Namespace: f.Metrics.Namespace})
	if err != nil {
		return router.MuxConfig{}, nil, fmt.Errorf("create metrics collector: %w", err)
	}
	mc.Metrics = collector

	return mc, collector, nil
}
