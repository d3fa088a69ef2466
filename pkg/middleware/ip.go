// Package middleware provides chain middlewares for the execution engine (parsers,
// authentication, rate limiting, CORS, logging) and the net/http middlewares the hosting
// mux wraps around every route (client IP, trace ID, recovery).
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/Suhaibinator/SNexus/pkg/common"
)

// IPSourceType defines the source for client IP addresses
type IPSourceType string

const (
	// IPSourceRemoteAddr uses the request's RemoteAddr field
	IPSourceRemoteAddr IPSourceType = "remote_addr"

	// IPSourceXForwardedFor uses the leftmost entry of the X-Forwarded-For header
	IPSourceXForwardedFor IPSourceType = "x_forwarded_for"

	// IPSourceXRealIP uses the X-Real-IP header
	IPSourceXRealIP IPSourceType = "x_real_ip"

	// IPSourceCustomHeader uses the header named by IPConfig.CustomHeader
	IPSourceCustomHeader IPSourceType = "custom_header"
)

// IPConfig defines configuration for IP extraction
type IPConfig struct {
	// Source specifies where to extract the client IP from
	Source IPSourceType

	// CustomHeader is the name of the header to use when Source is IPSourceCustomHeader
	CustomHeader string

	// TrustProxy determines whether proxy headers are honoured at all.
	// If false, RemoteAddr is used whatever the Source.
	TrustProxy bool
}

// DefaultIPConfig returns the default IP configuration
func DefaultIPConfig() *IPConfig {
	return &IPConfig{
		Source:     IPSourceXForwardedFor,
		TrustProxy: true,
	}
}

// contextKey is a type for context keys
type contextKey string

// ClientIPKey is the key used to store the client IP in the request context
const ClientIPKey contextKey = "client_ip"

// ClientIP returns the client IP stored in the request context, or "".
func ClientIP(r *http.Request) string {
	return ClientIPFromContext(r.Context())
}

// ClientIPFromContext returns the client IP stored in ctx, or "".
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ClientIPKey).(string)
	return ip
}

// ClientIPMiddleware resolves the client IP once per request and stores it in the request
// context. The hosting mux installs it ahead of every route.
func ClientIPMiddleware(config *IPConfig) common.HTTPMiddleware {
	if config == nil {
		config = DefaultIPConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ClientIPKey, ExtractClientIP(r, config))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolveClientIP is the chain form of ClientIPMiddleware. It is a no-op when the IP is
// already in the context.
func ResolveClientIP[S any](config *IPConfig) common.Middleware[S] {
	if config == nil {
		config = DefaultIPConfig()
	}

	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		if ClientIPFromContext(req.Context()) == "" {
			req.SetContext(context.WithValue(req.Context(), ClientIPKey, ExtractClientIP(req.Raw(), config)))
		}
		return nil, next()
	}
}

// ExtractClientIP resolves the client IP of r according to config, without the port.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	var ip string

	if config.TrustProxy {
		switch config.Source {
		case IPSourceXRealIP:
			ip = r.Header.Get("X-Real-IP")
		case IPSourceCustomHeader:
			ip = r.Header.Get(config.CustomHeader)
		case IPSourceRemoteAddr:
			ip = r.RemoteAddr
		default:
			ip = firstForwardedFor(r.Header.Get("X-Forwarded-For"))
		}
	}

	if ip == "" {
		ip = r.RemoteAddr
	}

	return stripPort(strings.TrimSpace(ip))
}

// firstForwardedFor returns the leftmost address of an X-Forwarded-For value
func firstForwardedFor(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

// stripPort removes a trailing port. Bare IPv6 addresses are returned unchanged and
// bracketed ones keep their brackets.
func stripPort(ip string) string {
	host, _, err := net.SplitHostPort(ip)
	if err != nil {
		return ip
	}
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}
