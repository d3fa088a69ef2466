package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/Suhaibinator/SNexus/pkg/common"
	"go.uber.org/zap"
)

// Authentication failures reported by the session providers.
var (
	ErrNoCredentials     = errors.New("no credentials")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
)

// AuthProvider defines an interface for authentication providers that only accept or
// reject a request. BasicAuthProvider, BearerTokenProvider and APIKeyProvider implement it.
type AuthProvider interface {
	// Authenticate returns true if the request carries valid credentials.
	Authenticate(r *http.Request) bool
}

// BasicAuthProvider provides HTTP Basic Authentication.
// It validates username and password credentials against a predefined map.
type BasicAuthProvider struct {
	Credentials map[string]string // username -> password
}

// Authenticate authenticates a request using HTTP Basic Authentication.
func (p *BasicAuthProvider) Authenticate(r *http.Request) bool {
	username, password, ok := r.BasicAuth()
	if !ok {
		return false
	}

	expected, exists := p.Credentials[username]
	if !exists {
		// Unknown users take the same compare path as known ones
		expected = unknownUserSecret
	}

	match := subtle.ConstantTimeCompare([]byte(password), []byte(expected)) == 1
	return exists && match
}

// unknownUserSecret is compared against when the username has no credentials.
const unknownUserSecret = "\x00snexus-unknown-user\x00"

// BearerTokenProvider provides Bearer Token Authentication.
// It can validate tokens against a predefined map or using a custom validator function.
type BearerTokenProvider struct {
	ValidTokens map[string]bool         // token -> valid
	Validator   func(token string) bool // optional token validator, takes precedence
}

// Authenticate authenticates a request using Bearer Token Authentication.
func (p *BearerTokenProvider) Authenticate(r *http.Request) bool {
	token, err := bearerToken(r)
	if err != nil {
		return false
	}

	if p.Validator != nil {
		return p.Validator(token)
	}
	return p.ValidTokens[token]
}

// APIKeyProvider provides API Key Authentication.
// The key is looked up in the configured header first, then in the query parameter.
type APIKeyProvider struct {
	ValidKeys map[string]bool // key -> valid
	Header    string          // header name (e.g., "X-API-Key")
	Query     string          // query parameter name (e.g., "api_key")
}

// Authenticate authenticates a request using API Key Authentication.
func (p *APIKeyProvider) Authenticate(r *http.Request) bool {
	key, ok := apiKey(r, p.Header, p.Query)
	return ok && p.ValidKeys[key]
}

// SessionProvider authenticates a request and returns the session to store in the
// request's session slot.
type SessionProvider[S any] interface {
	AuthenticateSession(r *http.Request) (S, error)
}

// BasicSessionProvider resolves a session from HTTP Basic credentials.
type BasicSessionProvider[S any] struct {
	GetSessionFunc func(username, password string) (S, error)
}

// AuthenticateSession implements SessionProvider.
func (p *BasicSessionProvider[S]) AuthenticateSession(r *http.Request) (S, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		var zero S
		return zero, ErrNoCredentials
	}
	return p.GetSessionFunc(username, password)
}

// BearerTokenSessionProvider resolves a session from a Bearer token.
type BearerTokenSessionProvider[S any] struct {
	GetSessionFunc func(token string) (S, error)
}

// AuthenticateSession implements SessionProvider.
func (p *BearerTokenSessionProvider[S]) AuthenticateSession(r *http.Request) (S, error) {
	token, err := bearerToken(r)
	if err != nil {
		var zero S
		return zero, err
	}
	return p.GetSessionFunc(token)
}

// APIKeySessionProvider resolves a session from an API key in a header or query parameter.
type APIKeySessionProvider[S any] struct {
	GetSessionFunc func(key string) (S, error)
	Header         string // header name (e.g., "X-API-Key")
	Query          string // query parameter name (e.g., "api_key")
}

// AuthenticateSession implements SessionProvider.
func (p *APIKeySessionProvider[S]) AuthenticateSession(r *http.Request) (S, error) {
	key, ok := apiKey(r, p.Header, p.Query)
	if !ok {
		var zero S
		return zero, ErrNoCredentials
	}
	return p.GetSessionFunc(key)
}

// AuthenticationWithProvider rejects requests that provider does not authenticate with
// 401 Unauthorized.
func AuthenticationWithProvider[S any](provider AuthProvider, logger *zap.Logger) common.Middleware[S] {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		if !provider.Authenticate(req.Raw()) {
			logAuthFailure(logger, req, nil)
			return unauthorized(res)
		}
		return nil, next()
	}
}

// AuthenticationWithSession stores the session returned by provider in the session slot.
// When authentication fails and required is true the chain short-circuits with
// 401 Unauthorized; otherwise the request proceeds without a session.
func AuthenticationWithSession[S any](provider SessionProvider[S], required bool, logger *zap.Logger) common.Middleware[S] {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		session, err := provider.AuthenticateSession(req.Raw())
		if err != nil {
			if required {
				logAuthFailure(logger, req, err)
				return unauthorized(res)
			}
			logger.Debug("Proceeding without session",
				zap.Error(err),
				zap.String("method", req.Method()),
				zap.String("path", req.Path()),
			)
			return nil, next()
		}

		req.SetSession(session)
		return nil, next()
	}
}

// Authentication validates the request's Bearer token with authFunc and stores the
// returned session. When authFunc rejects the token and required is true the chain
// short-circuits with 401 Unauthorized.
func Authentication[S any](authFunc func(ctx context.Context, token string) (S, bool), required bool) common.Middleware[S] {
	return func(req *common.Request[S], res *common.Response, next common.Next) (*common.Result, error) {
		token, err := bearerToken(req.Raw())
		if err == nil {
			if session, ok := authFunc(req.Context(), token); ok {
				req.SetSession(session)
				return nil, next()
			}
		}

		if required {
			return unauthorized(res)
		}
		return nil, next()
	}
}

// NewBasicAuthMiddleware creates a middleware that uses HTTP Basic Authentication.
func NewBasicAuthMiddleware[S any](credentials map[string]string, logger *zap.Logger) common.Middleware[S] {
	return AuthenticationWithProvider[S](&BasicAuthProvider{Credentials: credentials}, logger)
}

// NewBearerTokenMiddleware creates a middleware that uses Bearer Token Authentication.
func NewBearerTokenMiddleware[S any](validTokens map[string]bool, logger *zap.Logger) common.Middleware[S] {
	return AuthenticationWithProvider[S](&BearerTokenProvider{ValidTokens: validTokens}, logger)
}

// NewAPIKeyMiddleware creates a middleware that uses API Key Authentication.
func NewAPIKeyMiddleware[S any](validKeys map[string]bool, header, query string, logger *zap.Logger) common.Middleware[S] {
	return AuthenticationWithProvider[S](&APIKeyProvider{ValidKeys: validKeys, Header: header, Query: query}, logger)
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrNoCredentials
	}

	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return "", ErrInvalidAuthHeader
	}
	return token, nil
}

func apiKey(r *http.Request, header, query string) (string, bool) {
	if header != "" {
		if key := r.Header.Get(header); key != "" {
			return key, true
		}
	}
	if query != "" {
		if key := r.URL.Query().Get(query); key != "" {
			return key, true
		}
	}
	return "", false
}

func unauthorized(res *common.Response) (*common.Result, error) {
	return res.Status(http.StatusUnauthorized).Send(map[string]string{"error": "Unauthorized"})
}

func logAuthFailure[S any](logger *zap.Logger, req *common.Request[S], err error) {
	logger.Warn("Authentication failed",
		zap.Error(err),
		zap.String("method", req.Method()),
		zap.String("path", req.Path()),
		zap.String("remote_addr", req.Raw().RemoteAddr),
	)
}
