package common

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCookieSerialization(t *testing.T) {
	expires := time.Date(2030, time.January, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		value    string
		opts     *CookieOptions
		expected string
	}{
		{
			name:     "no options",
			value:    "abc123",
			expected: "token=abc123",
		},
		{
			name:     "max age and http only",
			value:    "abc123",
			opts:     &CookieOptions{MaxAge: 3600, HTTPOnly: true},
			expected: "token=abc123; Max-Age=3600; HttpOnly",
		},
		{
			name:  "every option in fixed order",
			value: "v",
			opts: &CookieOptions{
				SameSite: "Strict",
				Secure:   true,
				Domain:   "example.com",
				Path:     "/api",
				HTTPOnly: true,
				Expires:  expires,
				Signed:   true,
				MaxAge:   60,
			},
			expected: "token=v; Max-Age=60; Signed; Expires=Wed, 02 Jan 2030 03:04:05 GMT; HttpOnly; Path=/api; Domain=example.com; Secure; SameSite=Strict",
		},
		{
			name:     "value is percent encoded",
			value:    "a b;c=d/é",
			expected: "token=a%20b%3Bc%3Dd%2F%C3%A9",
		},
		{
			name:     "unreserved characters kept",
			value:    "a-_.!~*'()Z9",
			expected: "token=a-_.!~*'()Z9",
		},
		{
			name:     "encode hook runs before percent encoding",
			value:    "hello",
			opts:     &CookieOptions{Encode: strings.ToUpper},
			expected: "token=HELLO",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := NewResponse().Cookie("token", tc.value, tc.opts)
			assert.Equal(t, tc.expected, res.GetHeader("Set-Cookie"))

			// Same input, same bytes
			again := NewResponse().Cookie("token", tc.value, tc.opts)
			assert.Equal(t, res.GetHeader("Set-Cookie"), again.GetHeader("Set-Cookie"))
		})
	}
}

func TestCookieOverwritesPreviousCookie(t *testing.T) {
	res := NewResponse().
		Cookie("first", "1", nil).
		Cookie("second", "2", nil)

	assert.Equal(t, []string{"second=2"}, res.Header().Values("Set-Cookie"))
}

func TestClearCookie(t *testing.T) {
	res := NewResponse().ClearCookie("session", nil)
	assert.Equal(t, "session=; Expires=Thu, 01 Jan 1970 00:00:00 GMT; Path=/", res.GetHeader("Set-Cookie"))

	res = NewResponse().ClearCookie("session", &CookieOptions{MaxAge: 100, Path: "/app", HTTPOnly: true})
	assert.Equal(t, "session=; Expires=Thu, 01 Jan 1970 00:00:00 GMT; HttpOnly; Path=/app", res.GetHeader("Set-Cookie"))
}

func TestClearCookieDoesNotMutateOptions(t *testing.T) {
	opts := &CookieOptions{MaxAge: 5}
	NewResponse().ClearCookie("session", opts)

	assert.Equal(t, 5, opts.MaxAge)
	assert.Equal(t, "", opts.Path)
	assert.True(t, opts.Expires.IsZero())
}
