package common

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CookieOptions controls the attributes written by Response.Cookie.
// Zero values are omitted from the serialized cookie.
type CookieOptions struct {
	MaxAge   int       // Max-Age in seconds
	Signed   bool      // adds the literal Signed flag
	Expires  time.Time // Expires, written in HTTP date format
	HTTPOnly bool
	Path     string
	Domain   string
	Secure   bool
	SameSite string // Strict, Lax or None

	// Encode transforms the value before it is percent-encoded.
	Encode func(string) string
}

// Cookie sets the Set-Cookie header. Any previously set Set-Cookie header is replaced.
// Attributes are always written in the same order, so equal inputs produce byte-identical
// header values.
func (r *Response) Cookie(name, value string, opts *CookieOptions) *Response {
	return r.SetHeader("Set-Cookie", serializeCookie(name, value, opts))
}

// ClearCookie expires a cookie on the client: it is set with an empty value, an
// expiry in the past and, unless opts says otherwise, a path of "/".
func (r *Response) ClearCookie(name string, opts *CookieOptions) *Response {
	var cleared CookieOptions
	if opts != nil {
		cleared = *opts
	}
	cleared.Expires = time.UnixMilli(1)
	cleared.MaxAge = 0
	if cleared.Path == "" {
		cleared.Path = "/"
	}

	return r.Cookie(name, "", &cleared)
}

func serializeCookie(name, value string, opts *CookieOptions) string {
	if opts != nil && opts.Encode != nil {
		value = opts.Encode(value)
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(encodeURIComponent(value))

	if opts == nil {
		return b.String()
	}

	if opts.MaxAge != 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(opts.MaxAge))
	}
	if opts.Signed {
		b.WriteString("; Signed")
	}
	if !opts.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(opts.Expires.UTC().Format(http.TimeFormat))
	}
	if opts.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	if opts.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(opts.Path)
	}
	if opts.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(opts.Domain)
	}
	if opts.Secure {
		b.WriteString("; Secure")
	}
	if opts.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(opts.SameSite)
	}

	return b.String()
}

const upperhex = "0123456789ABCDEF"

// encodeURIComponent percent-encodes every byte except A-Z a-z 0-9 and - _ . ! ~ * ' ( )
func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreservedComponent(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}

	return b.String()
}

func isUnreservedComponent(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
