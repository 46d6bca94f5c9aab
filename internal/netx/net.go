// Package netx has the HTTP helpers the WebDAV client is built on.
package netx

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// LastModified reads the Last-Modified header as Unix seconds. ok is false
// when the header is missing or not a valid HTTP date.
func LastModified(h http.Header) (sec int64, ok bool) {
	v := h.Get("Last-Modified")
	if v == "" {
		return 0, false
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0, false
	}
	return t.Unix(), true
}

// BasicAuthTransport adds HTTP Basic credentials to every request.
type BasicAuthTransport struct {
	Username string
	Password string
	Base     http.RoundTripper
}

func (t *BasicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.SetBasicAuth(t.Username, t.Password)
	return t.base().RoundTrip(r)
}

func (t *BasicAuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// IsNetworkError reports whether err came from the network layer (dial,
// DNS, connection reset, timeout) rather than from an HTTP response.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
