package client

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/davmarks/internal/common"
)

// StatusError is a non-2xx response. It unwraps to common.ErrAuth for 401,
// common.ErrorNotFound for 404 and common.ErrServer otherwise.
type StatusError struct {
	Method string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Method, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized:
		return common.ErrAuth
	case http.StatusNotFound:
		return common.ErrorNotFound
	default:
		return common.ErrServer
	}
}
