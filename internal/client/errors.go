package client

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when a request exceeds its deadline.
	ErrTimeout = errors.New("client: request timed out")
	// ErrNetwork is returned when the transport fails before a response is received.
	ErrNetwork = errors.New("client: network error")
)

// ServerError is a non-2xx response. Detail carries the backend's human-readable
// message when the body had a string "detail" field.
type ServerError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("client: server error %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("client: server error %d", e.StatusCode)
}

// Detail returns the backend-supplied detail message carried by err, if any.
func Detail(err error) (string, bool) {
	var serr *ServerError
	if errors.As(err, &serr) && serr.Detail != "" {
		return serr.Detail, true
	}
	return "", false
}
