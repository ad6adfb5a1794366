package api

import (
	"fmt"
	"net/http"
)

// ValidationError reports missing local input. It is raised before any
// request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TransportError reports a request that never produced a response
// (connection failure, timeout, cancelled context).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a response with a non-2xx status.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP error %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: HTTP error %d: %s", e.Op, e.Code, e.Message)
}

// NotFound reports whether the backend answered 404.
func (e *StatusError) NotFound() bool { return e.Code == http.StatusNotFound }
