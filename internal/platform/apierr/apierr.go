// Package apierr pairs an error with the HTTP status and machine-readable
// code the edge should serve it under. Services return one for caller
// mistakes; upstream model failures never surface this way, they degrade
// to fallback payloads instead.
package apierr

import "fmt"

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("request failed (%d)", e.Status)
	}
	return "request failed"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
