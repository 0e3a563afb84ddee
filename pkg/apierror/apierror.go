// Package apierror implements the gateway's error taxonomy and its
// rendering to HTTP, grounded in danielfrg-loki's pkg/querier/http.go
// pattern (httpgrpc.Errorf + serverutil.WriteError) but hand-rolled here:
// the teacher's httpgrpc helper is gRPC-status-code shaped and this
// gateway only ever speaks HTTP, so a small net/http-native type serves
// better than pulling in the gRPC status machinery for one enum.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one taxonomy entry; each maps to exactly one HTTP status.
type Kind int

const (
	InvalidLogQL Kind = iota
	InvalidTraceQL
	InvalidTimeFormat
	InvalidQueryString
	MultiMatch
	TraceNotFound
	DBError
	StorageError
	SerdeError
	UnsupportedDataType
	IOError
)

func (k Kind) httpStatus() int {
	switch k {
	case InvalidLogQL, InvalidTraceQL, InvalidTimeFormat, InvalidQueryString, MultiMatch:
		return http.StatusBadRequest
	case TraceNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is the gateway's single error type: a taxonomy Kind wrapping the
// underlying cause. The HTTP body renders the cause's Display text, as the
// error-handling design requires.
type Error struct {
	Kind Kind
	Err  error
}

func New(kind Kind, err error) *Error { return &Error{Kind: kind, Err: err} }

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the status code err's Kind maps to, or 500 if err is
// not an *Error.
func HTTPStatus(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind.httpStatus()
	}
	return http.StatusInternalServerError
}

// WriteError renders err's Display text with its taxonomy status code,
// plain text, matching the original gateway's error body shape.
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(HTTPStatus(err))
	fmt.Fprintln(w, err.Error())
}
