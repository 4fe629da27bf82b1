package common

import (
	"errors"
	"fmt"
)

// Kind classifies every error the explorer produces. The API layer maps
// kinds to HTTP status codes and the CLI maps them to exit diagnostics, so
// all components must return one of these instead of ad hoc errors.
type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindInvalidParameter
	KindFraming
	KindRemoteConnection
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidParameter:
		return "invalid parameter"
	case KindFraming:
		return "framing"
	case KindRemoteConnection:
		return "remote connection"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func InvalidParameterf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidParameter, Msg: fmt.Sprintf(format, args...)}
}

func Framingf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindFraming, Msg: fmt.Sprintf(format, args...)}
}

// RemoteConnection wraps a transport or node failure from the remote source.
func RemoteConnection(msg string, err error) *Error {
	return &Error{Kind: KindRemoteConnection, Msg: msg, Err: err}
}

// Storage wraps an unexpected database failure. Expected idempotent
// duplicates are not storage faults and never pass through here.
func Storage(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

func HasKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func IsNotFound(err error) bool {
	return HasKind(err, KindNotFound)
}

func IsInvalidParameter(err error) bool {
	return HasKind(err, KindInvalidParameter)
}
