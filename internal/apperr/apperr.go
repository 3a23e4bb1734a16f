// Package apperr defines the error taxonomy shared by every component:
// validation, authentication, remote rejection, network and not-found
// failures. Every failure resolves to one of these kinds so surfaces can
// decide between redirecting to login, showing a banner, or keeping the
// last-known-good state.
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorizes an Error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthenticated
	KindRemoteRejected
	KindNetworkUnavailable
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRemoteRejected:
		return "remote_rejected"
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a categorized failure. Code is a stable machine-readable reason
// (e.g. "invalid_credentials") used for the user-facing message lookup.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels below: errors.Is(err, apperr.ErrNotFound)
// is true for any *Error of KindNotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code != "" || t.Message != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrRemoteRejected     = &Error{Kind: KindRemoteRejected}
	ErrNetworkUnavailable = &Error{Kind: KindNetworkUnavailable}
	ErrNotFound           = &Error{Kind: KindNotFound}
)

// Validation reports bad input caught before any network call.
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// Unauthenticated reports a missing or invalid session.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Code: CodeUnauthenticated, Message: message}
}

// Rejected reports a server-side business-rule failure.
func Rejected(code, message string, err error) *Error {
	if code == "" {
		code = CodeUnexpected
	}
	return &Error{Kind: KindRemoteRejected, Code: code, Message: message, Err: err}
}

// Network reports a transport failure.
func Network(err error) *Error {
	return &Error{Kind: KindNetworkUnavailable, Code: CodeNetworkUnavailable, Message: "service unavailable", Err: err}
}

// NotFound reports a referenced entity absent locally or remotely.
func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: what + " not found"}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
