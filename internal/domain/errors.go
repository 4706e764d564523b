package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can branch without string matching.
type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "INVALID_INPUT"
	KindTooLarge          ErrorKind = "TOO_LARGE"
	KindConflict          ErrorKind = "CONFLICT"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindTransport         ErrorKind = "TRANSPORT"
	KindStorageWrite      ErrorKind = "STORAGE_WRITE"
	KindDraftCreation     ErrorKind = "DRAFT_CREATION"
	KindProtocol          ErrorKind = "PROTOCOL"
	KindConversionTimeout ErrorKind = "CONVERSION_TIMEOUT"
	KindConversionFailed  ErrorKind = "CONVERSION_FAILED"
	KindPublish           ErrorKind = "PUBLISH"
	KindRetraction        ErrorKind = "RETRACTION"
	KindCanceled          ErrorKind = "CANCELED"
)

// Error is the structured error returned by every saga step.
type Error struct {
	Kind    ErrorKind
	Backend Backend
	Message string
	// Status and Body carry the upstream response verbatim when there was one.
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Backend != "" {
		msg = fmt.Sprintf("%s: %s", e.Backend, msg)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrTooLarge          = &Error{Kind: KindTooLarge}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrTransport         = &Error{Kind: KindTransport}
	ErrStorageWrite      = &Error{Kind: KindStorageWrite}
	ErrDraftCreation     = &Error{Kind: KindDraftCreation}
	ErrProtocol          = &Error{Kind: KindProtocol}
	ErrConversionTimeout = &Error{Kind: KindConversionTimeout}
	ErrConversionFailed  = &Error{Kind: KindConversionFailed}
	ErrPublish           = &Error{Kind: KindPublish}
	ErrRetraction        = &Error{Kind: KindRetraction}
	ErrCanceled          = &Error{Kind: KindCanceled}
)

// NewError builds an *Error of the given kind.
func NewError(kind ErrorKind, backend Backend, msg string) *Error {
	return &Error{Kind: kind, Backend: backend, Message: msg}
}

// InvalidInput builds an INVALID_INPUT error.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
