// Package apperr is the error taxonomy shared by services and handlers.
// Every error carries a message id that the HTTP layer localizes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindAmbiguous
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindAmbiguous:
		return "ambiguous"
	default:
		return "internal"
	}
}

// Status maps a kind to its HTTP status. Conflicts are reported as 400 so
// the POS frontend treats them like any other rejected submission.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindAmbiguous:
		return http.StatusMultipleChoices
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind      Kind
	MessageID string
	Data      map[string]any
	// Candidates is set on ambiguous errors so the caller can pick one.
	Candidates any
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + ": " + e.MessageID
	if len(e.Data) > 0 {
		msg += fmt.Sprintf(" %v", e.Data)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and message id so sentinel-style comparisons work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.MessageID == "" || e.MessageID == t.MessageID)
}

func New(kind Kind, id string, data map[string]any) *Error {
	return &Error{Kind: kind, MessageID: id, Data: data}
}

func Validation(id string, data map[string]any) *Error { return New(KindValidation, id, data) }
func NotFound(id string, data map[string]any) *Error   { return New(KindNotFound, id, data) }
func Conflict(id string, data map[string]any) *Error   { return New(KindConflict, id, data) }
func Forbidden(id string) *Error                       { return New(KindForbidden, id, nil) }
func Unauthorized(id string) *Error                    { return New(KindUnauthorized, id, nil) }

func Ambiguous(id string, candidates any) *Error {
	return &Error{Kind: KindAmbiguous, MessageID: id, Candidates: candidates}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, MessageID: MsgInternal, Err: err}
}

// KindOf reports the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Is reports whether err is an *Error carrying messageID.
func Is(err error, messageID string) bool {
	var e *Error
	return errors.As(err, &e) && e.MessageID == messageID
}
