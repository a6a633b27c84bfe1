// Package dErrors provides code-tagged domain errors shared across services
// and handlers. Services translate store-level sentinel errors into these so
// the HTTP layer can map one code to one status without inspecting messages.
package dErrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error for API translation and caller branching.
type Code string

const (
	// CodeValidation covers request payloads that fail business validation
	// (missing title, rejection reason absent on reject, and so on).
	CodeValidation Code = "validation_error"

	// CodeInvalidInput covers malformed primitives at trust boundaries
	// (bad UUIDs, unknown roles, unknown enum values).
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest covers undecodable or structurally broken requests.
	CodeBadRequest Code = "bad_request"

	// CodeNotFound signals the target entity does not exist.
	CodeNotFound Code = "not_found"

	// CodeForbidden signals the actor's role does not permit the action.
	CodeForbidden Code = "forbidden"

	// CodeUnauthorized signals a missing or invalid credential.
	CodeUnauthorized Code = "unauthorized"

	// CodeInvalidTransition signals the document's current status does not
	// permit the requested lifecycle transition, or a transition precondition
	// (such as a rejection reason) is unmet.
	CodeInvalidTransition Code = "invalid_transition"

	// CodeConflict signals a concurrent writer won the optimistic check; the
	// caller should reload and retry.
	CodeConflict Code = "conflict"

	// CodeInvariantViolation marks a broken model invariant. Services convert
	// these to CodeValidation before they reach the API surface.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeUnavailable signals storage or a required downstream is unreachable.
	// The governed mutation and its audit record fail together under this code.
	CodeUnavailable Code = "storage_unavailable"

	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal_error"
)

// Error is a domain error with a classification code. The wrapped cause, when
// present, stays available to errors.Is/errors.As but is never serialized.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates err with a code and message while preserving the cause chain.
// A nil err returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.cause
			continue
		}
		return false
	}
	return false
}

// Is is a readable alias for HasCode at handler call sites.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status for the error envelope.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeBadRequest, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition:
		return http.StatusUnprocessableEntity
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
