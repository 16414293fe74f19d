// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// Kind discriminates engine failures. Every kind represents a decision the
// operator must see; none are swallowed or retried inside the engine.
type Kind string

const (
	KindNotFound                  Kind = "NOT_FOUND"
	KindValidation                Kind = "VALIDATION_ERROR"
	KindDuplicateActiveAssignment Kind = "DUPLICATE_ACTIVE_ASSIGNMENT"
	KindAlreadyDecided            Kind = "ALREADY_DECIDED"
	KindSupersedingCycle          Kind = "SUPERSEDING_CYCLE"
	KindConflict                  Kind = "CONCURRENT_MODIFICATION_CONFLICT"
)

// Error carries enough context (entity type and id, message) to render an
// actionable operator-facing message.
type Error struct {
	Kind     Kind
	Resource string
	ID       string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %s", e.Resource, e.ID, e.Message)
	}
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s", e.Resource, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource, ID: id, Message: "not found"}
}

func Validation(resource, message string) *Error {
	return &Error{Kind: KindValidation, Resource: resource, Message: message}
}

func ValidationWrap(resource string, err error) *Error {
	return &Error{Kind: KindValidation, Resource: resource, Message: err.Error(), Err: err}
}

func DuplicateActiveAssignment(resource, id, message string) *Error {
	return &Error{Kind: KindDuplicateActiveAssignment, Resource: resource, ID: id, Message: message}
}

func AlreadyDecided(resource, id, message string) *Error {
	return &Error{Kind: KindAlreadyDecided, Resource: resource, ID: id, Message: message}
}

func SupersedingCycle(resource, id, message string) *Error {
	return &Error{Kind: KindSupersedingCycle, Resource: resource, ID: id, Message: message}
}

// Conflict is the one kind callers are expected to retry transparently:
// re-fetch latest state and reapply.
func Conflict(resource, id, message string) *Error {
	return &Error{Kind: KindConflict, Resource: resource, ID: id, Message: message}
}

// KindOf returns the failure kind, or "" for errors the engine does not
// classify (infrastructure failures).
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// AsError unwraps err to the typed form when present.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
