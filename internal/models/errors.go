package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the HTTP layer can map them to statuses.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindConflict       ErrorKind = "conflict"
	KindNotFound       ErrorKind = "not_found"
	KindAuthorization  ErrorKind = "authorization"
	KindAuthentication ErrorKind = "authentication"
	KindState          ErrorKind = "state"
	KindInvariant      ErrorKind = "invariant"
	KindStore          ErrorKind = "store"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: message}
}

func NewAuthenticationError(message string) *AppError {
	return &AppError{Kind: KindAuthentication, Message: message}
}

func NewStateError(message string) *AppError {
	return &AppError{Kind: KindState, Message: message}
}

func NewInvariantError(message string) *AppError {
	return &AppError{Kind: KindInvariant, Message: message}
}

func NewStoreError(op string, err error) *AppError {
	return &AppError{Kind: KindStore, Message: op + " failed", Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or KindStore
// for any other non-nil error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
