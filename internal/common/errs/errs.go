package errs

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// Failure kinds. Every error returned by a service either is, or wraps, one of
// these; anything else is treated as an unhandled failure.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("service unavailable")
)

// AppError carries a user-facing message alongside its failure kind.
type AppError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Is(target error) bool {
	return target == e.Kind
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Validation(msg string) error   { return &AppError{Kind: ErrValidation, Message: msg} }
func NotFound(msg string) error     { return &AppError{Kind: ErrNotFound, Message: msg} }
func Unauthorized(msg string) error { return &AppError{Kind: ErrUnauthorized, Message: msg} }
func Forbidden(msg string) error    { return &AppError{Kind: ErrForbidden, Message: msg} }
func Unavailable(msg string) error  { return &AppError{Kind: ErrUnavailable, Message: msg} }

func Wrap(kind error, msg string, err error) error {
	return &AppError{Kind: kind, Message: msg, Err: err}
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// IsDuplicateKey reports whether err is a unique index violation (E11000).
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsNoDocuments reports whether a lookup came back empty.
func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// Duplicate maps a unique index violation to the same validation failure the
// pre-check produces, and passes any other error through.
func Duplicate(err error, msg string) error {
	if IsDuplicateKey(err) {
		return Wrap(ErrValidation, msg, err)
	}
	return err
}
