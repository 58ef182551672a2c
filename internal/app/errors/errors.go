package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error for callers above the engine
type Kind string

const (
	KindInternal   Kind = "internal"
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindUpstream   Kind = "upstream"
	KindConflict   Kind = "conflict"
)

// Common error types
var (
	// Configuration errors
	ErrMissingAPIKey = New("API key is required")
	ErrInvalidAPIKey = New("invalid API key format")
	ErrInvalidConfig = New("invalid configuration")

	// Build errors
	ErrNoDescriptors     = NewKind(KindValidation, "descriptor set is empty")
	ErrNoSurvivingFrames = NewKind(KindValidation, "no frames left after filtering")
	ErrUnknownRole       = NewKind(KindValidation, "unknown role")
	ErrInvalidVideoID    = NewKind(KindValidation, "invalid video id")
	ErrEmptyQuery        = NewKind(KindValidation, "query is empty")

	// Lookup errors
	ErrIndexNotFound = NewKind(KindNotFound, "index not found")

	// Collaborator errors
	ErrEmbeddingFailed   = NewKind(KindUpstream, "embedding failed")
	ErrGenerationFailed  = NewKind(KindUpstream, "answer generation failed")
	ErrAllVariantsFailed = NewKind(KindUpstream, "all query variants failed")

	// Storage errors
	ErrDimensionMismatch = New("vector dimension mismatch")
	ErrCorruptArtifact   = New("corrupt index artifact")
	ErrStoreFailed       = New("artifact store failed")
)

// Error represents a standardized error
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{kind: KindInternal, message: message}
}

// NewKind creates a new error of the given kind
func NewKind(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf creates a new formatted error
func Newf(format string, args ...interface{}) *Error {
	return &Error{kind: KindInternal, message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		kind:    KindOf(err),
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		kind:    KindOf(err),
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// WithKind wraps err and reclassifies it
func WithKind(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, message: message, cause: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the classification of the error
func (e *Error) Kind() Kind {
	return e.kind
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message && e.kind == t.kind
}

// KindOf returns the first non-internal kind found in the chain
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok && e.kind != KindInternal && e.kind != "" {
			return e.kind
		}
		err = stderrors.Unwrap(err)
	}
	return KindInternal
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Helper functions for common patterns

// RequiredField returns an error for missing required fields
func RequiredField(field string) error {
	return &Error{kind: KindValidation, message: fmt.Sprintf("%s is required", field)}
}

// InvalidField returns an error for invalid field values
func InvalidField(field string, reason string) error {
	return &Error{kind: KindValidation, message: fmt.Sprintf("%s is invalid: %s", field, reason)}
}

// OutOfRange returns an error for values outside acceptable range
func OutOfRange(field string, min, max interface{}) error {
	return &Error{kind: KindValidation, message: fmt.Sprintf("%s out of range (must be between %v and %v)", field, min, max)}
}

// NotFound returns an error for items that were not found
func NotFound(itemType string, identifier string) error {
	return &Error{kind: KindNotFound, message: fmt.Sprintf("%s not found: %s", itemType, identifier)}
}

// Upstream wraps a collaborator failure
func Upstream(err error, operation string) error {
	return WithKind(KindUpstream, err, operation)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return KindOf(err) == KindValidation
}

// IsNotFound checks if an error is a not-found error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsUpstream checks if an error came from an external collaborator
func IsUpstream(err error) bool {
	return KindOf(err) == KindUpstream
}
