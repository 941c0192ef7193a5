package domain

import "errors"

var (
	// ErrInvalidPayload signals a malformed webhook body or search request.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrNotFound signals a record absent from the vector index.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorDimMismatch signals an embedding whose length differs from the index dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrIndexUnavailable signals that the vector index backend cannot be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)

// ValidationError wraps ErrInvalidPayload with a client-facing reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return ErrInvalidPayload.Error() + ": " + e.Reason }

func (e *ValidationError) Unwrap() error { return ErrInvalidPayload }

// NewValidationError creates an invalid payload error carrying reason.
func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}
