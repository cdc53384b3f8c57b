package events

// ErrorKind classifies per-source failures reported via AdapterStatus.
type ErrorKind string

const (
	ErrorKindNone      ErrorKind = ""
	ErrorKindTransient ErrorKind = "transient_source_error"
	ErrorKindPermanent ErrorKind = "permanent_source_error"
	ErrorKindRateLimit ErrorKind = "rate_limited"
	ErrorKindTimeout   ErrorKind = "timed_out"
)

// ValidationError marks bad caller input (profile or page parameters).
// Unlike source failures it aborts the aggregation call immediately.
type ValidationError struct {
	Reason string
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Reason
}

// SourceError wraps an upstream failure with its classification so the
// adapter layer can decide on retries and report the right kind.
type SourceError struct {
	Kind ErrorKind
	Err  error
}

func (e *SourceError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth exactly one retry.
func (e *SourceError) Retryable() bool {
	return e.Kind == ErrorKindTransient
}
